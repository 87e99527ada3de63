package services

import (
	"sales-insights/internal/models"
)

const (
	ChartRevenueTrend        = "revenue_trend"
	ChartDailyPattern        = "daily_pattern"
	ChartProductPerformance  = "product_performance"
	ChartRevenueDistribution = "revenue_distribution"
	ChartQuantityTrend       = "quantity_trend"
)

var chartBuilders = []struct {
	name  string
	build func(*models.Table) models.Chart
}{
	{ChartRevenueTrend, revenueTrendChart},
	{ChartDailyPattern, dailyPatternChart},
	{ChartProductPerformance, productPerformanceChart},
	{ChartRevenueDistribution, revenueDistributionChart},
	{ChartQuantityTrend, quantityTrendChart},
}

// ChartNames lists the charts BuildCharts produces, in display order.
func ChartNames() []string {
	names := make([]string, len(chartBuilders))
	for i, b := range chartBuilders {
		names[i] = b.name
	}
	return names
}

func BuildCharts(t *models.Table) []models.Chart {
	charts := make([]models.Chart, len(chartBuilders))
	for i, b := range chartBuilders {
		charts[i] = b.build(t)
	}
	return charts
}

func ChartByName(t *models.Table, name string) (models.Chart, bool) {
	for _, b := range chartBuilders {
		if b.name == name {
			return b.build(t), true
		}
	}
	return models.Chart{}, false
}

func revenueTrendChart(t *models.Table) models.Chart {
	series := MonthlyRevenueSeries(t)
	points := make([]models.ChartPoint, len(series))
	for i, p := range series {
		points[i] = models.ChartPoint{Label: p.Month.String(), X: float64(i), Y: p.Revenue.InexactFloat64()}
	}
	return models.Chart{
		Name:   ChartRevenueTrend,
		Title:  "Monthly Revenue Trend",
		Kind:   models.ChartLine,
		XLabel: "Month",
		YLabel: "Revenue",
		Series: []models.ChartSeries{{Name: "Revenue", Points: points}},
	}
}

func dailyPatternChart(t *models.Table) models.Chart {
	daily := DailyRevenueSeries(t)
	points := make([]models.ChartPoint, len(daily))
	for i, d := range daily {
		points[i] = models.ChartPoint{
			Label: d.Date.Format("2006-01-02"),
			X:     float64(d.Date.Unix()),
			Y:     d.Revenue.InexactFloat64(),
		}
	}
	return models.Chart{
		Name:   ChartDailyPattern,
		Title:  "Daily Sales Pattern",
		Kind:   models.ChartLine,
		XLabel: "Date",
		YLabel: "Revenue",
		Series: []models.ChartSeries{{Name: "Revenue", Points: points}},
	}
}

// productPerformanceChart has one single-point series per product so that
// renderers can colour products independently.
func productPerformanceChart(t *models.Table) models.Chart {
	perf := ProductPerformanceOf(t)
	series := make([]models.ChartSeries, len(perf))
	for i, p := range perf {
		revenue := p.Revenue.InexactFloat64()
		series[i] = models.ChartSeries{
			Name: p.Product,
			Points: []models.ChartPoint{{
				Label: p.Product,
				X:     float64(p.Quantity),
				Y:     revenue,
				Size:  revenue,
			}},
		}
	}
	return models.Chart{
		Name:   ChartProductPerformance,
		Title:  "Product Performance Analysis",
		Kind:   models.ChartScatter,
		XLabel: "Quantity",
		YLabel: "Revenue",
		Series: series,
	}
}

func revenueDistributionChart(t *models.Table) models.Chart {
	perf := ProductPerformanceOf(t)
	points := make([]models.ChartPoint, len(perf))
	for i, p := range perf {
		points[i] = models.ChartPoint{Label: p.Product, X: float64(i), Y: p.Revenue.InexactFloat64()}
	}
	return models.Chart{
		Name:   ChartRevenueDistribution,
		Title:  "Revenue Distribution by Product",
		Kind:   models.ChartPie,
		Series: []models.ChartSeries{{Name: "Revenue", Points: points}},
	}
}

// quantityTrendChart groups bars by month with one series per product.
func quantityTrendChart(t *models.Table) models.Chart {
	months := MonthlyRevenueSeries(t)
	monthPos := make(map[models.MonthKey]int, len(months))
	for i, m := range months {
		monthPos[m.Month] = i
	}

	var series []models.ChartSeries
	seriesPos := make(map[string]int)
	for _, q := range MonthlyQuantityByProduct(t) {
		i, ok := seriesPos[q.Product]
		if !ok {
			i = len(series)
			seriesPos[q.Product] = i
			series = append(series, models.ChartSeries{Name: q.Product})
		}
		series[i].Points = append(series[i].Points, models.ChartPoint{
			Label: q.Month.String(),
			X:     float64(monthPos[q.Month]),
			Y:     float64(q.Quantity),
		})
	}

	return models.Chart{
		Name:   ChartQuantityTrend,
		Title:  "Monthly Sales Quantity by Product",
		Kind:   models.ChartBar,
		XLabel: "Month",
		YLabel: "Quantity",
		Series: series,
	}
}
