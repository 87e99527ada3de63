package services

import (
	"fmt"

	"github.com/shopspring/decimal"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

// GenerateInsights derives the three headline facts shown on the dashboard:
// first-to-last month revenue growth, the best selling product and the best
// revenue day.
func GenerateInsights(t *models.Table) ([]models.Insight, error) {
	if t.Len() == 0 {
		return nil, errors.EmptyDataset("cannot derive insights from an empty dataset")
	}

	return []models.Insight{
		growthInsight(MonthlyRevenueSeries(t)),
		bestProductInsight(ProductPerformanceOf(t)),
		bestDayInsight(DailyRevenueSeries(t)),
	}, nil
}

func growthInsight(series models.MonthlyRevenue) models.Insight {
	first, last := series[0].Revenue, series[len(series)-1].Revenue

	if first.IsZero() {
		return models.Insight{
			Kind:    models.InsightGrowth,
			Title:   "Revenue Growth",
			Message: "Revenue Growth: undefined (first month had no revenue)",
			Value:   "undefined",
		}
	}

	growth := last.Sub(first).Div(first).Mul(decimal.NewFromInt(100))
	value := growth.StringFixed(1) + "%"
	return models.Insight{
		Kind:    models.InsightGrowth,
		Title:   "Revenue Growth",
		Message: "Revenue Growth: " + value,
		Value:   value,
	}
}

func bestProductInsight(perf []models.ProductPerformance) models.Insight {
	best := perf[0]
	for _, p := range perf[1:] {
		if p.Quantity > best.Quantity {
			best = p
		}
	}

	return models.Insight{
		Kind:    models.InsightBestProduct,
		Title:   "Best Selling Product",
		Message: fmt.Sprintf("Best Selling Product: %s (%d units)", best.Product, best.Quantity),
		Value:   best.Product,
	}
}

func bestDayInsight(daily []models.DailyRevenue) models.Insight {
	best := daily[0]
	for _, d := range daily[1:] {
		if d.Revenue.GreaterThan(best.Revenue) {
			best = d
		}
	}

	day := best.Date.Format("2006-01-02")
	return models.Insight{
		Kind:    models.InsightBestDay,
		Title:   "Best Revenue Day",
		Message: fmt.Sprintf("Best Revenue Day: %s (%s)", day, best.Revenue.StringFixed(2)),
		Value:   day,
	}
}
