package services

import (
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sales-insights/internal/models"
)

const DefaultTopProducts = 5

// TopProducts returns the n products with the largest total quantity. Ties
// are ordered by product name.
func TopProducts(t *models.Table, n int) []models.ProductQuantity {
	if n <= 0 {
		n = DefaultTopProducts
	}

	perf := ProductPerformanceOf(t)
	result := make([]models.ProductQuantity, len(perf))
	for i, p := range perf {
		result[i] = models.ProductQuantity{Product: p.Product, Quantity: p.Quantity}
	}

	slices.SortStableFunc(result, func(a, b models.ProductQuantity) int {
		return b.Quantity - a.Quantity
	})

	if len(result) > n {
		result = result[:n]
	}
	return result
}

// MonthlyRevenueSeries sums revenue per calendar month, oldest first.
func MonthlyRevenueSeries(t *models.Table) models.MonthlyRevenue {
	groups := make(map[models.MonthKey]decimal.Decimal)
	t.Each(func(tx models.Transaction) {
		groups[tx.Month] = groups[tx.Month].Add(tx.Revenue)
	})

	result := make(models.MonthlyRevenue, 0, len(groups))
	for month, revenue := range groups {
		result = append(result, models.MonthRevenue{Month: month, Revenue: revenue})
	}
	slices.SortFunc(result, func(a, b models.MonthRevenue) int {
		return a.Month.Index() - b.Month.Index()
	})
	return result
}

// TotalSummary returns total revenue, the mean of the monthly sums and the
// growth of the total over that mean. The mean is over distinct months
// present, not over rows.
func TotalSummary(t *models.Table) models.Summary {
	total := decimal.Zero
	t.Each(func(tx models.Transaction) {
		total = total.Add(tx.Revenue)
	})

	series := MonthlyRevenueSeries(t)
	avg := decimal.Zero
	if len(series) > 0 {
		sum := decimal.Zero
		for _, p := range series {
			sum = sum.Add(p.Revenue)
		}
		avg = sum.Div(decimal.NewFromInt(int64(len(series))))
	}

	return models.Summary{
		TotalRevenue:      total,
		AvgMonthlyRevenue: avg.Round(2),
		Months:            len(series),
		Rows:              t.Len(),
		GrowthRate:        growthRate(total, avg),
	}
}

// growthRate is total revenue relative to the average month, in percent.
func growthRate(total, avg decimal.Decimal) string {
	if avg.IsZero() {
		return "undefined"
	}
	return total.Sub(avg).Div(avg).Mul(decimal.NewFromInt(100)).StringFixed(1) + "%"
}

// DailyRevenueSeries sums revenue per calendar date, oldest first.
func DailyRevenueSeries(t *models.Table) []models.DailyRevenue {
	groups := make(map[time.Time]decimal.Decimal)
	t.Each(func(tx models.Transaction) {
		groups[tx.Date] = groups[tx.Date].Add(tx.Revenue)
	})

	result := make([]models.DailyRevenue, 0, len(groups))
	for date, revenue := range groups {
		result = append(result, models.DailyRevenue{Date: date, Revenue: revenue})
	}
	slices.SortFunc(result, func(a, b models.DailyRevenue) int {
		return a.Date.Compare(b.Date)
	})
	return result
}

// ProductPerformanceOf returns revenue and quantity per product, ordered by
// product name.
func ProductPerformanceOf(t *models.Table) []models.ProductPerformance {
	index := make(map[string]int)
	var result []models.ProductPerformance

	t.Each(func(tx models.Transaction) {
		i, ok := index[tx.Product]
		if !ok {
			i = len(result)
			index[tx.Product] = i
			result = append(result, models.ProductPerformance{Product: tx.Product, Revenue: decimal.Zero})
		}
		result[i].Revenue = result[i].Revenue.Add(tx.Revenue)
		result[i].Quantity += tx.Quantity
	})

	if result == nil {
		return []models.ProductPerformance{}
	}
	slices.SortFunc(result, func(a, b models.ProductPerformance) int {
		return strings.Compare(a.Product, b.Product)
	})
	return result
}

// MonthlyQuantityByProduct sums quantity per (month, product), ordered by
// month then by product name.
func MonthlyQuantityByProduct(t *models.Table) []models.MonthlyProductQuantity {
	type key struct {
		month   models.MonthKey
		product string
	}

	groups := make(map[key]int)
	t.Each(func(tx models.Transaction) {
		groups[key{tx.Month, tx.Product}] += tx.Quantity
	})

	result := make([]models.MonthlyProductQuantity, 0, len(groups))
	for k, qty := range groups {
		result = append(result, models.MonthlyProductQuantity{Month: k.month, Product: k.product, Quantity: qty})
	}
	slices.SortFunc(result, func(a, b models.MonthlyProductQuantity) int {
		if d := a.Month.Index() - b.Month.Index(); d != 0 {
			return d
		}
		return strings.Compare(a.Product, b.Product)
	})
	return result
}
