package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type MonthRevenue struct {
	Month   MonthKey        `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// MonthlyRevenue is ordered by month, ascending, one entry per month.
type MonthlyRevenue []MonthRevenue

// Values returns the revenue column as floats in series order.
func (s MonthlyRevenue) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Revenue.InexactFloat64()
	}
	return out
}

func (s MonthlyRevenue) Last() (MonthRevenue, bool) {
	if len(s) == 0 {
		return MonthRevenue{}, false
	}
	return s[len(s)-1], true
}

type ProductQuantity struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type DailyRevenue struct {
	Date    time.Time       `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
}

type ProductPerformance struct {
	Product  string          `json:"product"`
	Revenue  decimal.Decimal `json:"revenue"`
	Quantity int             `json:"quantity"`
}

type MonthlyProductQuantity struct {
	Month    MonthKey `json:"month"`
	Product  string   `json:"product"`
	Quantity int      `json:"quantity"`
}

type Summary struct {
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AvgMonthlyRevenue decimal.Decimal `json:"avg_monthly_revenue"`
	Months            int             `json:"months"`
	Rows              int             `json:"rows"`
	GrowthRate        string          `json:"growth_rate"`
}

// Forecast is the predicted revenue for the month after the last observed one.
type Forecast struct {
	Month     MonthKey         `json:"month"`
	Predicted decimal.Decimal  `json:"predicted_revenue"`
	Lower     *decimal.Decimal `json:"lower_bound,omitempty"`
	Upper     *decimal.Decimal `json:"upper_bound,omitempty"`
}

func (f Forecast) HasInterval() bool {
	return f.Lower != nil && f.Upper != nil
}

type InsightKind string

const (
	InsightGrowth      InsightKind = "revenue_growth"
	InsightBestProduct InsightKind = "best_product"
	InsightBestDay     InsightKind = "best_day"
)

type Insight struct {
	Kind    InsightKind `json:"kind"`
	Title   string      `json:"title"`
	Message string      `json:"message"`
	Value   string      `json:"value"`
}
