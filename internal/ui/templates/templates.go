// Package templates renders the dashboard page and the fragments that the
// SSE endpoints patch into it. Markup lives in the .templ files; run
// `templ generate` after editing them.
package templates

import (
	"github.com/shopspring/decimal"

	"sales-insights/internal/models"
	"sales-insights/internal/services"
)

type NarrativeSlot struct {
	Category string
	Title    string
}

type DashboardView struct {
	Loaded       bool
	Filename     string
	Summary      models.Summary
	Charts       []string
	Narratives   []NarrativeSlot
	HasServerKey bool
	Flash        string
}

type OverviewView struct {
	Summary     models.Summary
	TopProducts []models.ProductQuantity
	Monthly     models.MonthlyRevenue
}

// ForecastView carries the point forecast and the interval forecast. Either
// may be missing, in which case its Err text is shown instead.
type ForecastView struct {
	Point         *models.Forecast
	PointErr      string
	Confidence    *models.Forecast
	ConfidenceErr string
}

type InsightsView struct {
	Insights []models.Insight
	Err      string
}

type NarrativeView struct {
	Category string
	Title    string
	Text     string
	Err      string
}

func amount(d decimal.Decimal) string {
	return services.FormatAmount(d)
}

func amountPtr(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return services.FormatAmount(*d)
}

func keyPlaceholder(hasServerKey bool) string {
	if hasServerKey {
		return "optional, server key configured"
	}
	return "required for AI narratives"
}

func chartSrc(name string) string {
	return "/charts/" + name + ".png"
}

func narrativeAction(category string) string {
	return "@get('/sse/narrative/" + category + "')"
}
