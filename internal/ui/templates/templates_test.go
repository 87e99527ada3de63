package templates

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"sales-insights/internal/models"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var b strings.Builder
	if err := c.Render(context.Background(), &b); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	return b.String()
}

func TestDashboard(t *testing.T) {
	empty := render(t, Dashboard(DashboardView{}))
	if !strings.Contains(empty, `action="/upload"`) {
		t.Error("upload form missing")
	}
	if strings.Contains(empty, `id="overview"`) {
		t.Error("sections must not render before a file is loaded")
	}

	loaded := render(t, Dashboard(DashboardView{
		Loaded:     true,
		Filename:   "q1<sales>.csv",
		Summary:    models.Summary{TotalRevenue: decimal.RequireFromString("12345.6"), Months: 3, Rows: 40, GrowthRate: "200.0%"},
		Charts:     []string{"revenue_trend"},
		Narratives: []NarrativeSlot{{Category: "summary", Title: "Executive Summary"}},
		Flash:      "upload failed",
	}))

	for _, want := range []string{
		"12,345.60",
		"Growth Rate<strong>200.0%</strong>",
		"Transactions<strong>40</strong>",
		`id="overview"`,
		`src="/charts/revenue_trend.png"`,
		`id="narrative-summary"`,
		"q1&lt;sales&gt;.csv",
		"upload failed",
	} {
		if !strings.Contains(loaded, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestOverviewSection(t *testing.T) {
	html := render(t, Overview(OverviewView{
		Summary:     models.Summary{TotalRevenue: decimal.RequireFromString("805"), GrowthRate: "400.0%"},
		TopProducts: []models.ProductQuantity{{Product: "Widget & Co", Quantity: 12}},
		Monthly:     models.MonthlyRevenue{{Month: models.MonthKey{Year: 2024, Month: time.May}, Revenue: decimal.RequireFromString("210")}},
	}))

	for _, want := range []string{
		`<section class="card" id="overview">`,
		"<td>Widget &amp; Co</td><td>12</td>",
		"<td>2024-05</td><td>210.00</td>",
		"400.0%",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("overview missing %q:\n%s", want, html)
		}
	}

	empty := render(t, Overview(OverviewView{}))
	if !strings.Contains(empty, "No products.") || !strings.Contains(empty, "No revenue recorded.") {
		t.Errorf("empty overview: %s", empty)
	}
}

func TestForecastSection(t *testing.T) {
	lower, upper := decimal.RequireFromString("90"), decimal.RequireFromString("230")
	month := models.MonthKey{Year: 2024, Month: time.April}

	html := render(t, Forecast(ForecastView{
		Point:      &models.Forecast{Month: month, Predicted: decimal.RequireFromString("160")},
		Confidence: &models.Forecast{Month: month, Predicted: decimal.RequireFromString("160"), Lower: &lower, Upper: &upper},
	}))
	if !strings.Contains(html, "2024-04: <strong>160.00</strong>") || !strings.Contains(html, "90.00 to 230.00") {
		t.Errorf("unexpected forecast html: %s", html)
	}

	html = render(t, Forecast(ForecastView{PointErr: "not enough months", ConfidenceErr: "not enough months"}))
	if strings.Count(html, "not enough months") != 2 {
		t.Errorf("errors not shown: %s", html)
	}
}

func TestInsightsAndNarrative(t *testing.T) {
	html := render(t, Insights(InsightsView{Insights: []models.Insight{{Kind: models.InsightGrowth, Message: "Revenue Growth: 100.0%"}}}))
	if !strings.Contains(html, "Revenue Growth: 100.0%") {
		t.Errorf("insight missing: %s", html)
	}

	html = render(t, Narrative(NarrativeView{Category: "summary", Title: "Executive Summary", Err: "quota"}))
	if !strings.Contains(html, "Narrative unavailable: quota") || !strings.Contains(html, `id="narrative-summary"`) {
		t.Errorf("narrative error card: %s", html)
	}

	html = render(t, Narrative(NarrativeView{Category: "summary", Title: "Executive Summary", Text: "<b>grew</b>"}))
	if strings.Contains(html, "<b>grew</b>") {
		t.Error("model output must be escaped")
	}
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := ErrorCard("x", "t", "m").Render(ctx, &strings.Builder{}); err == nil {
		t.Error("expected context error")
	}
}
