package services

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"sales-insights/internal/models"
)

type ReportSection struct {
	Title string
	Body  string
}

// ReportInput carries already computed sections. A failed forecast is
// reported in place rather than failing the whole report.
type ReportInput struct {
	Summary     models.Summary
	Forecast    *models.Forecast
	ForecastErr error
	Sections    []ReportSection
}

// BuildReport renders the plain-text export: narrative sections first, key
// metrics last, separated by blank lines.
func BuildReport(in ReportInput) string {
	var parts []string
	for _, s := range in.Sections {
		parts = append(parts, s.Title+"\n"+strings.TrimSpace(s.Body))
	}

	forecast := "unavailable"
	if in.ForecastErr != nil {
		forecast = "unavailable (" + in.ForecastErr.Error() + ")"
	} else if in.Forecast != nil {
		forecast = FormatAmount(in.Forecast.Predicted)
		if in.Forecast.HasInterval() {
			forecast += fmt.Sprintf(" (95%% CI %s to %s)", FormatAmount(*in.Forecast.Lower), FormatAmount(*in.Forecast.Upper))
		}
	}

	metrics := fmt.Sprintf("Total Revenue: %s\nAvg Monthly: %s\nForecast: %s",
		FormatAmount(in.Summary.TotalRevenue),
		FormatAmount(in.Summary.AvgMonthlyRevenue),
		forecast,
	)
	parts = append(parts, "Key Metrics\n"+metrics)

	return strings.Join(parts, "\n\n") + "\n"
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders d with two decimals and comma thousands separators.
func FormatAmount(d decimal.Decimal) string {
	return amountPrinter.Sprintf("%.2f", d.Round(2).InexactFloat64())
}
