package narrative

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"sales-insights/internal/models"
	"sales-insights/internal/services"
)

type Category string

const (
	CategorySummary                Category = "summary"
	CategoryProductRecommendations Category = "product_recommendations"
	CategorySeasonalInsights       Category = "seasonal_insights"
	CategoryCustomerSegments       Category = "customer_segments"
)

// Categories in report order.
var Categories = []Category{
	CategorySummary,
	CategoryProductRecommendations,
	CategorySeasonalInsights,
	CategoryCustomerSegments,
}

func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

func (c Category) Title() string {
	switch c {
	case CategorySummary:
		return "Executive Summary"
	case CategoryProductRecommendations:
		return "Product Recommendations"
	case CategorySeasonalInsights:
		return "Seasonal Insights"
	case CategoryCustomerSegments:
		return "Customer Segments"
	default:
		return string(c)
	}
}

// BuildPrompt embeds the aggregates relevant to c as plain text.
func BuildPrompt(c Category, t *models.Table) (string, error) {
	switch c {
	case CategorySummary:
		return summaryPrompt(t), nil
	case CategoryProductRecommendations:
		return productPrompt(t), nil
	case CategorySeasonalInsights:
		return seasonalPrompt(t), nil
	case CategoryCustomerSegments:
		return segmentPrompt(t), nil
	default:
		return "", fmt.Errorf("unknown narrative category %q", c)
	}
}

func summaryPrompt(t *models.Table) string {
	return fmt.Sprintf(`Act as a professional business analyst.

Analyze the monthly revenue data and top-selling products provided below:

Monthly Revenue:
%s
Top-Selling Products (units sold):
%s
Your goal is to generate a sharp and engaging 4-sentence executive summary. Highlight:
- Revenue growth or decline trends
- Best-performing products
- Any seasonality or monthly patterns
- A final insight that can help guide future sales strategy

Keep the tone confident, analytical, and suitable for a business review report.
`, dumpMonthly(services.MonthlyRevenueSeries(t)), dumpTopProducts(services.TopProducts(t, services.DefaultTopProducts)))
}

func productPrompt(t *models.Table) string {
	var b strings.Builder
	for _, p := range services.ProductPerformanceOf(t) {
		fmt.Fprintf(&b, "- %s: revenue %s, units %d, revenue per unit %s\n",
			p.Product, p.Revenue.StringFixed(2), p.Quantity, perUnit(p.Revenue, p.Quantity))
	}

	return fmt.Sprintf(`Act as a retail merchandising strategist.

Product performance for the period:
%s
Recommend 3 to 5 concrete actions: which products to promote, bundle, reprice or
de-emphasise, and why. Reference the numbers above. Answer as a short bulleted list.
`, b.String())
}

func seasonalPrompt(t *models.Table) string {
	var b strings.Builder
	for _, q := range services.MonthlyQuantityByProduct(t) {
		fmt.Fprintf(&b, "- %s %s: %d units\n", q.Month, q.Product, q.Quantity)
	}

	return fmt.Sprintf(`Act as a sales analyst focused on seasonality.

Monthly Revenue:
%s
Monthly units by product:
%s
Identify seasonal patterns, peak and slow months, and products whose demand shifts
across the year. Suggest how inventory and promotions should follow these patterns.
Keep it to one or two short paragraphs.
`, dumpMonthly(services.MonthlyRevenueSeries(t)), b.String())
}

func segmentPrompt(t *models.Table) string {
	type orderStats struct {
		orders int
		units  int
	}
	stats := make(map[string]*orderStats)
	t.Each(func(tx models.Transaction) {
		s, ok := stats[tx.Product]
		if !ok {
			s = &orderStats{}
			stats[tx.Product] = s
		}
		s.orders++
		s.units += tx.Quantity
	})

	var b strings.Builder
	for _, p := range services.ProductPerformanceOf(t) {
		s := stats[p.Product]
		fmt.Fprintf(&b, "- %s: %d orders, avg %.1f units/order, avg order value %s\n",
			p.Product, s.orders, float64(s.units)/float64(s.orders), perUnit(p.Revenue, s.orders))
	}

	return fmt.Sprintf(`Act as a customer insights analyst.

There is no customer identifier in this data, so infer likely customer segments from
purchase behaviour per product:
%s
Describe 3 plausible customer segments, what each one buys, and one marketing action
per segment. Be explicit that the segments are inferred.
`, b.String())
}

func dumpMonthly(series models.MonthlyRevenue) string {
	var b strings.Builder
	for _, p := range series {
		fmt.Fprintf(&b, "- %s: %s\n", p.Month, p.Revenue.StringFixed(2))
	}
	return b.String()
}

func dumpTopProducts(top []models.ProductQuantity) string {
	var b strings.Builder
	for _, p := range top {
		fmt.Fprintf(&b, "- %s: %d\n", p.Product, p.Quantity)
	}
	return b.String()
}

func perUnit(revenue decimal.Decimal, n int) string {
	if n == 0 {
		return "n/a"
	}
	return revenue.Div(decimal.NewFromInt(int64(n))).StringFixed(2)
}
