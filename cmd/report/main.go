// Command report analyses a sales CSV offline: it prints the aggregates as
// tables, optionally writes the chart PNGs and narrative sections, and saves
// the plain-text report.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/sync/errgroup"

	"sales-insights/internal/config"
	"sales-insights/internal/models"
	"sales-insights/internal/narrative"
	"sales-insights/internal/observability"
	"sales-insights/internal/render"
	"sales-insights/internal/services"
)

type options struct {
	File       string
	Top        int
	ChartsDir  string
	Narratives bool
	Out        string
	Seed       uint64
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	var opts options
	flag.StringVar(&opts.File, "file", "", "sales CSV to analyse (required)")
	flag.IntVar(&opts.Top, "top", cfg.Forecast.TopProductsLimit, "number of top products to list")
	flag.StringVar(&opts.ChartsDir, "charts", "", "directory to write chart PNGs into")
	flag.BoolVar(&opts.Narratives, "narrative", false, "generate narrative sections (needs NARRATIVE_API_KEY)")
	flag.StringVar(&opts.Out, "out", "", "write the plain-text report to this file")
	flag.Uint64Var(&opts.Seed, "seed", cfg.Forecast.Seed, "seed for the forecast hold-out split")
	flag.Parse()

	if opts.File == "" {
		fmt.Fprintln(os.Stderr, "usage: report -file sales.csv [-top 5] [-charts dir] [-narrative] [-out report.txt]")
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg.Logger, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var narrator *narrative.Narrator
	if opts.Narratives {
		narrator = narrative.NewFactory(narrative.Config{
			APIKey:  cfg.Narrative.APIKey,
			Model:   cfg.Narrative.Model,
			BaseURL: cfg.Narrative.BaseURL,
			Timeout: cfg.Narrative.Timeout,
		}, &http.Client{}, logger).Narrator("")
	}

	if err := run(ctx, opts, narrator, os.Stdout, logger); err != nil {
		logger.Error("report failed", "error", err)
		os.Exit(1)
	}
}

// run performs the whole report. narrator may be nil, in which case no
// narrative sections are produced.
func run(ctx context.Context, opts options, narrator *narrative.Narrator, stdout io.Writer, logger *slog.Logger) error {
	table, err := services.LoadTableFile(ctx, opts.File)
	if err != nil {
		return err
	}
	logger.Info("sales log loaded", "file", opts.File, "rows", table.Len())

	analytics := services.NewAnalytics(services.AnalyticsConfig{ForecastSeed: opts.Seed, TopProducts: opts.Top})
	snap := analytics.Snapshot(table)

	printSummary(stdout, snap.Summary)
	printTopProducts(stdout, snap.TopProducts)
	printMonthly(stdout, snap.Monthly)
	printForecast(stdout, snap)

	in := services.ReportInput{Summary: snap.Summary}
	switch {
	case snap.Confidence != nil:
		in.Forecast = snap.Confidence
	case snap.Forecast != nil:
		in.Forecast = snap.Forecast
	default:
		in.ForecastErr = snap.ForecastErr
	}

	if snap.InsightsErr != nil {
		fmt.Fprintf(stdout, "\nInsights unavailable: %v\n", snap.InsightsErr)
	} else {
		printInsights(stdout, snap.Insights)
	}

	if opts.ChartsDir != "" {
		if err := writeCharts(ctx, opts.ChartsDir, table, logger); err != nil {
			return err
		}
	}

	if narrator != nil {
		for _, n := range narrator.GenerateAll(ctx, table) {
			body := n.Text
			if n.Err != nil {
				body = "Unavailable: " + n.Err.Error()
			}
			in.Sections = append(in.Sections, services.ReportSection{Title: n.Title, Body: body})
		}
	}

	report := services.BuildReport(in)
	if opts.Out == "" {
		fmt.Fprintf(stdout, "\n%s", report)
		return nil
	}
	if err := os.WriteFile(opts.Out, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	logger.Info("report written", "path", opts.Out)
	return nil
}

func newTable(w io.Writer, title string, header ...string) *tablewriter.Table {
	fmt.Fprintf(w, "\n=== %s ===\n", title)
	t := tablewriter.NewWriter(w)
	t.SetHeader(header)
	t.SetAutoFormatHeaders(false)
	return t
}

func printSummary(w io.Writer, s models.Summary) {
	t := newTable(w, "Summary", "Metric", "Value")
	t.Append([]string{"Total Revenue", services.FormatAmount(s.TotalRevenue)})
	t.Append([]string{"Avg Monthly Revenue", services.FormatAmount(s.AvgMonthlyRevenue)})
	t.Append([]string{"Growth Rate", s.GrowthRate})
	t.Append([]string{"Months", strconv.Itoa(s.Months)})
	t.Append([]string{"Rows", strconv.Itoa(s.Rows)})
	t.Render()
}

func printTopProducts(w io.Writer, top []models.ProductQuantity) {
	t := newTable(w, "Top Products", "#", "Product", "Units")
	for i, p := range top {
		t.Append([]string{strconv.Itoa(i + 1), p.Product, strconv.Itoa(p.Quantity)})
	}
	t.Render()
}

func printMonthly(w io.Writer, series models.MonthlyRevenue) {
	t := newTable(w, "Monthly Revenue", "Month", "Revenue")
	t.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, m := range series {
		t.Append([]string{m.Month.String(), services.FormatAmount(m.Revenue)})
	}
	t.Render()
}

func printForecast(w io.Writer, snap services.Snapshot) {
	t := newTable(w, "Forecast", "Model", "Month", "Predicted", "Lower", "Upper")
	if f := snap.Forecast; f != nil {
		t.Append([]string{"trend", f.Month.String(), services.FormatAmount(f.Predicted), "-", "-"})
	} else {
		t.Append([]string{"trend", "-", snap.ForecastErr.Error(), "-", "-"})
	}
	if f := snap.Confidence; f != nil {
		t.Append([]string{"trend 95%", f.Month.String(), services.FormatAmount(f.Predicted),
			services.FormatAmount(*f.Lower), services.FormatAmount(*f.Upper)})
	} else {
		t.Append([]string{"trend 95%", "-", snap.ConfidenceErr.Error(), "-", "-"})
	}
	t.Render()
}

func printInsights(w io.Writer, insights []models.Insight) {
	t := newTable(w, "Insights", "Insight", "Value")
	for _, in := range insights {
		t.Append([]string{in.Title, in.Value})
	}
	t.Render()
}

// writeCharts renders every chart into dir concurrently. Charts without
// enough data are skipped with a warning.
func writeCharts(ctx context.Context, dir string, table *models.Table, logger *slog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create charts dir: %w", err)
	}

	renderer := render.NewPNGRenderer(0, 0)

	g, ctx := errgroup.WithContext(ctx)
	for _, c := range services.BuildCharts(table) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := renderer.Bytes(c)
			if err != nil {
				logger.Warn("chart skipped", "chart", c.Name, "error", err)
				return nil
			}
			path := filepath.Join(dir, c.Name+".png")
			if err := os.WriteFile(path, img, 0o644); err != nil {
				return fmt.Errorf("write chart %s: %w", c.Name, err)
			}
			logger.Debug("chart written", "path", path, "bytes", len(img))
			return nil
		})
	}
	return g.Wait()
}
