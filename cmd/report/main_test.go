package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sales-insights/internal/narrative"
)

const salesCSV = `Date,Product,Quantity,Revenue
2024-01-03,Widget,2,100.00
2024-01-17,Gadget,1,40.00
2024-02-05,Widget,3,150.00
2024-03-11,Gizmo,1,60.00
2024-04-02,Widget,4,200.00
2024-05-20,Gadget,5,220.00
`

type cannedGenerator struct {
	err error
}

func (g cannedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return "All good.", nil
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_PrintsTablesAndReport(t *testing.T) {
	var out bytes.Buffer
	opts := options{File: writeCSV(t, salesCSV), Top: 2, Seed: 42}

	if err := run(context.Background(), opts, nil, &out, quietLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"=== Summary ===", "770.00", "Growth Rate", "400.0%",
		"=== Top Products ===", "Widget",
		"=== Monthly Revenue ===", "2024-05",
		"=== Forecast ===", "2024-06",
		"=== Insights ===", "Best Selling Product",
		"Key Metrics",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output should contain %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Gizmo") {
		t.Error("top 2 should not list the third product")
	}
}

func TestRun_WritesChartsAndReportFile(t *testing.T) {
	dir := t.TempDir()
	opts := options{
		File:      writeCSV(t, salesCSV),
		Top:       5,
		ChartsDir: filepath.Join(dir, "charts"),
		Out:       filepath.Join(dir, "report.txt"),
		Seed:      42,
	}
	narrator := narrative.NewNarrator(cannedGenerator{}, time.Second, quietLogger())

	if err := run(context.Background(), opts, narrator, io.Discard, quietLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}

	entries, err := os.ReadDir(opts.ChartsDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 chart files, got %d", len(entries))
	}

	report, err := os.ReadFile(opts.Out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(report), "Executive Summary\nAll good.") {
		t.Errorf("report should start with the narrative sections:\n%s", report)
	}
}

func TestRun_NarrativeFailureStillWritesReport(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.txt")
	opts := options{File: writeCSV(t, salesCSV), Top: 5, Out: out, Seed: 42}
	narrator := narrative.NewNarrator(cannedGenerator{err: errors.New("quota")}, time.Second, quietLogger())

	if err := run(context.Background(), opts, narrator, io.Discard, quietLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}

	report, _ := os.ReadFile(out)
	if !strings.Contains(string(report), "Unavailable: ") || !strings.Contains(string(report), "Key Metrics") {
		t.Errorf("unexpected report:\n%s", report)
	}
}

func TestRun_SingleMonth(t *testing.T) {
	var out bytes.Buffer
	opts := options{File: writeCSV(t, "Date,Product,Quantity,Revenue\n2024-01-01,Widget,1,5\n"), Top: 5}

	if err := run(context.Background(), opts, nil, &out, quietLogger()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "Forecast: unavailable") {
		t.Errorf("report should mark the forecast unavailable:\n%s", out.String())
	}
}

func TestRun_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.csv")},
		{"malformed", writeCSV(t, "Date,Product\n2024-01-01,Widget\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(context.Background(), options{File: tt.path, Top: 5}, nil, io.Discard, quietLogger())
			if err == nil {
				t.Error("expected an error")
			}
		})
	}
}
