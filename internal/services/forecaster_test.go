package services

import (
	"slices"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

func monthly(values ...string) models.MonthlyRevenue {
	series := make(models.MonthlyRevenue, len(values))
	m := models.MonthKey{Year: 2024, Month: time.January}
	for i, v := range values {
		series[i] = models.MonthRevenue{Month: m, Revenue: decimal.RequireFromString(v)}
		m = m.Next()
	}
	return series
}

func TestForecastNext(t *testing.T) {
	tests := []struct {
		name      string
		series    models.MonthlyRevenue
		want      string
		wantMonth string
	}{
		{"linear growth", monthly("100", "120", "140"), "160.00", "2024-04"},
		{"two points", monthly("100", "200"), "300.00", "2024-03"},
		{"flat", monthly("50", "50", "50", "50"), "50.00", "2024-05"},
		{"declining", monthly("300", "200", "100"), "0.00", "2024-04"},
		{"noisy", monthly("10", "30", "20", "40"), "45.00", "2024-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ForecastNext(tt.series)
			if err != nil {
				t.Fatalf("ForecastNext() error = %v", err)
			}
			if got := f.Predicted.StringFixed(2); got != tt.want {
				t.Errorf("Predicted = %s, want %s", got, tt.want)
			}
			if f.Month.String() != tt.wantMonth {
				t.Errorf("Month = %s, want %s", f.Month, tt.wantMonth)
			}
			if f.HasInterval() {
				t.Error("point forecast should not carry an interval")
			}
		})
	}
}

func TestForecastNext_InsufficientData(t *testing.T) {
	for _, series := range []models.MonthlyRevenue{nil, monthly("100")} {
		_, err := ForecastNext(series)
		if !errors.HasCode(err, errors.CodeInsufficientData) {
			t.Errorf("len %d: got %v, want INSUFFICIENT_DATA", len(series), err)
		}
	}
}

func TestForecastNext_YearRollover(t *testing.T) {
	series := models.MonthlyRevenue{
		{Month: models.MonthKey{Year: 2023, Month: time.November}, Revenue: decimal.NewFromInt(10)},
		{Month: models.MonthKey{Year: 2023, Month: time.December}, Revenue: decimal.NewFromInt(20)},
	}
	f, err := ForecastNext(series)
	if err != nil {
		t.Fatal(err)
	}
	if f.Month.String() != "2024-01" {
		t.Errorf("Month = %s, want 2024-01", f.Month)
	}
}

func TestForecastNextWithConfidence(t *testing.T) {
	series := monthly("120", "95", "160", "140", "210", "180", "230", "205", "260", "240")

	f, err := ForecastNextWithConfidence(series, DefaultForecastSeed)
	if err != nil {
		t.Fatalf("ForecastNextWithConfidence() error = %v", err)
	}
	if !f.HasInterval() {
		t.Fatal("expected an interval")
	}
	if f.Lower.GreaterThan(f.Predicted) || f.Predicted.GreaterThan(*f.Upper) {
		t.Errorf("bounds not ordered: %s <= %s <= %s", f.Lower, f.Predicted, f.Upper)
	}

	again, err := ForecastNextWithConfidence(series, DefaultForecastSeed)
	if err != nil {
		t.Fatal(err)
	}
	if !again.Predicted.Equal(f.Predicted) || !again.Lower.Equal(*f.Lower) || !again.Upper.Equal(*f.Upper) {
		t.Errorf("same seed gave different results: %+v vs %+v", f, again)
	}
}

func TestForecastNextWithConfidence_PerfectLine(t *testing.T) {
	f, err := ForecastNextWithConfidence(monthly("100", "200", "300", "400", "500"), 7)
	if err != nil {
		t.Fatal(err)
	}
	if f.Predicted.StringFixed(2) != "600.00" {
		t.Errorf("Predicted = %s", f.Predicted)
	}
	if !f.Lower.Equal(f.Predicted) || !f.Upper.Equal(f.Predicted) {
		t.Errorf("zero residuals should collapse the band, got %s..%s", f.Lower, f.Upper)
	}
}

func TestForecastNextWithConfidence_InsufficientData(t *testing.T) {
	// Two months leave a single training point once one is held out.
	for _, series := range []models.MonthlyRevenue{monthly("100"), monthly("100", "200")} {
		_, err := ForecastNextWithConfidence(series, DefaultForecastSeed)
		if !errors.HasCode(err, errors.CodeInsufficientData) {
			t.Errorf("len %d: got %v, want INSUFFICIENT_DATA", len(series), err)
		}
	}

	if _, err := ForecastNextWithConfidence(monthly("100", "200", "300"), DefaultForecastSeed); err != nil {
		t.Errorf("three months should be enough: %v", err)
	}
}

func TestHoldoutSplit(t *testing.T) {
	tests := []struct {
		n, wantTest int
	}{
		{2, 1}, {5, 1}, {6, 2}, {10, 2}, {11, 3}, {24, 5},
	}

	for _, tt := range tests {
		train, test := holdoutSplit(tt.n, DefaultForecastSeed)
		if len(test) != tt.wantTest || len(train) != tt.n-tt.wantTest {
			t.Errorf("n=%d: train=%d test=%d, want test=%d", tt.n, len(train), len(test), tt.wantTest)
		}

		all := append(slices.Clone(train), test...)
		slices.Sort(all)
		for i, v := range all {
			if v != i {
				t.Fatalf("n=%d: split is not a partition of 0..n-1: %v", tt.n, all)
			}
		}

		train2, test2 := holdoutSplit(tt.n, DefaultForecastSeed)
		if !slices.Equal(train, train2) || !slices.Equal(test, test2) {
			t.Errorf("n=%d: split is not deterministic", tt.n)
		}
	}
}

func BenchmarkForecastNextWithConfidence(b *testing.B) {
	series := MonthlyRevenueSeries(benchTable(10000))

	b.ResetTimer()
	for b.Loop() {
		_, _ = ForecastNextWithConfidence(series, DefaultForecastSeed)
	}
}
