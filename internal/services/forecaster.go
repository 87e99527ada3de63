package services

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"github.com/wcharczuk/go-chart/v2/matrix"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
)

const (
	DefaultForecastSeed uint64 = 42

	// z-score for a two-sided 95% normal interval.
	z95 = 1.96
)

type trendLine struct {
	intercept float64
	slope     float64
}

func (l trendLine) at(x float64) float64 {
	return l.intercept + l.slope*x
}

// ForecastNext fits revenue = a*index + b over the whole series, where index
// is the zero-based month ordinal, and evaluates it at the next month.
func ForecastNext(series models.MonthlyRevenue) (models.Forecast, error) {
	if len(series) < 2 {
		return models.Forecast{}, errors.InsufficientData("forecast needs at least 2 months of revenue, got %d", len(series))
	}

	xs, ys := ordinals(series)
	line, err := fitTrendLine(xs, ys)
	if err != nil {
		return models.Forecast{}, err
	}

	predicted, err := round2(line.at(float64(len(series))))
	if err != nil {
		return models.Forecast{}, err
	}

	return models.Forecast{
		Month:     nextMonth(series),
		Predicted: predicted,
	}, nil
}

// ForecastNextWithConfidence fits the trend on a seeded 80/20 split of the
// series and derives a ±1.96·RMSE band from the held-out residuals. The
// held-out months are chosen by permutation, not chronologically.
func ForecastNextWithConfidence(series models.MonthlyRevenue, seed uint64) (models.Forecast, error) {
	if len(series) < 2 {
		return models.Forecast{}, errors.InsufficientData("forecast needs at least 2 months of revenue, got %d", len(series))
	}

	xs, ys := ordinals(series)
	train, test := holdoutSplit(len(series), seed)
	if len(train) < 2 {
		return models.Forecast{}, errors.InsufficientData(
			"confidence interval needs at least 2 training months after holding out %d, got %d", len(test), len(train))
	}

	line, err := fitTrendLine(pick(xs, train), pick(ys, train))
	if err != nil {
		return models.Forecast{}, err
	}

	point := line.at(float64(len(series)))

	var sse float64
	for _, i := range test {
		residual := ys[i] - line.at(xs[i])
		sse += residual * residual
	}
	halfWidth := z95 * math.Sqrt(sse/float64(len(test)))

	predicted, err := round2(point)
	if err != nil {
		return models.Forecast{}, err
	}
	lower, err := round2(point - halfWidth)
	if err != nil {
		return models.Forecast{}, err
	}
	upper, err := round2(point + halfWidth)
	if err != nil {
		return models.Forecast{}, err
	}

	return models.Forecast{
		Month:     nextMonth(series),
		Predicted: predicted,
		Lower:     &lower,
		Upper:     &upper,
	}, nil
}

// holdoutSplit returns training and held-out indices. ceil(n/5) indices are
// held out; the permutation depends only on n and seed.
func holdoutSplit(n int, seed uint64) (train, test []int) {
	nTest := (n + 4) / 5
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return perm[nTest:], perm[:nTest]
}

func fitTrendLine(xs, ys []float64) (trendLine, error) {
	if len(xs) < 2 {
		return trendLine{}, errors.InsufficientData("line fit needs at least 2 points, got %d", len(xs))
	}

	coeffs, err := matrix.Poly(xs, ys, 1)
	if err != nil {
		return trendLine{}, errors.ForecastFailed("fit trend line: %v", err)
	}
	if len(coeffs) != 2 || !finite(coeffs[0]) || !finite(coeffs[1]) {
		return trendLine{}, errors.ForecastFailed("degenerate trend line fit over %d points", len(xs))
	}

	return trendLine{intercept: coeffs[0], slope: coeffs[1]}, nil
}

func ordinals(series models.MonthlyRevenue) (xs, ys []float64) {
	xs = make([]float64, len(series))
	for i := range series {
		xs[i] = float64(i)
	}
	return xs, series.Values()
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

func nextMonth(series models.MonthlyRevenue) models.MonthKey {
	last, _ := series.Last()
	return last.Month.Next()
}

func round2(v float64) (decimal.Decimal, error) {
	if !finite(v) {
		return decimal.Decimal{}, errors.ForecastFailed("non-finite forecast value")
	}
	return decimal.NewFromFloat(v).Round(2), nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
