package services

import (
	"context"
	"io"
	"log/slog"
	"time"

	"sales-insights/internal/models"
)

type AnalyticsConfig struct {
	SessionTTL   time.Duration
	ForecastSeed uint64
	TopProducts  int
}

// Analytics keeps per-user sessions and computes dashboard sections on
// demand. Nothing derived from a table is cached.
type Analytics struct {
	sessions *Sessions
	cfg      AnalyticsConfig
	started  time.Time
	logger   *slog.Logger
}

func NewAnalytics(cfg AnalyticsConfig) *Analytics {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.TopProducts <= 0 {
		cfg.TopProducts = DefaultTopProducts
	}
	return &Analytics{
		sessions: NewSessions(cfg.SessionTTL),
		cfg:      cfg,
		started:  time.Now(),
		logger:   slog.Default(),
	}
}

// Load parses r and stores the resulting table in a new session.
func (a *Analytics) Load(ctx context.Context, r io.Reader, filename, narrativeKey string) (*Session, error) {
	start := time.Now()

	table, err := LoadTable(ctx, r)
	if err != nil {
		return nil, err
	}

	s := a.sessions.Create(table, filename, narrativeKey)
	a.logger.Info("sales log loaded",
		"session_id", s.ID,
		"filename", filename,
		"rows", table.Len(),
		"duration", time.Since(start),
	)
	return s, nil
}

func (a *Analytics) CreateSession(table *models.Table, filename, narrativeKey string) *Session {
	return a.sessions.Create(table, filename, narrativeKey)
}

func (a *Analytics) Session(id string) (*Session, error) {
	return a.sessions.Get(id)
}

func (a *Analytics) DeleteSession(id string) {
	a.sessions.Delete(id)
}

func (a *Analytics) Sweep(now time.Time) int {
	return a.sessions.Sweep(now)
}

// Run sweeps expired sessions every interval until ctx is done.
func (a *Analytics) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.sessions.Sweep(a.sessions.now()); n > 0 {
				a.logger.Info("expired sessions removed", "count", n, "remaining", a.sessions.Len())
			}
		}
	}
}

func (a *Analytics) TopProducts(t *models.Table, n int) []models.ProductQuantity {
	if n <= 0 {
		n = a.cfg.TopProducts
	}
	return TopProducts(t, n)
}

func (a *Analytics) Forecast(t *models.Table) (models.Forecast, error) {
	return ForecastNext(MonthlyRevenueSeries(t))
}

func (a *Analytics) ForecastWithConfidence(t *models.Table) (models.Forecast, error) {
	return ForecastNextWithConfidence(MonthlyRevenueSeries(t), a.cfg.ForecastSeed)
}

// Snapshot holds every dashboard section for one table. Sections that can
// fail carry their own error so one failure never hides the others.
type Snapshot struct {
	Summary       models.Summary
	TopProducts   []models.ProductQuantity
	Monthly       models.MonthlyRevenue
	Forecast      *models.Forecast
	ForecastErr   error
	Confidence    *models.Forecast
	ConfidenceErr error
	Insights      []models.Insight
	InsightsErr   error
}

func (a *Analytics) Snapshot(t *models.Table) Snapshot {
	snap := Snapshot{
		Summary:     TotalSummary(t),
		TopProducts: a.TopProducts(t, 0),
		Monthly:     MonthlyRevenueSeries(t),
	}

	if f, err := ForecastNext(snap.Monthly); err != nil {
		snap.ForecastErr = err
	} else {
		snap.Forecast = &f
	}

	if f, err := ForecastNextWithConfidence(snap.Monthly, a.cfg.ForecastSeed); err != nil {
		snap.ConfidenceErr = err
	} else {
		snap.Confidence = &f
	}

	snap.Insights, snap.InsightsErr = GenerateInsights(t)
	return snap
}

// Stats is used by the admin endpoint.
func (a *Analytics) Stats() map[string]any {
	return map[string]any{
		"sessions":       a.sessions.Len(),
		"rows_in_memory": a.sessions.Rows(),
		"uploads":        a.sessions.Created(),
		"uptime":         time.Since(a.started).Round(time.Second).String(),
		"forecast_seed":  a.cfg.ForecastSeed,
	}
}
