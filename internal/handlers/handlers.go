package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"sales-insights/internal/errors"
	"sales-insights/internal/models"
	"sales-insights/internal/narrative"
	"sales-insights/internal/observability"
	"sales-insights/internal/render"
	"sales-insights/internal/services"
)

const defaultCookieName = "sid"

// NarratorSource returns a narrator for the given session key.
type NarratorSource interface {
	Narrator(apiKey string) *narrative.Narrator
	HasDefaultKey() bool
}

// Deps is shared by the page, API and SSE handlers.
type Deps struct {
	Analytics      *services.Analytics
	Narratives     NarratorSource
	Charts         render.PNGRenderer
	CookieName     string
	UploadMaxBytes int64
	Logger         *slog.Logger
}

func (d *Deps) cookieName() string {
	if d.CookieName == "" {
		return defaultCookieName
	}
	return d.CookieName
}

// session resolves the caller's session from its cookie and tags the request
// context with the session ID for logging.
func (d *Deps) session(r *http.Request) (*services.Session, *http.Request, error) {
	c, err := r.Cookie(d.cookieName())
	if err != nil || c.Value == "" {
		return nil, r, errors.NoSession("no sales log loaded for this session, upload a CSV first")
	}

	s, err := d.Analytics.Session(c.Value)
	if err != nil {
		return nil, r, err
	}
	return s, r.WithContext(observability.WithSessionID(r.Context(), s.ID)), nil
}

func (d *Deps) logger(r *http.Request) *slog.Logger {
	return observability.LoggerFrom(r.Context(), d.Logger)
}

func (d *Deps) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, d.logger(r), err, observability.GetRequestID(r.Context()))
}

func (d *Deps) traceForecast(ctx context.Context, op string, t *models.Table,
	fn func(*models.Table) (models.Forecast, error)) (models.Forecast, error) {
	_, span := observability.StartSpan(ctx, op)
	defer span.End(observability.LoggerFrom(ctx, d.Logger))

	f, err := fn(t)
	if err != nil {
		span.SetError(err)
	}
	return f, err
}

func (d *Deps) generateNarrative(ctx context.Context, s *services.Session, c narrative.Category) (string, error) {
	if d.Narratives == nil {
		return "", errors.NarrativeUnavailable(nil, "narrative generation is not configured")
	}

	ctx, span := observability.StartSpan(ctx, "narrative."+string(c))
	defer span.End(observability.LoggerFrom(ctx, d.Logger))

	text, err := d.Narratives.Narrator(s.NarrativeKey).Generate(ctx, c, s.Table)
	if err != nil {
		span.SetError(err)
	}
	return text, err
}
