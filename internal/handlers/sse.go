package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-insights/internal/narrative"
	"sales-insights/internal/services"
	"sales-insights/internal/ui/templates"
)

// SSEHandlers patch dashboard sections over datastar. Each section is
// computed on its own, so a failing one becomes an error card while the
// others still render.
type SSEHandlers struct {
	*Deps
}

func NewSSEHandlers(deps *Deps) *SSEHandlers {
	return &SSEHandlers{Deps: deps}
}

func (h *SSEHandlers) patch(sse *datastar.ServerSentEventGenerator, r *http.Request, c templ.Component) {
	var buf strings.Builder
	if err := c.Render(r.Context(), &buf); err != nil {
		h.logger(r).Error("render section", "error", err)
		return
	}
	if err := sse.PatchElements(buf.String()); err != nil {
		h.logger(r).Debug("patch elements", "error", err)
	}
}

func (h *SSEHandlers) signals(sse *datastar.ServerSentEventGenerator, r *http.Request, v map[string]any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger(r).Error("marshal signals", "error", err)
		return
	}
	if err := sse.PatchSignals(data); err != nil {
		h.logger(r).Debug("patch signals", "error", err)
	}
}

// stream opens the SSE response and resolves the session. Without a session
// the given section is replaced by an error card.
func (h *SSEHandlers) stream(w http.ResponseWriter, r *http.Request, sectionID, title string) (*datastar.ServerSentEventGenerator, *services.Session, *http.Request) {
	s, r, err := h.session(r)
	sse := datastar.NewSSE(w, r)
	if err != nil {
		h.patch(sse, r, templates.ErrorCard(sectionID, title, err.Error()))
		return sse, nil, r
	}
	return sse, s, r
}

func (h *SSEHandlers) overview(s *services.Session) templates.OverviewView {
	return templates.OverviewView{
		Summary:     services.TotalSummary(s.Table),
		TopProducts: h.Analytics.TopProducts(s.Table, 0),
		Monthly:     services.MonthlyRevenueSeries(s.Table),
	}
}

func (h *SSEHandlers) forecast(r *http.Request, s *services.Session) templates.ForecastView {
	var v templates.ForecastView
	if f, err := h.traceForecast(r.Context(), "forecast.point", s.Table, h.Analytics.Forecast); err != nil {
		v.PointErr = err.Error()
	} else {
		v.Point = &f
	}
	if f, err := h.traceForecast(r.Context(), "forecast.confidence", s.Table, h.Analytics.ForecastWithConfidence); err != nil {
		v.ConfidenceErr = err.Error()
	} else {
		v.Confidence = &f
	}
	return v
}

func insightsView(s *services.Session) templates.InsightsView {
	insights, err := services.GenerateInsights(s.Table)
	if err != nil {
		return templates.InsightsView{Err: err.Error()}
	}
	return templates.InsightsView{Insights: insights}
}

func (h *SSEHandlers) HandleOverview(w http.ResponseWriter, r *http.Request) {
	sse, s, r := h.stream(w, r, "overview", "Overview")
	if s == nil {
		return
	}
	h.patch(sse, r, templates.Overview(h.overview(s)))
}

func (h *SSEHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	sse, s, r := h.stream(w, r, "forecast", "Next month forecast")
	if s == nil {
		return
	}
	h.patch(sse, r, templates.Forecast(h.forecast(r, s)))
}

func (h *SSEHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	sse, s, r := h.stream(w, r, "insights", "Insights")
	if s == nil {
		return
	}
	h.patch(sse, r, templates.Insights(insightsView(s)))
}

// HandleNarrative shows a pending state first, then the generated text or
// the reason it is unavailable.
func (h *SSEHandlers) HandleNarrative(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("category")
	c, ok := narrative.ParseCategory(raw)
	sectionID := "narrative-" + raw
	if !ok {
		sse := datastar.NewSSE(w, r)
		h.patch(sse, r, templates.ErrorCard(sectionID, "Narrative", "unknown narrative category"))
		return
	}

	sse, s, r := h.stream(w, r, sectionID, c.Title())
	if s == nil {
		return
	}

	h.patch(sse, r, templates.Narrative(templates.NarrativeView{
		Category: string(c),
		Title:    c.Title(),
		Text:     "Generating…",
	}))

	view := templates.NarrativeView{Category: string(c), Title: c.Title()}
	text, err := h.generateNarrative(r.Context(), s, c)
	if err != nil {
		view.Err = err.Error()
	} else {
		view.Text = text
	}
	h.patch(sse, r, templates.Narrative(view))
}

// HandleRefreshAll recomputes every non-narrative section in one stream.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse, s, r := h.stream(w, r, "overview", "Overview")
	if s == nil {
		return
	}

	overview := h.overview(s)
	h.patch(sse, r, templates.Overview(overview))
	h.patch(sse, r, templates.Forecast(h.forecast(r, s)))
	h.patch(sse, r, templates.Insights(insightsView(s)))

	h.signals(sse, r, map[string]any{
		"months":      overview.Summary.Months,
		"rows":        overview.Summary.Rows,
		"refreshedAt": time.Now().UTC().Format(time.RFC3339),
	})
}
