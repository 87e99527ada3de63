package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sales-insights/internal/errors"
	"sales-insights/internal/narrative"
	"sales-insights/internal/services"
)

const (
	version     = "1.0.0"
	maxTopN     = 100
	chartMaxAge = "private, max-age=60"
)

type APIHandlers struct {
	*Deps
}

func NewAPIHandlers(deps *Deps) *APIHandlers {
	return &APIHandlers{Deps: deps}
}

// withTable resolves the session and hands its table to fn, writing the
// NO_SESSION envelope when there is none.
func (h *APIHandlers) withTable(fn func(w http.ResponseWriter, r *http.Request, s *services.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, r, err := h.session(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		fn(w, r, s)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.Analytics.Stats())
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		errors.WriteSuccess(w, services.TotalSummary(s.Table))
	})(w, r)
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		n := 0
		if raw := r.URL.Query().Get("n"); raw != "" {
			v, err := strconv.Atoi(raw)
			if err != nil || v < 1 || v > maxTopN {
				h.writeError(w, r, errors.Validation("n must be an integer between 1 and 100"))
				return
			}
			n = v
		}
		errors.WriteSuccess(w, h.Analytics.TopProducts(s.Table, n))
	})(w, r)
}

func (h *APIHandlers) HandleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		errors.WriteSuccess(w, services.MonthlyRevenueSeries(s.Table))
	})(w, r)
}

func (h *APIHandlers) HandleDailyRevenue(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		errors.WriteSuccess(w, services.DailyRevenueSeries(s.Table))
	})(w, r)
}

func (h *APIHandlers) HandleProductPerformance(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		errors.WriteSuccess(w, services.ProductPerformanceOf(s.Table))
	})(w, r)
}

func (h *APIHandlers) HandleForecast(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		f, err := h.traceForecast(r.Context(), "forecast.point", s.Table, h.Analytics.Forecast)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		errors.WriteSuccess(w, f)
	})(w, r)
}

func (h *APIHandlers) HandleForecastConfidence(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		f, err := h.traceForecast(r.Context(), "forecast.confidence", s.Table, h.Analytics.ForecastWithConfidence)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		errors.WriteSuccess(w, f)
	})(w, r)
}

func (h *APIHandlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		insights, err := services.GenerateInsights(s.Table)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		errors.WriteSuccess(w, insights)
	})(w, r)
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		errors.WriteSuccess(w, services.BuildCharts(s.Table))
	})(w, r)
}

func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		c, ok := services.ChartByName(s.Table, r.PathValue("name"))
		if !ok {
			h.writeError(w, r, errors.NotFound("unknown chart "+strconv.Quote(r.PathValue("name"))))
			return
		}
		errors.WriteSuccess(w, c)
	})(w, r)
}

// HandleChartPNG serves /charts/{file} where file is "<name>.png".
func (h *APIHandlers) HandleChartPNG(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
		if !ok {
			h.writeError(w, r, errors.NotFound("charts are served as .png"))
			return
		}
		c, ok := services.ChartByName(s.Table, name)
		if !ok {
			h.writeError(w, r, errors.NotFound("unknown chart "+strconv.Quote(name)))
			return
		}

		img, err := h.Charts.Bytes(c)
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", chartMaxAge)
		w.Header().Set("Content-Length", strconv.Itoa(len(img)))
		w.Write(img)
	})(w, r)
}

type narrativeResponse struct {
	Category narrative.Category `json:"category"`
	Title    string             `json:"title"`
	Text     string             `json:"text"`
}

func (h *APIHandlers) HandleNarrative(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		c, ok := narrative.ParseCategory(r.PathValue("category"))
		if !ok {
			h.writeError(w, r, errors.NotFound("unknown narrative category "+strconv.Quote(r.PathValue("category"))))
			return
		}

		text, err := h.generateNarrative(r.Context(), s, c)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		errors.WriteSuccess(w, narrativeResponse{Category: c, Title: c.Title(), Text: text})
	})(w, r)
}

// HandleReport serves the plain-text export. ?narratives=false skips the
// narrative calls and produces the key metrics only.
func (h *APIHandlers) HandleReport(w http.ResponseWriter, r *http.Request) {
	h.withTable(func(w http.ResponseWriter, r *http.Request, s *services.Session) {
		withNarratives := r.URL.Query().Get("narratives") != "false"
		report := h.buildReport(r.Context(), s, withNarratives)

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="sales-report.txt"`)
		w.Header().Set("Cache-Control", "no-store")
		w.Write([]byte(report))
	})(w, r)
}

func (h *APIHandlers) buildReport(ctx context.Context, s *services.Session, withNarratives bool) string {
	in := services.ReportInput{Summary: services.TotalSummary(s.Table)}

	// Prefer the interval forecast; fall back to the point forecast when
	// there are too few months to hold any out.
	if f, err := h.Analytics.ForecastWithConfidence(s.Table); err == nil {
		in.Forecast = &f
	} else if f, err := h.Analytics.Forecast(s.Table); err == nil {
		in.Forecast = &f
	} else {
		in.ForecastErr = err
	}

	if withNarratives && h.Narratives != nil {
		for _, n := range h.Narratives.Narrator(s.NarrativeKey).GenerateAll(ctx, s.Table) {
			body := n.Text
			if n.Err != nil {
				body = "Unavailable: " + n.Err.Error()
			}
			in.Sections = append(in.Sections, services.ReportSection{Title: n.Title, Body: body})
		}
	}

	return services.BuildReport(in)
}
