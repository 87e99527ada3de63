package server

import (
	"log/slog"
	"net/http"

	"sales-insights/internal/handlers"
)

// Server routes the dashboard, the JSON API and the datastar streams. All
// handlers share one Deps so they see the same sessions.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger
	pages  *handlers.PageHandlers
	api    *handlers.APIHandlers
	sse    *handlers.SSEHandlers
}

func NewServer(deps *handlers.Deps, logger *slog.Logger) *Server {
	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		pages:  handlers.NewPageHandlers(deps),
		api:    handlers.NewAPIHandlers(deps),
		sse:    handlers.NewSSEHandlers(deps),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", s.pages.HandleDashboard)
	s.mux.HandleFunc("POST /upload", s.pages.HandleUpload)
	s.mux.HandleFunc("GET /health", s.api.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.api.HandleStats)
	s.mux.HandleFunc("GET /charts/{file}", s.api.HandleChartPNG)

	// REST API endpoints
	s.mux.HandleFunc("GET /api/summary", s.api.HandleSummary)
	s.mux.HandleFunc("GET /api/top-products", s.api.HandleTopProducts)
	s.mux.HandleFunc("GET /api/monthly-revenue", s.api.HandleMonthlyRevenue)
	s.mux.HandleFunc("GET /api/daily-revenue", s.api.HandleDailyRevenue)
	s.mux.HandleFunc("GET /api/product-performance", s.api.HandleProductPerformance)
	s.mux.HandleFunc("GET /api/forecast", s.api.HandleForecast)
	s.mux.HandleFunc("GET /api/forecast/confidence", s.api.HandleForecastConfidence)
	s.mux.HandleFunc("GET /api/insights", s.api.HandleInsights)
	s.mux.HandleFunc("GET /api/charts", s.api.HandleCharts)
	s.mux.HandleFunc("GET /api/charts/{name}", s.api.HandleChart)
	s.mux.HandleFunc("GET /api/narrative/{category}", s.api.HandleNarrative)
	s.mux.HandleFunc("GET /api/report", s.api.HandleReport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/overview", s.sse.HandleOverview)
	s.mux.HandleFunc("GET /sse/forecast", s.sse.HandleForecast)
	s.mux.HandleFunc("GET /sse/insights", s.sse.HandleInsights)
	s.mux.HandleFunc("GET /sse/narrative/{category}", s.sse.HandleNarrative)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sse.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
