package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sales-insights/internal/config"
	"sales-insights/internal/handlers"
	"sales-insights/internal/middleware"
	"sales-insights/internal/narrative"
	"sales-insights/internal/observability"
	"sales-insights/internal/render"
	"sales-insights/internal/server"
	"sales-insights/internal/services"
)

const (
	version          = "1.0.0"
	chartWidth       = 1024
	chartHeight      = 512
	limiterIdleAfter = 10 * time.Minute
)

// app bundles what main wires together so tests can build the same handler
// without starting a listener.
type app struct {
	analytics *services.Analytics
	limiter   *middleware.RateLimiter
	handler   http.Handler
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	analytics := services.NewAnalytics(services.AnalyticsConfig{
		SessionTTL:   cfg.Session.TTL,
		ForecastSeed: cfg.Forecast.Seed,
		TopProducts:  cfg.Forecast.TopProductsLimit,
	})

	narratives := narrative.NewFactory(narrative.Config{
		APIKey:  cfg.Narrative.APIKey,
		Model:   cfg.Narrative.Model,
		BaseURL: cfg.Narrative.BaseURL,
		Timeout: cfg.Narrative.Timeout,
	}, &http.Client{}, logger)

	deps := &handlers.Deps{
		Analytics:      analytics,
		Narratives:     narratives,
		Charts:         render.NewPNGRenderer(chartWidth, chartHeight),
		CookieName:     cfg.Session.CookieName,
		UploadMaxBytes: cfg.Server.UploadMaxBytes,
		Logger:         logger,
	}

	srv := server.NewServer(deps, logger)
	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
	)

	return &app{
		analytics: analytics,
		limiter:   rateLimiter,
		handler:   middlewareChain(srv),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger, nil)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"session_ttl", cfg.Session.TTL,
		"forecast_seed", cfg.Forecast.Seed,
		"narrative_model", cfg.Narrative.Model,
		"narrative_default_key", cfg.Narrative.APIKey != "",
	)

	a := newApp(cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	janitorCtx, stopJanitors := context.WithCancel(context.Background())
	go a.analytics.Run(janitorCtx, cfg.Session.SweepInterval)
	go a.limiter.Run(janitorCtx, limiterIdleAfter)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      a.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg.Server)

	gracefulServer.RegisterShutdownHook("janitors", func(ctx context.Context) error {
		stopJanitors()
		logger.Info("stopped session and rate limiter janitors",
			"sessions_open", a.analytics.Stats()["sessions"])
		return nil
	})

	if err := gracefulServer.ListenAndServe(ctx); err != nil {
		logger.Error("server failed", "error", err)
		stopJanitors()
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
