package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Forecast.Seed != 42 {
		t.Errorf("expected default seed 42, got %d", cfg.Forecast.Seed)
	}
	if cfg.Forecast.TopProductsLimit != 5 {
		t.Errorf("expected default top products limit 5, got %d", cfg.Forecast.TopProductsLimit)
	}
	if cfg.Session.CookieName != "sid" {
		t.Errorf("expected cookie name sid, got %q", cfg.Session.CookieName)
	}
	if cfg.Address() != "localhost:8084" {
		t.Errorf("unexpected address %q", cfg.Address())
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("FORECAST_SEED", "7")
	t.Setenv("NARRATIVE_TIMEOUT", "5s")
	t.Setenv("NARRATIVE_API_KEY", "k-123")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Forecast.Seed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Forecast.Seed)
	}
	if cfg.Narrative.Timeout != 5*time.Second {
		t.Errorf("expected narrative timeout 5s, got %v", cfg.Narrative.Timeout)
	}
	if cfg.Narrative.APIKey != "k-123" {
		t.Errorf("expected API key from env, got %q", cfg.Narrative.APIKey)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port out of range", "SERVER_PORT", "70000"},
		{"bad log level", "LOG_LEVEL", "verbose"},
		{"bad log format", "LOG_FORMAT", "xml"},
		{"zero top products", "TOP_PRODUCTS_LIMIT", "0"},
		{"negative rps", "SECURITY_RATE_LIMIT_RPS", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.value)
			}
		})
	}
}
