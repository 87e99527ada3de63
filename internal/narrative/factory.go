package narrative

import (
	"log/slog"
	"net/http"
)

// Factory hands out narrators bound to a per-session API key. The default
// config key is used only when the session did not supply one.
type Factory struct {
	cfg        Config
	httpClient *http.Client
	logger     *slog.Logger
}

func NewFactory(cfg Config, httpClient *http.Client, logger *slog.Logger) *Factory {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Factory{cfg: cfg, httpClient: httpClient, logger: logger}
}

func (f *Factory) HasDefaultKey() bool {
	return f.cfg.APIKey != ""
}

func (f *Factory) Narrator(apiKey string) *Narrator {
	cfg := f.cfg
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	return NewNarrator(NewClient(cfg, f.httpClient), cfg.Timeout, f.logger)
}
