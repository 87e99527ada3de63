// Package narrative turns aggregate summaries into prose by calling a hosted
// text-generation model. Each call is a single blocking round trip; there is
// no retry and no streaming.
package narrative

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"sales-insights/internal/errors"
)

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Config is scoped to whoever makes the call, normally one session.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client calls Gemini generateContent through the genai SDK.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, httpClient: httpClient}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if c.cfg.APIKey == "" {
		return "", errors.NarrativeUnavailable(nil, "no API key configured for narrative generation")
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      c.cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  c.httpClient,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.cfg.BaseURL},
	})
	if err != nil {
		return "", errors.NarrativeUnavailable(err, "configure narrative client")
	}

	resp, err := sdk.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), nil)
	if err != nil {
		var apiErr genai.APIError
		if stderrors.As(err, &apiErr) {
			return "", errors.NarrativeUnavailable(
				fmt.Errorf("status %d: %s", apiErr.Code, apiErr.Message),
				"narrative service rejected the request")
		}
		return "", errors.NarrativeUnavailable(err, "narrative service request failed")
	}

	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
		return "", errors.NarrativeUnavailable(
			fmt.Errorf("blocked: %s", fb.BlockReason),
			"narrative service refused the prompt")
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.NarrativeUnavailable(nil, "narrative service returned no text")
	}
	return text, nil
}
