package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"sales-insights/internal/config"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.LoggerConfig
		isJSON bool
	}{
		{"json", config.LoggerConfig{Level: "info", Format: "json"}, true},
		{"text", config.LoggerConfig{Level: "info", Format: "text"}, false},
		{"unknown format falls back to json", config.LoggerConfig{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewLogger(tt.cfg, &buf).Info("hello", "k", "v")

			var m map[string]any
			gotJSON := json.Unmarshal(buf.Bytes(), &m) == nil
			if gotJSON != tt.isJSON {
				t.Errorf("json output = %v, want %v: %s", gotJSON, tt.isJSON, buf.String())
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLogLevel(in); got != want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerFrom(t *testing.T) {
	var buf bytes.Buffer
	base := NewLogger(config.LoggerConfig{Level: "info", Format: "json"}, &buf)

	ctx := WithSessionID(WithRequestID(context.Background(), "req-1"), "sess-1")
	LoggerFrom(ctx, base).Info("loaded")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"session_id":"sess-1"`) {
		t.Errorf("missing context attributes: %s", out)
	}
}

func TestSpans(t *testing.T) {
	ctx, parent := StartSpan(context.Background(), "GET /api/forecast")
	_, child := StartSpan(ctx, "forecast")

	if child.TraceID != parent.TraceID {
		t.Errorf("child trace %s, want %s", child.TraceID, parent.TraceID)
	}
	if child.ParentID != parent.SpanID {
		t.Errorf("child parent %s, want %s", child.ParentID, parent.SpanID)
	}
	if GetSpan(ctx) != parent {
		t.Error("GetSpan should return the span stored in ctx")
	}

	var buf bytes.Buffer
	logger := NewLogger(config.LoggerConfig{Level: "debug", Format: "json"}, &buf)

	child.SetTag("months", "12")
	child.SetError(errors.New("boom"))
	child.End(logger)

	if child.Status != SpanStatusError || child.Error != "boom" {
		t.Errorf("span = %+v", child)
	}
	out := buf.String()
	if !strings.Contains(out, `"msg":"span failed"`) || !strings.Contains(out, `"months":"12"`) {
		t.Errorf("unexpected span log: %s", out)
	}
}
