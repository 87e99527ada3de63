package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-insights/internal/models"
)

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}
	return env
}

func TestAPI_NoSession(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	handlers := map[string]http.HandlerFunc{
		"summary":    api.HandleSummary,
		"top":        api.HandleTopProducts,
		"monthly":    api.HandleMonthlyRevenue,
		"daily":      api.HandleDailyRevenue,
		"products":   api.HandleProductPerformance,
		"forecast":   api.HandleForecast,
		"confidence": api.HandleForecastConfidence,
		"insights":   api.HandleInsights,
		"charts":     api.HandleCharts,
		"report":     api.HandleReport,
	}

	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/"+name, nil)
			req.AddCookie(&http.Cookie{Name: "sid", Value: "unknown"})
			w := httptest.NewRecorder()
			h(w, req)

			if w.Code != http.StatusNotFound {
				t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
			}
			env := decodeEnvelope(t, w)
			if env.Success || env.Error == nil || env.Error.Code != "NO_SESSION" {
				t.Errorf("unexpected envelope %s", w.Body.String())
			}
		})
	}
}

func TestAPI_Summary(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
	withSession(deps, req, testTable(), "")
	w := httptest.NewRecorder()
	api.HandleSummary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	env := decodeEnvelope(t, w)
	if !env.Success {
		t.Fatal("expected success envelope")
	}

	var summary models.Summary
	if err := json.Unmarshal(env.Data, &summary); err != nil {
		t.Fatal(err)
	}
	if summary.Rows != 6 || summary.Months != 5 || summary.GrowthRate != "400.0%" {
		t.Errorf("summary = %+v", summary)
	}
	if got := summary.TotalRevenue.StringFixed(2); got != "805.00" {
		t.Errorf("total revenue = %s, want 805.00", got)
	}
}

func TestAPI_TopProducts(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		wantLen  int
	}{
		{"default", "", http.StatusOK, 3},
		{"limited", "?n=1", http.StatusOK, 1},
		{"zero", "?n=0", http.StatusBadRequest, 0},
		{"too many", "?n=101", http.StatusBadRequest, 0},
		{"not a number", "?n=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, _ := newTestDeps()
			api := NewAPIHandlers(deps)

			req := httptest.NewRequest(http.MethodGet, "/api/top-products"+tt.query, nil)
			withSession(deps, req, testTable(), "")
			w := httptest.NewRecorder()
			api.HandleTopProducts(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				if env := decodeEnvelope(t, w); env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
					t.Errorf("unexpected envelope %s", w.Body.String())
				}
				return
			}

			var top []models.ProductQuantity
			if err := json.Unmarshal(decodeEnvelope(t, w).Data, &top); err != nil {
				t.Fatal(err)
			}
			if len(top) != tt.wantLen {
				t.Fatalf("expected %d products, got %d", tt.wantLen, len(top))
			}
			if top[0].Product != "Widget" || top[0].Quantity != 12 {
				t.Errorf("top product = %+v", top[0])
			}
		})
	}
}

func TestAPI_Forecast(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	for _, h := range []http.HandlerFunc{api.HandleForecast, api.HandleForecastConfidence} {
		req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
		withSession(deps, req, testTable(), "")
		w := httptest.NewRecorder()
		h(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
		}
		var f models.Forecast
		if err := json.Unmarshal(decodeEnvelope(t, w).Data, &f); err != nil {
			t.Fatal(err)
		}
		if !f.Predicted.IsPositive() {
			t.Errorf("expected a positive prediction, got %s", f.Predicted)
		}
	}
}

func TestAPI_ForecastInsufficientData(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	single := models.NewTable(testTable().Rows()[:2])

	req := httptest.NewRequest(http.MethodGet, "/api/forecast", nil)
	withSession(deps, req, single, "")
	w := httptest.NewRecorder()
	api.HandleForecast(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d: %s", w.Code, w.Body.String())
	}
	if env := decodeEnvelope(t, w); env.Error.Code != "INSUFFICIENT_DATA" {
		t.Errorf("unexpected code %s", env.Error.Code)
	}
}

func TestAPI_InsightsEmpty(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	withSession(deps, req, models.NewTable(nil), "")
	w := httptest.NewRecorder()
	api.HandleInsights(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", w.Code)
	}
	if env := decodeEnvelope(t, w); env.Error.Code != "EMPTY_DATASET" {
		t.Errorf("unexpected code %s", env.Error.Code)
	}
}

func TestAPI_Insights(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/insights", nil)
	withSession(deps, req, testTable(), "")
	w := httptest.NewRecorder()
	api.HandleInsights(w, req)

	var insights []models.Insight
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &insights); err != nil {
		t.Fatal(err)
	}
	if len(insights) != 3 {
		t.Fatalf("expected 3 insights, got %d", len(insights))
	}
	if insights[0].Value != "50.0%" {
		t.Errorf("growth = %q, want 50.0%%", insights[0].Value)
	}
}

func TestAPI_Charts(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/charts", nil)
	withSession(deps, req, testTable(), "")
	w := httptest.NewRecorder()
	api.HandleCharts(w, req)

	var charts []models.Chart
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &charts); err != nil {
		t.Fatal(err)
	}
	if len(charts) != 5 {
		t.Errorf("expected 5 charts, got %d", len(charts))
	}

	tests := []struct {
		name     string
		wantCode int
	}{
		{"revenue_trend", http.StatusOK},
		{"revenue_distribution", http.StatusOK},
		{"nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/charts/"+tt.name, nil)
			req.SetPathValue("name", tt.name)
			withSession(deps, req, testTable(), "")
			w := httptest.NewRecorder()
			api.HandleChart(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestAPI_ChartPNG(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)

	tests := []struct {
		file     string
		wantCode int
	}{
		{"revenue_trend.png", http.StatusOK},
		{"product_performance.png", http.StatusOK},
		{"revenue_trend.svg", http.StatusNotFound},
		{"nope.png", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/charts/"+tt.file, nil)
			req.SetPathValue("file", tt.file)
			withSession(deps, req, testTable(), "")
			w := httptest.NewRecorder()
			api.HandleChartPNG(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if ct := w.Header().Get("Content-Type"); ct != "image/png" {
				t.Errorf("content type = %q", ct)
			}
			if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
				t.Error("body is not a PNG")
			}
		})
	}
}

func TestAPI_Narrative(t *testing.T) {
	deps, narratives := newTestDeps()
	api := NewAPIHandlers(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/narrative/summary", nil)
	req.SetPathValue("category", "summary")
	withSession(deps, req, testTable(), "session-key")
	w := httptest.NewRecorder()
	api.HandleNarrative(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp narrativeResponse
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Title != "Executive Summary" || !strings.HasPrefix(resp.Text, "Narrative: ") {
		t.Errorf("unexpected narrative %+v", resp)
	}
	if len(narratives.keys) != 1 || narratives.keys[0] != "session-key" {
		t.Errorf("narrator should be built with the session key, got %v", narratives.keys)
	}
}

func TestAPI_NarrativeErrors(t *testing.T) {
	tests := []struct {
		name     string
		category string
		err      error
		wantCode int
		wantBody string
	}{
		{"unknown category", "weather", nil, http.StatusNotFound, "NOT_FOUND"},
		{"service failure", "summary", errQuota, http.StatusServiceUnavailable, "NARRATIVE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, narratives := newTestDeps()
			narratives.err = tt.err
			api := NewAPIHandlers(deps)

			req := httptest.NewRequest(http.MethodGet, "/api/narrative/"+tt.category, nil)
			req.SetPathValue("category", tt.category)
			withSession(deps, req, testTable(), "")
			w := httptest.NewRecorder()
			api.HandleNarrative(w, req)

			if w.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if !strings.Contains(w.Body.String(), tt.wantBody) {
				t.Errorf("body %s should contain %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAPI_NarrativeNotConfigured(t *testing.T) {
	deps, _ := newTestDeps()
	deps.Narratives = nil
	api := NewAPIHandlers(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/narrative/summary", nil)
	req.SetPathValue("category", "summary")
	withSession(deps, req, testTable(), "")
	w := httptest.NewRecorder()
	api.HandleNarrative(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestAPI_Report(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		err        error
		want       []string
		dontWant   []string
		wantCalled bool
	}{
		{
			name:       "with narratives",
			want:       []string{"Key Metrics", "805.00", "Executive Summary", "Narrative: "},
			wantCalled: true,
		},
		{
			name:     "metrics only",
			query:    "?narratives=false",
			want:     []string{"Key Metrics"},
			dontWant: []string{"Executive Summary"},
		},
		{
			name:       "narratives failing",
			err:        errQuota,
			want:       []string{"Key Metrics", "Unavailable: "},
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			deps, narratives := newTestDeps()
			narratives.err = tt.err
			api := NewAPIHandlers(deps)

			req := httptest.NewRequest(http.MethodGet, "/api/report"+tt.query, nil)
			withSession(deps, req, testTable(), "")
			w := httptest.NewRecorder()
			api.HandleReport(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("content type = %q", ct)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "sales-report.txt") {
				t.Errorf("content disposition = %q", cd)
			}

			body := w.Body.String()
			for _, s := range tt.want {
				if !strings.Contains(body, s) {
					t.Errorf("report should contain %q:\n%s", s, body)
				}
			}
			for _, s := range tt.dontWant {
				if strings.Contains(body, s) {
					t.Errorf("report should not contain %q", s)
				}
			}
			if called := len(narratives.keys) > 0; called != tt.wantCalled {
				t.Errorf("narrator called = %v, want %v", called, tt.wantCalled)
			}
		})
	}
}

func TestAPI_HealthAndStats(t *testing.T) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)
	deps.Analytics.CreateSession(testTable(), "sales.csv", "")

	w := httptest.NewRecorder()
	api.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"healthy"`) {
		t.Errorf("health = %d %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	api.HandleStats(w, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))

	var stats map[string]any
	if err := json.Unmarshal(decodeEnvelope(t, w).Data, &stats); err != nil {
		t.Fatal(err)
	}
	if stats["sessions"] != float64(1) || stats["rows_in_memory"] != float64(6) {
		t.Errorf("stats = %v", stats)
	}
}

func BenchmarkAPI_Summary(b *testing.B) {
	deps, _ := newTestDeps()
	api := NewAPIHandlers(deps)
	s := deps.Analytics.CreateSession(testTable(), "sales.csv", "")

	b.ResetTimer()
	for b.Loop() {
		req := httptest.NewRequest(http.MethodGet, "/api/summary", nil)
		req.AddCookie(&http.Cookie{Name: "sid", Value: s.ID})
		api.HandleSummary(httptest.NewRecorder(), req)
	}
}
