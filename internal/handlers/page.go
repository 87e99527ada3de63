package handlers

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"sales-insights/internal/errors"
	"sales-insights/internal/narrative"
	"sales-insights/internal/services"
	"sales-insights/internal/ui/templates"
)

const (
	renderTimeout    = 10 * time.Second
	multipartMemory  = 8 << 20
	defaultMaxUpload = 50 << 20
)

type PageHandlers struct {
	*Deps
}

func NewPageHandlers(deps *Deps) *PageHandlers {
	return &PageHandlers{Deps: deps}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	view := templates.DashboardView{
		Charts:       services.ChartNames(),
		HasServerKey: h.Narratives != nil && h.Narratives.HasDefaultKey(),
	}
	for _, c := range narrative.Categories {
		view.Narratives = append(view.Narratives, templates.NarrativeSlot{Category: string(c), Title: c.Title()})
	}

	s, _, err := h.session(r)
	switch {
	case err == nil:
		view.Loaded = true
		view.Filename = s.Filename
		view.Summary = services.TotalSummary(s.Table)
	case hasSessionCookie(r, h.cookieName()):
		view.Flash = "Your session has expired. Upload the file again."
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Dashboard(view).Render(ctx, w); err != nil {
		h.logger(r).Error("render dashboard", "error", err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// HandleUpload loads the posted CSV into a fresh session, replacing the
// caller's previous one, and redirects back to the dashboard.
func (h *PageHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.UploadMaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxUpload
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			h.writeError(w, r, errors.Validation("uploaded file exceeds the size limit"))
			return
		}
		h.writeError(w, r, errors.BadRequestWrap(err, "expected a multipart form upload"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, errors.BadRequestWrap(err, "form field \"file\" is required"))
		return
	}
	defer file.Close()

	apiKey := strings.TrimSpace(r.FormValue("api_key"))

	s, err := h.Analytics.Load(r.Context(), file, header.Filename, apiKey)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if old, err := r.Cookie(h.cookieName()); err == nil && old.Value != "" {
		h.Analytics.DeleteSession(old.Value)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName(),
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func hasSessionCookie(r *http.Request, name string) bool {
	c, err := r.Cookie(name)
	return err == nil && c.Value != ""
}
