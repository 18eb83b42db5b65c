package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"donations/internal/core"
	"donations/internal/dashboard"
	applog "donations/internal/log"
)

type indexPage struct {
	Options []core.School
	Initial dashboard.Update
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	up, _, err := s.dispatch(w, r, dashboard.Event{Kind: dashboard.EventInit})
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	page := indexPage{Options: s.deps.Schools.Schools(), Initial: up}
	if err := s.templates.ExecuteTemplate(w, "index.html", page); err != nil {
		applog.FromContext(r.Context()).Error("Failed rendering index", applog.FieldComponent, applog.ComponentTemplate, "error", err)
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	_, payload, err := s.dispatch(w, r, dashboard.Event{Kind: dashboard.EventInit})
	writeUpdate(w, r, payload, err)
}

func (s *Server) handleBarClick(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if !s.readable(w, r, p.Err()) {
		return
	}
	// A payload without a label is still dispatched; the controller answers
	// it with the prior state.
	ev := dashboard.Event{Kind: dashboard.EventBarClick, Label: ClickLabel(p.Raw())}
	_, payload, err := s.dispatch(w, r, ev)
	writeUpdate(w, r, payload, err)
}

func (s *Server) handleDropdown(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(w, r)
	if !s.readable(w, r, p.Err()) {
		return
	}
	ev := dashboard.Event{Kind: dashboard.EventDropdownChange}
	if err := p.Parse(); err == nil {
		ev.Alias = p.Get("alias")
	}
	_, payload, err := s.dispatch(w, r, ev)
	writeUpdate(w, r, payload, err)
}

// readable answers transport failures and reports whether the body can be used.
func (s *Server) readable(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, errBodyTooLarge):
		PayloadTooLargeError().Write(w, r)
	default:
		applog.FromContext(r.Context()).Warn("Unreadable request body", "error", err)
		BadRequestError("unreadable request body").Write(w, r)
	}
	return false
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w, r)
}

// handleReady performs readiness check with dependency verification
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{
		"sessions":     s.deps.Sessions.Len(),
		"rate_limiter": map[string]any{"active_clients": s.limiter.ActiveClients(), "rejected": s.limiter.Hits()},
		"blocked":      s.detector.Blocked(),
	}

	if s.deps.Pinger != nil {
		if err := s.deps.Pinger.Ping(ctx); err != nil {
			applog.FromContext(ctx).Warn("Readiness check failed", "error", err)
			checks["data_source"] = "failed"
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["data_source"] = "ok"
		}
	} else {
		checks["data_source"] = "in_memory"
	}

	NewJSONResponse(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	}).Status(httpStatus).Write(w, r)
}
