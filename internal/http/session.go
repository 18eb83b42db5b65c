package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"donations/internal/core"
	"donations/internal/dashboard"
	applog "donations/internal/log"
	"donations/internal/session"
)

var errUnencodable = errors.New("update could not be rendered")

// sessionID returns the caller's session id, issuing a cookie for new or
// tampered ones.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(session.CookieName); err == nil && session.Valid(c.Value) {
		return c.Value
	}
	id := session.NewID()
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

// dispatch runs ev against the caller's session. Events of one session are
// serialized by the store. The new state is committed only when its update
// can be encoded; otherwise the prior state is re-rendered, and if that
// fails too the session is left untouched and errUnencodable is returned.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, ev dashboard.Event) (dashboard.Update, []byte, error) {
	id := s.sessionID(w, r)
	ev.SessionID = id
	logger := applog.FromContext(r.Context())

	var (
		up      dashboard.Update
		payload []byte
		err     error
	)
	s.deps.Sessions.Do(id, func(prior core.SelectionState) core.SelectionState {
		up = s.deps.Controller.Dispatch(r.Context(), prior, ev)
		if payload, err = json.Marshal(up); err == nil {
			return up.State
		}
		logger.Error("Failed to encode update",
			applog.FieldSessionID, id, applog.FieldEventKind, ev.Kind, applog.FieldSchool, up.State.School, "error", err)
		if ev.Kind == dashboard.EventInit {
			err = errUnencodable
			return prior
		}

		up = s.deps.Controller.Dispatch(r.Context(), prior, dashboard.Event{Kind: dashboard.EventInit, SessionID: id})
		up.Diagnostic = "Could not render the selected school"
		if payload, err = json.Marshal(up); err != nil {
			err = errUnencodable
			return prior
		}
		return up.State
	})
	if err != nil {
		return up, nil, err
	}
	if up.Diagnostic != "" {
		logger.Debug("Update carries diagnostic",
			applog.FieldSessionID, id, applog.FieldEventKind, ev.Kind, "diagnostic", up.Diagnostic)
	}
	return up, payload, nil
}

// writeUpdate answers an event with its pre-encoded update.
func writeUpdate(w http.ResponseWriter, r *http.Request, payload []byte, err error) {
	if err != nil {
		ErrorResponse(http.StatusInternalServerError, err.Error()).Write(w, r)
		return
	}
	NewJSONResponse(json.RawMessage(payload)).NoStore().Write(w, r)
}
