package trace

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

type recordingObserver struct {
	routes   []string
	statuses []int
}

func (o *recordingObserver) ObserveRequest(route string, status int) {
	o.routes = append(o.routes, route)
	o.statuses = append(o.statuses, status)
}

func TestHandlerAssignsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	obs := &recordingObserver{}

	var seen string
	r := chi.NewRouter()
	r.Use(NewMiddleware(logger, obs).Handler)
	r.Get("/api/state", func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/state", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Fatalf("request id = %q", seen)
	}
	if rec.Header().Get(HeaderRequestID) != seen {
		t.Errorf("header id %q != context id %q", rec.Header().Get(HeaderRequestID), seen)
	}
	if len(obs.routes) != 1 || obs.routes[0] != "/api/state" || obs.statuses[0] != http.StatusOK {
		t.Errorf("observer got %v %v", obs.routes, obs.statuses)
	}
	if !strings.Contains(buf.String(), "request_id="+seen) {
		t.Errorf("log missing request id: %s", buf.String())
	}
}

func TestHandlerKeepsUpstreamID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := NewMiddleware(logger, nil).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		in   string
		keep bool
	}{
		{"abc-123", true},
		{"bad id with spaces", false},
		{strings.Repeat("x", 65), false},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderRequestID, tt.in)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		got := rec.Header().Get(HeaderRequestID)
		if (got == tt.in) != tt.keep {
			t.Errorf("in %q: got %q, keep=%v", tt.in, got, tt.keep)
		}
		if rec.Code != http.StatusTeapot {
			t.Errorf("status = %d", rec.Code)
		}
	}
}
