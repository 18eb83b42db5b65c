package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(requests int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := NewLimiter(Config{Requests: requests, Period: time.Minute, StaleAfter: 5 * time.Minute}, WithClock(clock.Now))
	return l, clock
}

func TestAllowWindow(t *testing.T) {
	l, clock := newTestLimiter(2)

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if l.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.Allow("b") {
		t.Fatal("other clients are independent")
	}
	if l.Hits() != 1 {
		t.Errorf("hits = %d, want 1", l.Hits())
	}

	clock.Advance(30 * time.Second)
	if got := l.RetryAfter("a"); got != 30*time.Second {
		t.Errorf("retry after = %v, want 30s", got)
	}

	clock.Advance(30 * time.Second)
	if !l.Allow("a") {
		t.Error("window should reset after the period")
	}
}

func TestCleanup(t *testing.T) {
	l, clock := newTestLimiter(5)
	l.Allow("old")
	clock.Advance(4 * time.Minute)
	l.Allow("fresh")
	clock.Advance(2 * time.Minute)

	if removed := l.Cleanup(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if l.ActiveClients() != 1 {
		t.Errorf("active = %d, want 1", l.ActiveClients())
	}
}

func TestMiddleware(t *testing.T) {
	l, _ := newTestLimiter(1)
	limited := 0
	h := l.Middleware(func(r *http.Request) string { return r.RemoteAddr }, func(*http.Request) { limited++ })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	do := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/events/bar-click", nil)
		r.RemoteAddr = "192.0.2.1:5555"
		h.ServeHTTP(rec, r)
		return rec
	}

	if rec := do(); rec.Code != http.StatusNoContent {
		t.Fatalf("first status = %d", rec.Code)
	}
	rec := do()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if limited != 1 {
		t.Errorf("onLimit calls = %d", limited)
	}
}
