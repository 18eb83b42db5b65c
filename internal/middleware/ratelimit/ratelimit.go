// Package ratelimit implements a per-client fixed-window request limiter.
package ratelimit

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

type Limiter struct {
	mu      sync.Mutex
	clients map[string]*window
	now     func() time.Time
	hits    int64

	limit    int
	period   time.Duration
	staleTTL time.Duration
}

type window struct {
	start    time.Time
	requests int
}

type Config struct {
	Requests int
	Period   time.Duration
	// StaleAfter is how long an idle client is remembered.
	StaleAfter time.Duration
}

// DefaultConfig allows bursts of clicking without letting a single client
// monopolise the query backend.
func DefaultConfig() Config {
	return Config{
		Requests:   120,
		Period:     time.Minute,
		StaleAfter: 10 * time.Minute,
	}
}

type Option func(*Limiter)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

func NewLimiter(cfg Config, opts ...Option) *Limiter {
	def := DefaultConfig()
	if cfg.Requests <= 0 {
		cfg.Requests = def.Requests
	}
	if cfg.Period <= 0 {
		cfg.Period = def.Period
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = def.StaleAfter
	}
	l := &Limiter{
		clients:  make(map[string]*window),
		now:      time.Now,
		limit:    cfg.Requests,
		period:   cfg.Period,
		staleTTL: cfg.StaleAfter,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.period {
		l.clients[key] = &window{start: now, requests: 1}
		return true
	}
	w.requests++
	if w.requests > l.limit {
		atomic.AddInt64(&l.hits, 1)
		return false
	}
	return true
}

// RetryAfter is the time until key's current window resets.
func (l *Limiter) RetryAfter(key string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.clients[key]
	if !ok {
		return 0
	}
	if d := w.start.Add(l.period).Sub(l.now()); d > 0 {
		return d
	}
	return 0
}

// Cleanup forgets clients idle for longer than StaleAfter and returns how
// many were removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.staleTTL)
	removed := 0
	for key, w := range l.clients {
		if w.start.Before(cutoff) {
			delete(l.clients, key)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (l *Limiter) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// Hits is the number of rejected requests since start.
func (l *Limiter) Hits() int64 {
	return atomic.LoadInt64(&l.hits)
}

// Middleware rejects requests over the limit. onLimit, when non-nil, is
// called after the 429 response is written.
func (l *Limiter) Middleware(keyFn func(*http.Request) string, onLimit func(*http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFn(r)
			if !l.Allow(key) {
				secs := int(l.RetryAfter(key).Round(time.Second) / time.Second)
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				if onLimit != nil {
					onLimit(r)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
