// Package session keeps each browser's SelectionState on the server.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"donations/internal/cache"
	"donations/internal/core"
	"donations/internal/metrics"
)

// CookieName holds the session id.
const CookieName = "donations_session"

type entry struct {
	mu    sync.Mutex
	state core.SelectionState
}

// Store maps session ids to selection state. Idle sessions expire after the
// configured TTL and the least recently used ones are evicted past capacity.
type Store struct {
	sessions *cache.LRUCache[*entry]
	metrics  *metrics.Metrics
}

func NewStore(maxSessions int, ttl time.Duration, m *metrics.Metrics) *Store {
	s := &Store{metrics: m}
	s.sessions = cache.NewLRUCache(maxSessions, ttl,
		cache.WithEvictHook(func(string, *entry) { m.SessionClosed() }),
	)
	return s
}

// Cache exposes the backing cache so a cache.Manager can sweep it.
func (s *Store) Cache() cache.Cleaner { return s.sessions }

// NewID returns a fresh random session id.
func NewID() string { return uuid.NewString() }

// Valid reports whether id looks like one issued by NewID.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// Do runs fn with the session's current state and stores the state it
// returns. Calls for the same id are serialized; different sessions run in
// parallel. An unknown id starts from the zero state.
func (s *Store) Do(id string, fn func(prior core.SelectionState) core.SelectionState) core.SelectionState {
	e, created := s.sessions.GetOrCreate(id, func() *entry { return &entry{} })
	if created {
		s.metrics.SessionOpened()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = fn(e.state)
	return e.state
}

// Get returns the state of a live session.
func (s *Store) Get(id string) (core.SelectionState, bool) {
	e, ok := s.sessions.Get(id)
	if !ok {
		return core.SelectionState{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state, true
}

// Delete forgets a session.
func (s *Store) Delete(id string) {
	if _, ok := s.sessions.Get(id); ok {
		s.sessions.Delete(id)
		s.metrics.SessionClosed()
	}
}

func (s *Store) Len() int { return s.sessions.Size() }
