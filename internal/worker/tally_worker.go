// Package worker contains the background consumer for selection events.
package worker

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"donations/internal/amqp"
	"donations/internal/core"
	"donations/internal/metrics"
)

// SchoolResolver reports whether a school is known; the worker rejects
// events for anything else.
type SchoolResolver interface {
	ByName(name string) (core.School, error)
}

// Tally is the view count of one school.
type Tally struct {
	School string
	Views  int
	ByKind map[string]int
	Last   time.Time
}

// TallyWorker keeps per-school view counts from selection events.
type TallyWorker struct {
	schools SchoolResolver
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	tallies map[string]*Tally
	total   int
}

func NewTallyWorker(schools SchoolResolver, m *metrics.Metrics, logger *slog.Logger) *TallyWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &TallyWorker{
		schools: schools,
		metrics: m,
		logger:  logger.With("component", "worker"),
		tallies: make(map[string]*Tally),
	}
}

// HandleSelection counts one event. Unknown schools are reported as malformed
// so the message is rejected rather than requeued.
func (w *TallyWorker) HandleSelection(ctx context.Context, msg *amqp.SelectionMessage) error {
	if w.schools != nil {
		if _, err := w.schools.ByName(msg.School); err != nil {
			w.metrics.EventConsumed("rejected")
			return fmt.Errorf("%w: %v", core.ErrMalformedEvent, err)
		}
	}

	w.mu.Lock()
	t, ok := w.tallies[msg.School]
	if !ok {
		t = &Tally{School: msg.School, ByKind: make(map[string]int)}
		w.tallies[msg.School] = t
	}
	t.Views++
	t.ByKind[msg.Kind]++
	if msg.At.After(t.Last) {
		t.Last = msg.At
	}
	w.total++
	w.mu.Unlock()

	w.metrics.EventConsumed("ok")
	w.logger.DebugContext(ctx, "Selection counted", "school", msg.School, "event_kind", msg.Kind, "session_id", msg.SessionID)
	return nil
}

// Snapshot returns a copy of the tallies, most viewed first, ties by name.
func (w *TallyWorker) Snapshot() []Tally {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Tally, 0, len(w.tallies))
	for _, t := range w.tallies {
		c := *t
		c.ByKind = make(map[string]int, len(t.ByKind))
		for k, v := range t.ByKind {
			c.ByKind[k] = v
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Tally) int {
		if n := cmp.Compare(b.Views, a.Views); n != 0 {
			return n
		}
		return cmp.Compare(a.School, b.School)
	})
	return out
}

// Total is the number of events counted so far.
func (w *TallyWorker) Total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.total
}

// LogSummary writes the top schools to the log.
func (w *TallyWorker) LogSummary(ctx context.Context, top int) {
	snap := w.Snapshot()
	w.logger.InfoContext(ctx, "Selection tally", "events", w.Total(), "schools", len(snap))
	if len(snap) > top {
		snap = snap[:top]
	}
	for i, t := range snap {
		w.logger.InfoContext(ctx, "Selection tally entry", "rank", i+1, "school", t.School, "views", t.Views)
	}
}

// RunSummary logs the tally every interval until ctx is cancelled.
func (w *TallyWorker) RunSummary(ctx context.Context, interval time.Duration, top int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.LogSummary(context.Background(), top)
			return
		case <-ticker.C:
			w.LogSummary(ctx, top)
		}
	}
}
