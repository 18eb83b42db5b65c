package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"donations/internal/amqp"
	"donations/internal/core"
	"donations/internal/metrics"
	"donations/internal/schools"
)

func newWorker() *TallyWorker {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := schools.NewDirectory([]schools.Entry{
		{Name: "Stanford University", Alias: "stanford"},
		{Name: "Yale University", Alias: "yale"},
		{Name: "Carnegie Mellon University", Alias: "cmu"},
	}, logger)
	return NewTallyWorker(dir, metrics.New(), logger)
}

func msg(kind, school string) *amqp.SelectionMessage {
	return amqp.NewSelectionMessage(core.SelectionEvent{Kind: kind, School: school, At: time.Now()})
}

func TestTallyCountsAndOrders(t *testing.T) {
	w := newWorker()
	ctx := context.Background()
	events := []*amqp.SelectionMessage{
		msg("bar_click", "Yale University"),
		msg("dropdown_change", "Stanford University"),
		msg("bar_click", "Stanford University"),
		msg("init", "Carnegie Mellon University"),
		msg("init", "Yale University"),
	}
	for _, m := range events {
		if err := w.HandleSelection(ctx, m); err != nil {
			t.Fatalf("HandleSelection: %v", err)
		}
	}

	snap := w.Snapshot()
	want := []struct {
		school string
		views  int
	}{
		{"Stanford University", 2},
		{"Yale University", 2},
		{"Carnegie Mellon University", 1},
	}
	if len(snap) != len(want) {
		t.Fatalf("got %d tallies", len(snap))
	}
	for i, tt := range want {
		if snap[i].School != tt.school || snap[i].Views != tt.views {
			t.Errorf("rank %d: got %s=%d, want %s=%d", i, snap[i].School, snap[i].Views, tt.school, tt.views)
		}
	}
	if snap[0].ByKind["bar_click"] != 1 || snap[0].ByKind["dropdown_change"] != 1 {
		t.Errorf("by kind: %v", snap[0].ByKind)
	}
	if w.Total() != 5 {
		t.Errorf("total = %d", w.Total())
	}
}

func TestTallyRejectsUnknownSchool(t *testing.T) {
	w := newWorker()
	err := w.HandleSelection(context.Background(), msg("bar_click", "Hogwarts"))
	if !errors.Is(err, core.ErrMalformedEvent) {
		t.Fatalf("expected ErrMalformedEvent, got %v", err)
	}
	if w.Total() != 0 {
		t.Errorf("unknown school was counted")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	w := newWorker()
	_ = w.HandleSelection(context.Background(), msg("init", "Yale University"))
	snap := w.Snapshot()
	snap[0].ByKind["init"] = 99
	if w.Snapshot()[0].ByKind["init"] != 1 {
		t.Error("snapshot shares state with the worker")
	}
}

func TestRunSummaryStops(t *testing.T) {
	w := newWorker()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.RunSummary(ctx, time.Millisecond, 3)
		close(done)
	}()
	time.Sleep(5 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunSummary did not stop")
	}
}
