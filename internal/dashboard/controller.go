// Package dashboard turns user interactions into consistent sets of figures.
//
// A Controller is a small state machine over core.SelectionState. Each event
// is dispatched through a table of handlers; a successful handler yields the
// next state plus every pane that depends on it, a failing one leaves the
// prior state in place and re-renders the dashboard for it.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"donations/internal/core"
	"donations/internal/figures"
	"donations/internal/metrics"
	"donations/internal/source"
)

type EventKind string

const (
	EventInit           EventKind = "init"
	EventBarClick       EventKind = "bar_click"
	EventDropdownChange EventKind = "dropdown_change"
)

// Event is one user interaction. Label is set for bar clicks, Alias for
// dropdown changes.
type Event struct {
	Kind      EventKind
	Label     string
	Alias     string
	SessionID string
}

// Update carries every artifact of one transition. Bar is set when the whole
// bar figure must be (re)drawn, BarPatch when only its highlight moves.
type Update struct {
	State      core.SelectionState `json:"state"`
	Alias      string              `json:"alias"`
	Highlight  int                 `json:"highlight"`
	Bar        *figures.Figure     `json:"bar,omitempty"`
	BarPatch   *figures.Restyle    `json:"bar_patch,omitempty"`
	Timeseries figures.Figure      `json:"timeseries"`
	Map        figures.Figure      `json:"map"`
	Diagnostic string              `json:"diagnostic,omitempty"`
}

// Handler computes the transition for one event kind.
type Handler func(ctx context.Context, prior core.SelectionState, ev Event) (core.SelectionState, Update, error)

// Directory resolves schools by display name or dropdown alias.
type Directory interface {
	ByName(name string) (core.School, error)
	ByAlias(alias string) (core.School, error)
}

// Publisher receives successful selection changes.
type Publisher interface {
	PublishSelection(ctx context.Context, ev core.SelectionEvent) error
}

type Controller struct {
	source    source.DonationSource
	schools   Directory
	def       core.School
	handlers  map[EventKind]Handler
	publisher Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	timeout   time.Duration
	now       func() time.Time
}

type Option func(*Controller)

func WithPublisher(p Publisher) Option { return func(c *Controller) { c.publisher = p } }

func WithMetrics(m *metrics.Metrics) Option { return func(c *Controller) { c.metrics = m } }

func WithLogger(l *slog.Logger) Option { return func(c *Controller) { c.logger = l } }

// WithQueryTimeout bounds the data queries of one dispatch.
func WithQueryTimeout(d time.Duration) Option { return func(c *Controller) { c.timeout = d } }

// New builds a controller. defaultSchool must be a name in schools.
func New(src source.DonationSource, schools Directory, defaultSchool string, opts ...Option) (*Controller, error) {
	def, err := schools.ByName(defaultSchool)
	if err != nil {
		return nil, fmt.Errorf("default school: %w", err)
	}
	c := &Controller{
		source:  src,
		schools: schools,
		def:     def,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "dashboard")
	c.handlers = map[EventKind]Handler{
		EventInit:           c.handleInit,
		EventBarClick:       c.handleBarClick,
		EventDropdownChange: c.handleDropdownChange,
	}
	return c, nil
}

// Default is the state of a fresh session.
func (c *Controller) Default() core.SelectionState {
	return core.SelectionState{School: c.def.Name}
}

// Dispatch applies ev to prior. It never fails: on error the update
// describes the prior state and carries a Diagnostic.
func (c *Controller) Dispatch(ctx context.Context, prior core.SelectionState, ev Event) Update {
	start := c.now()

	var (
		next core.SelectionState
		up   Update
		err  error
	)
	if h, ok := c.handlers[ev.Kind]; ok {
		next, up, err = h(ctx, prior, ev)
	} else {
		err = fmt.Errorf("%w: unknown event kind %q", core.ErrMalformedEvent, ev.Kind)
	}

	if err == nil {
		c.metrics.ObserveDispatch(string(ev.Kind), metrics.OutcomeOK, c.now().Sub(start))
		c.logger.DebugContext(ctx, "Selection updated",
			"event_kind", ev.Kind, "session_id", ev.SessionID, "school", next.School, "highlight", up.Highlight)
		c.publish(ctx, ev, up)
		return up
	}

	up = c.fallback(ctx, prior, err)
	c.metrics.ObserveDispatch(string(ev.Kind), metrics.OutcomeFallback, c.now().Sub(start))
	c.logger.WarnContext(ctx, "Event rejected, keeping prior selection",
		"event_kind", ev.Kind, "session_id", ev.SessionID, "label", ev.Label, "alias", ev.Alias,
		"school", up.State.School, "error", err)
	return up
}

func (c *Controller) handleInit(ctx context.Context, prior core.SelectionState, _ Event) (core.SelectionState, Update, error) {
	school := c.resolveState(prior)
	up, err := c.render(ctx, school, true)
	return up.State, up, err
}

func (c *Controller) handleBarClick(ctx context.Context, prior core.SelectionState, ev Event) (core.SelectionState, Update, error) {
	if ev.Label == "" {
		return prior, Update{}, fmt.Errorf("%w: bar click without label", core.ErrMalformedEvent)
	}
	school, err := c.schools.ByName(ev.Label)
	if err != nil {
		return prior, Update{}, err
	}
	up, err := c.render(ctx, school, false)
	if err != nil {
		return prior, Update{}, err
	}
	return up.State, up, nil
}

func (c *Controller) handleDropdownChange(ctx context.Context, prior core.SelectionState, ev Event) (core.SelectionState, Update, error) {
	if ev.Alias == "" {
		return prior, Update{}, fmt.Errorf("%w: dropdown change without alias", core.ErrMalformedEvent)
	}
	school, err := c.schools.ByAlias(ev.Alias)
	if err != nil {
		return prior, Update{}, err
	}
	up, err := c.render(ctx, school, true)
	if err != nil {
		return prior, Update{}, err
	}
	return up.State, up, nil
}

// resolveState maps a stored state back to a directory entry, using the
// default school for fresh or stale sessions.
func (c *Controller) resolveState(s core.SelectionState) core.School {
	if s.IsZero() {
		return c.def
	}
	school, err := c.schools.ByName(s.School)
	if err != nil {
		return c.def
	}
	return school
}

// render runs the three queries concurrently and builds every pane for school.
// With fullBar unset the bar is not rebuilt and a highlight patch is returned.
func (c *Controller) render(ctx context.Context, school core.School, fullBar bool) (Update, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var (
		rows   []core.AggregateRow
		series []core.DonationRecord
		geo    []core.DonationRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		rows, err = c.source.AggregateTotals(gctx)
		return err
	})
	g.Go(func() (err error) {
		series, err = c.source.Timeseries(gctx, school.Name)
		return err
	})
	g.Go(func() (err error) {
		geo, err = c.source.Geo(gctx, school.Name)
		return err
	})
	if err := g.Wait(); err != nil {
		return Update{}, fmt.Errorf("query %s: %w", school.Name, err)
	}

	up := Update{
		State:      core.SelectionState{School: school.Name},
		Alias:      school.Alias,
		Highlight:  core.IndexOf(rows, school.Name),
		Timeseries: figures.Timeseries(series, school.Name),
		Map:        figures.Map(geo, school.Name),
	}
	if fullBar {
		bar, err := figures.Bar(rows, up.Highlight)
		if err != nil {
			return Update{}, err
		}
		up.Bar = &bar
	} else {
		patch, err := figures.BarHighlight(rows, up.Highlight)
		if err != nil {
			return Update{}, err
		}
		up.BarPatch = &patch
	}
	return up, nil
}

// fallback re-renders the prior state. When even that fails the panes are
// empty but the state and diagnostic are still reported.
func (c *Controller) fallback(ctx context.Context, prior core.SelectionState, cause error) Update {
	school := c.resolveState(prior)
	up, err := c.render(ctx, school, true)
	if err != nil {
		c.logger.ErrorContext(ctx, "Fallback render failed", "school", school.Name, "error", err)
		bar, _ := figures.Bar(nil, -1)
		up = Update{
			State:      core.SelectionState{School: school.Name},
			Alias:      school.Alias,
			Highlight:  -1,
			Bar:        &bar,
			Timeseries: figures.Timeseries(nil, school.Name),
			Map:        figures.Map(nil, school.Name),
		}
		cause = errors.Join(cause, err)
	}
	up.Diagnostic = diagnostic(cause, school.Name)
	return up
}

func diagnostic(err error, school string) string {
	switch {
	case errors.Is(err, core.ErrUnknownSchool):
		return fmt.Sprintf("No school matches that selection; still showing %s.", school)
	case errors.Is(err, core.ErrMalformedEvent):
		return fmt.Sprintf("The selection could not be read; still showing %s.", school)
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("The data source timed out; still showing %s.", school)
	default:
		return fmt.Sprintf("The data source is unavailable; still showing %s.", school)
	}
}

func (c *Controller) publish(ctx context.Context, ev Event, up Update) {
	if c.publisher == nil {
		return
	}
	err := c.publisher.PublishSelection(ctx, core.SelectionEvent{
		SessionID: ev.SessionID,
		Kind:      string(ev.Kind),
		School:    up.State.School,
		Alias:     up.Alias,
		At:        c.now().UTC(),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to publish selection event", "school", up.State.School, "error", err)
	}
}
