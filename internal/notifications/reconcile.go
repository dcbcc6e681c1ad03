package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.uber.org/atomic"

	"github.com/albapepper/eventclock/internal/event"
)

// PreferenceStore holds the user's preferences. EnsureGames must add the
// missing games and return the stored result atomically, without
// overwriting writes made since the caller last read.
type PreferenceStore interface {
	EnsureGames(games []string) (Preferences, error)
}

// Reconciler keeps the platform in line with the latest events. Triggers
// are coalesced: any number of Trigger calls while a sync runs produce at
// most one more sync.
type Reconciler struct {
	scheduler *Scheduler
	events    func() []event.Resolved
	store     PreferenceStore
	pending   chan struct{}
	last      atomic.Pointer[Result]
	logger    *slog.Logger
}

// NewReconciler wires a scheduler to an event source and preference store.
func NewReconciler(s *Scheduler, events func() []event.Resolved, store PreferenceStore, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		scheduler: s,
		events:    events,
		store:     store,
		pending:   make(chan struct{}, 1),
		logger:    logger,
	}
}

// Scheduler returns the underlying scheduler.
func (r *Reconciler) Scheduler() *Scheduler {
	return r.scheduler
}

// Trigger requests a sync without blocking.
func (r *Reconciler) Trigger() {
	select {
	case r.pending <- struct{}{}:
	default:
	}
}

// Run performs triggered syncs until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		select {
		case <-r.pending:
			if _, err := r.SyncNow(ctx); err != nil && ctx.Err() == nil {
				r.logger.Warn("Reminder sync failed", "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// SyncNow loads preferences, adds empty entries for newly seen games, and
// reconciles reminders with the current events.
func (r *Reconciler) SyncNow(ctx context.Context) (Result, error) {
	events := r.events()

	prefs, err := r.store.EnsureGames(gameNames(events))
	if err != nil {
		return Result{}, fmt.Errorf("load preferences: %w", err)
	}

	res, err := r.scheduler.Sync(ctx, events, prefs)
	if err != nil {
		return res, err
	}
	r.last.Store(&res)
	return res, nil
}

// Last returns the result of the most recent successful sync, or nil.
func (r *Reconciler) Last() *Result {
	return r.last.Load()
}

func gameNames(events []event.Resolved) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, e := range events {
		if e.GameName != "" && !seen[e.GameName] {
			seen[e.GameName] = true
			names = append(names, e.GameName)
		}
	}
	sort.Strings(names)
	return names
}
