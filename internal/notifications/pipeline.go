package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/albapepper/eventclock/internal/event"
)

// Platform delivers reminders. Identifiers are opaque to it.
type Platform interface {
	// Schedule creates or replaces the reminder with the given identifier.
	Schedule(ctx context.Context, d Desired) error
	// Cancel removes a reminder. Unknown identifiers are not an error.
	Cancel(ctx context.Context, identifier string) error
	// ListScheduled returns the reminders that are pending delivery.
	ListScheduled(ctx context.Context) ([]Scheduled, error)
	// Authorized reports whether reminders may currently be delivered.
	Authorized(ctx context.Context) (bool, error)
}

// Result summarizes one scheduling pass.
type Result struct {
	Desired   int  `json:"desired"`
	Scheduled int  `json:"scheduled"`
	Cancelled int  `json:"cancelled"`
	Failed    int  `json:"failed"`
	Permitted bool `json:"permitted"`
}

// Scheduler runs the desired-set → diff → apply pipeline against a
// platform. Passes are serialized.
type Scheduler struct {
	mu       sync.Mutex
	platform Platform
	now      func() time.Time
	logger   *slog.Logger
}

// NewScheduler creates a scheduler. A nil logger uses slog.Default().
func NewScheduler(platform Platform, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{platform: platform, now: time.Now, logger: logger}
}

// SetClock overrides the time source. Used by tests and the CLI.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// Plan computes what a Sync would do without touching the platform state.
func (s *Scheduler) Plan(ctx context.Context, events []event.Resolved, prefs Preferences) ([]Desired, []Desired, []string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	desired := ComputeDesiredSet(events, prefs, s.now())
	current, err := s.platform.ListScheduled(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("list scheduled: %w", err)
	}
	toSchedule, toCancel := Diff(desired, current)
	return desired, toSchedule, toCancel, nil
}

// Sync reconciles the platform with the reminders events and prefs call
// for. Stale reminders are cancelled even without permission; when
// permission is missing nothing new is scheduled and Result.Permitted is
// false. Only listing failures are returned as errors; individual
// schedule/cancel failures are counted in Result.Failed.
func (s *Scheduler) Sync(ctx context.Context, events []event.Resolved, prefs Preferences) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	desired := ComputeDesiredSet(events, prefs, s.now())
	res := Result{Desired: len(desired), Permitted: true}

	current, err := s.platform.ListScheduled(ctx)
	if err != nil {
		return res, fmt.Errorf("list scheduled: %w", err)
	}
	toSchedule, toCancel := Diff(desired, current)

	for _, id := range toCancel {
		if err := s.platform.Cancel(ctx, id); err != nil {
			s.logger.Warn("cancel reminder failed", "identifier", id, "error", err)
			res.Failed++
			continue
		}
		res.Cancelled++
	}

	if len(toSchedule) > 0 {
		ok, err := s.platform.Authorized(ctx)
		if err != nil {
			s.logger.Warn("permission check failed", "error", err)
		}
		if !ok {
			res.Permitted = false
			s.logger.Info("Reminder scheduling not permitted",
				"pending", len(toSchedule), "cancelled", res.Cancelled)
			return res, nil
		}
	}

	for _, d := range toSchedule {
		if err := s.platform.Schedule(ctx, d); err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				res.Permitted = false
				break
			}
			s.logger.Warn("schedule reminder failed", "identifier", d.Identifier(), "error", err)
			res.Failed++
			continue
		}
		res.Scheduled++
	}

	if res.Scheduled+res.Cancelled+res.Failed > 0 {
		s.logger.Info("Reminders synced",
			"desired", res.Desired, "scheduled", res.Scheduled,
			"cancelled", res.Cancelled, "failed", res.Failed)
	}
	return res, nil
}

// List returns the reminders currently pending on the platform.
func (s *Scheduler) List(ctx context.Context) ([]Scheduled, error) {
	return s.platform.ListScheduled(ctx)
}
