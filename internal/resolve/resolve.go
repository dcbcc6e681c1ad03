// Package resolve turns declarative recurrence rules into concrete
// occurrence windows for a region and an instant.
//
// Resolution is pure: the same (definition, profile, now) always yields the
// same occurrence, and definitions are never modified.
package resolve

import (
	"fmt"
	"time"

	"github.com/albapepper/eventclock/internal/cycle"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
)

// Resolve computes the occurrence of def that is current (or next) at now.
//
// Weekly, monthly and fixed-duration cycles are projected through the
// region's reset hour. Complex windows are already exact instants from
// server-zone time-of-day math and are never re-projected.
func Resolve(def event.Definition, profile region.Profile, now time.Time) (event.Occurrence, error) {
	occ := event.Occurrence{EventID: def.ID}

	switch rule := def.Recurrence.(type) {
	case event.Weekly:
		next, err := cycle.NextWeekly(now, rule.ResetDay, profile.ResetHour, profile.Location())
		if err != nil {
			return occ, fmt.Errorf("resolve %s: %w", def.ID, err)
		}
		occ.Start = region.ResetInstant(cycle.PreviousWeekly(next), profile, 0)
		occ.Expiry = region.ResetInstant(next, profile, 0)
		occ.Status = event.StatusOngoing

	case event.Monthly:
		next := cycle.NextMonthly(now, rule.ResetDay, profile.ResetHour, profile.Location())
		occ.Start = region.ResetInstant(cycle.PreviousMonthly(next, rule.ResetDay), profile, 0)
		occ.Expiry = region.ResetInstant(next, profile, 0)
		occ.Status = event.StatusOngoing

	case event.FixedDuration:
		origin := region.ResetInstant(rule.Origin, profile, rule.GameOffsetHours)
		occ.Expiry = cycle.NextFixed(now, origin, rule.DurationDays)
		occ.Start = occ.Expiry.AddDate(0, 0, -rule.DurationDays)
		occ.Status = event.StatusOngoing

	case event.ComplexWindow:
		state, err := rule.Window().Classify(now)
		if err != nil {
			return occ, fmt.Errorf("resolve %s: %w", def.ID, err)
		}
		occ.Start = state.Start
		occ.Expiry = state.End
		occ.Status = event.StatusUpcoming
		if state.Ongoing {
			occ.Status = event.StatusOngoing
		}

	case nil:
		return occ, fmt.Errorf("resolve %s: no recurrence rule", def.ID)

	default:
		return occ, fmt.Errorf("resolve %s: unsupported recurrence %T", def.ID, rule)
	}

	return occ, nil
}

// All resolves every definition. Definitions that fail to resolve are
// returned separately so one bad rule cannot hide the rest.
func All(defs []event.Definition, profile region.Profile, now time.Time) ([]event.Resolved, []error) {
	out := make([]event.Resolved, 0, len(defs))
	var errs []error
	for _, def := range defs {
		occ, err := Resolve(def, profile, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, event.FromOccurrence(def, occ))
	}
	return out, errs
}
