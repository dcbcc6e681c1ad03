package event

import (
	"fmt"
	"time"

	"github.com/albapepper/eventclock/internal/cycle"
	"github.com/albapepper/eventclock/internal/region"
)

// Kind names a recurrence rule variant.
type Kind string

const (
	KindWeekly        Kind = "weekly"
	KindMonthly       Kind = "monthly"
	KindFixedDuration Kind = "fixed_duration"
	KindComplexWindow Kind = "complex_window"
)

// Rule is a recurrence rule. The set of implementations is closed:
// Weekly, Monthly, FixedDuration and ComplexWindow.
type Rule interface {
	Kind() Kind
	Validate() error
	isRule()
}

// Weekly resets every week on ResetDay at the region's reset hour.
type Weekly struct {
	ResetDay time.Weekday
}

// Monthly resets every month on ResetDay, clamped to short months.
type Monthly struct {
	ResetDay int
}

// FixedDuration repeats DurationDays-long cycles from Origin forever.
// GameOffsetHours shifts the reset hour for games that do not reset at the
// region default.
type FixedDuration struct {
	Origin          region.Date
	DurationDays    int
	GameOffsetHours float64
}

// ComplexWindow opens on StartDays at StartTime and closes on EndDays at
// EndTime, with times given in the game server's zone. EndDays may be empty,
// in which case the window closes on the day it opened (or the next day when
// EndTime is not after StartTime).
type ComplexWindow struct {
	StartDays         []time.Weekday
	EndDays           []time.Weekday
	StartTime         cycle.Clock
	EndTime           cycle.Clock
	ServerOffsetHours float64
	ServerZone        string
}

func (Weekly) Kind() Kind        { return KindWeekly }
func (Monthly) Kind() Kind       { return KindMonthly }
func (FixedDuration) Kind() Kind { return KindFixedDuration }
func (ComplexWindow) Kind() Kind { return KindComplexWindow }

func (Weekly) isRule()        {}
func (Monthly) isRule()       {}
func (FixedDuration) isRule() {}
func (ComplexWindow) isRule() {}

// Validate checks ResetDay is a weekday.
func (r Weekly) Validate() error {
	if r.ResetDay < time.Sunday || r.ResetDay > time.Saturday {
		return fmt.Errorf("weekly reset day %d outside 0..6", r.ResetDay)
	}
	return nil
}

// Validate checks ResetDay is a day of month.
func (r Monthly) Validate() error {
	if r.ResetDay < 1 || r.ResetDay > 31 {
		return fmt.Errorf("monthly reset day %d outside 1..31", r.ResetDay)
	}
	return nil
}

// Validate checks the cycle has a positive length and an origin.
func (r FixedDuration) Validate() error {
	if r.DurationDays <= 0 {
		return fmt.Errorf("fixed duration %d days must be positive", r.DurationDays)
	}
	if r.Origin.IsZero() {
		return fmt.Errorf("fixed duration has no origin")
	}
	if r.GameOffsetHours <= -24 || r.GameOffsetHours >= 24 {
		return fmt.Errorf("game offset %v hours outside (-24, 24)", r.GameOffsetHours)
	}
	return nil
}

// Validate checks days, clocks and the server zone.
func (r ComplexWindow) Validate() error {
	if len(r.StartDays) == 0 {
		return fmt.Errorf("complex window has no start days")
	}
	for _, d := range append(append([]time.Weekday{}, r.StartDays...), r.EndDays...) {
		if d < time.Sunday || d > time.Saturday {
			return fmt.Errorf("complex window day %d outside 0..6", d)
		}
	}
	if r.StartTime == r.EndTime && len(r.EndDays) == 0 {
		return fmt.Errorf("complex window start and end are both %s", r.StartTime)
	}
	if r.ServerOffsetHours < region.MinOffsetHours || r.ServerOffsetHours > region.MaxOffsetHours {
		return fmt.Errorf("server offset %v outside [%d, %d]", r.ServerOffsetHours, region.MinOffsetHours, region.MaxOffsetHours)
	}
	if r.ServerZone != "" {
		if _, err := time.LoadLocation(r.ServerZone); err != nil {
			return fmt.Errorf("server zone %q: %w", r.ServerZone, err)
		}
	}
	return nil
}

// ServerLocation returns the zone the window's clocks are expressed in.
func (r ComplexWindow) ServerLocation() *time.Location {
	if r.ServerZone != "" {
		if loc, err := time.LoadLocation(r.ServerZone); err == nil {
			return loc
		}
	}
	return region.FixedZone(r.ServerOffsetHours)
}

// Window returns the cycle-level window in the server zone.
func (r ComplexWindow) Window() cycle.Window {
	return cycle.Window{
		StartDays: r.StartDays,
		EndDays:   r.EndDays,
		Start:     r.StartTime,
		End:       r.EndTime,
		Server:    r.ServerLocation(),
	}
}

// ForViewer re-expresses the window on a viewer's clock at the given offset,
// shifting weekday sets when a time crosses midnight.
func (r ComplexWindow) ForViewer(viewerOffsetHours float64) cycle.Window {
	return r.Window().Convert(r.ServerOffsetHours, viewerOffsetHours)
}
