package cycle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/albapepper/eventclock/internal/region"
)

// Clock is a time of day in minutes after midnight.
type Clock int

// ParseClock parses "HH:MM" (24-hour). "24:00" is accepted as end of day.
func ParseClock(s string) (Clock, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("clock %q: want HH:MM", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("clock %q: hour: %w", s, err)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("clock %q: minute: %w", s, err)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("clock %q: out of range", s)
	}
	return Clock(h*60 + m), nil
}

// Hour returns the hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minute returns the minute component.
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Window is a weekly repeating [start, end) span expressed in a server zone.
// EndDays lists the weekdays on which a window closes; when empty it mirrors
// StartDays, shifted a day when End is not after Start.
type Window struct {
	StartDays []time.Weekday
	EndDays   []time.Weekday
	Start     Clock
	End       Clock
	Server    *time.Location
}

// WindowState classifies now against a Window.
type WindowState struct {
	Ongoing bool
	// Start is the opening instant of the current (ongoing) or next
	// (upcoming) window; End is the close of that same window.
	Start time.Time
	End   time.Time
}

// ShiftDays moves each weekday by n days, modulo 7.
func ShiftDays(days []time.Weekday, n int) []time.Weekday {
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(((int(d)+n)%7 + 7) % 7)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// endDays returns the effective closing weekdays.
func (w Window) endDays() []time.Weekday {
	if len(w.EndDays) > 0 {
		return w.EndDays
	}
	if w.End <= w.Start {
		return ShiftDays(w.StartDays, 1)
	}
	return w.StartDays
}

// Convert re-expresses the window in another fixed offset. A clock that
// crosses midnight after conversion moves its weekday set by the same number
// of days (for example 22:00 at UTC+1 becomes 05:00 the next day at UTC+8).
// The result's clocks are read in the viewer's fixed zone.
func (w Window) Convert(serverOffsetHours, viewerOffsetHours float64) Window {
	shift := int((viewerOffsetHours - serverOffsetHours) * 60)

	start, startDays := shiftClock(w.Start, shift)
	end, endDays := shiftClock(w.End, shift)

	return Window{
		StartDays: ShiftDays(w.StartDays, startDays),
		EndDays:   ShiftDays(w.endDays(), endDays),
		Start:     start,
		End:       end,
		Server:    region.FixedZone(viewerOffsetHours),
	}
}

func shiftClock(c Clock, minutes int) (Clock, int) {
	total := int(c) + minutes
	days := 0
	for total >= 24*60 {
		total -= 24 * 60
		days++
	}
	for total < 0 {
		total += 24 * 60
		days--
	}
	return Clock(total), days
}

// Classify determines whether now falls inside a window or, if not, which
// window comes next. It covers four cases: before today's opening, inside an
// open window, after today's close, and days with no window at all.
func (w Window) Classify(now time.Time) (WindowState, error) {
	if len(w.StartDays) == 0 {
		return WindowState{}, fmt.Errorf("window has no start days")
	}
	loc := w.Server
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	// One full week of look-back is enough to find the latest boundary.
	dtstart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -8)

	starts, err := weeklyAt(dtstart, w.StartDays, w.Start)
	if err != nil {
		return WindowState{}, fmt.Errorf("window starts: %w", err)
	}
	ends, err := weeklyAt(dtstart, w.endDays(), w.End)
	if err != nil {
		return WindowState{}, fmt.Errorf("window ends: %w", err)
	}

	lastStart := starts.Before(now, true)
	lastEnd := ends.Before(now, true)
	if !lastStart.IsZero() && (lastEnd.IsZero() || lastStart.After(lastEnd)) {
		return WindowState{
			Ongoing: true,
			Start:   lastStart.UTC(),
			End:     ends.After(now, false).UTC(),
		}, nil
	}

	nextStart := starts.After(now, false)
	return WindowState{
		Start: nextStart.UTC(),
		End:   ends.After(nextStart, false).UTC(),
	}, nil
}

// weeklyAt builds a weekly rule firing at clock c on each of days. A 24:00
// clock fires at 00:00 of the following weekday.
func weeklyAt(dtstart time.Time, days []time.Weekday, c Clock) (*rrule.RRule, error) {
	if c == 24*60 {
		days = ShiftDays(days, 1)
		c = 0
	}
	byweekday := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		byweekday = append(byweekday, rruleWeekdays[d])
	}
	return rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   dtstart,
		Byweekday: byweekday,
		Byhour:    []int{c.Hour()},
		Byminute:  []int{c.Minute()},
		Bysecond:  []int{0},
	})
}
