// Package cycle computes the next boundary of recurring game events.
//
// Weekly and monthly calculators return a calendar date in the region's
// wall-clock frame; callers project it to an instant with region.ResetInstant.
// Fixed-duration cycles and complex windows work on instants directly.
package cycle

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/albapepper/eventclock/internal/region"
)

var rruleWeekdays = [7]rrule.Weekday{
	rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA,
}

// NextWeekly returns the date of the next weekly reset on resetDay.
//
// daysUntil = (resetDay - today + 7) mod 7, and a reset that has already
// happened today (local hour >= resetHour) moves to next week. now is read
// in loc, the region's wall-clock zone.
func NextWeekly(now time.Time, resetDay time.Weekday, resetHour int, loc *time.Location) (region.Date, error) {
	local := now.In(loc)
	dtstart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	r, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   dtstart,
		Byweekday: []rrule.Weekday{rruleWeekdays[resetDay]},
		Byhour:    []int{resetHour},
		Byminute:  []int{0},
		Bysecond:  []int{0},
	})
	if err != nil {
		return region.Date{}, fmt.Errorf("weekly rule: %w", err)
	}

	// The first reset strictly after the current hour bucket.
	hourStart := time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, loc)
	next := r.After(hourStart, false)
	if next.IsZero() {
		return region.Date{}, fmt.Errorf("weekly rule produced no occurrence after %s", hourStart)
	}
	return region.DateOf(next.In(loc)), nil
}

// PreviousWeekly returns the reset date one week before next.
func PreviousWeekly(next region.Date) region.Date {
	return next.AddDays(-7)
}

// NextMonthly returns the date of the next monthly reset on resetDay,
// clamped to the last day of months that are too short.
func NextMonthly(now time.Time, resetDay, resetHour int, loc *time.Location) region.Date {
	local := now.In(loc)
	year, month, day := local.Date()

	target := clampedDay(year, month, resetDay)
	if day > target || (day == target && local.Hour() >= resetHour) {
		year, month = addMonth(year, month, 1)
		target = clampedDay(year, month, resetDay)
	}
	return region.Date{Year: year, Month: month, Day: target}
}

// PreviousMonthly returns the clamped reset date one month before next.
func PreviousMonthly(next region.Date, resetDay int) region.Date {
	year, month := addMonth(next.Year, next.Month, -1)
	return region.Date{Year: year, Month: month, Day: clampedDay(year, month, resetDay)}
}

func clampedDay(year int, month time.Month, day int) int {
	if n := region.DaysIn(year, month); day > n {
		return n
	}
	return day
}

func addMonth(year int, month time.Month, n int) (int, time.Month) {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return t.Year(), t.Month()
}

// NextFixed returns the end of the fixed-length cycle containing now.
// Cycles repeat every days days from origin, forever in both directions.
// The result is always strictly after now.
func NextFixed(now, origin time.Time, days int) time.Time {
	if days <= 0 {
		panic("cycle: non-positive cycle length")
	}
	period := int64(days) * 24 * 60 * 60
	elapsed := now.Unix() - origin.Unix()
	elapsedCycles := floorDiv(elapsed, period)

	end := time.Unix(origin.Unix()+(elapsedCycles+1)*period, int64(origin.Nanosecond())).UTC()
	for !end.After(now) {
		end = end.Add(time.Duration(period) * time.Second)
	}
	return end
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
