// Package region maps calendar dates onto absolute reset instants.
//
// Game servers flip their day at a fixed local wall-clock hour (commonly
// 4 AM). A date-only string such as "2026-02-05" therefore names the reset
// instant of that date in the viewer's region, never UTC midnight.
package region

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// Offset bounds accepted for a profile, in hours.
const (
	MinOffsetHours = -12
	MaxOffsetHours = 14
)

// ErrInvalidDate is returned when a calendar-date string cannot be parsed.
var ErrInvalidDate = errors.New("invalid calendar date")

// --------------------------------------------------------------------------
// Date
// --------------------------------------------------------------------------

// Date is a civil calendar date with no time-of-day and no zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a YYYY-MM-DD string. Surrounding time components such as
// "2026-02-05T00:00:00Z" are rejected so that no implicit zone leaks in.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w %q: %v", ErrInvalidDate, s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// AddDays returns the date n days later (n may be negative).
func (d Date) AddDays(n int) Date {
	return DateOf(d.midnight().AddDate(0, 0, n))
}

// Weekday returns the day of week of d.
func (d Date) Weekday() time.Weekday {
	return d.midnight().Weekday()
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	return d.midnight().Before(o.midnight())
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return d.midnight().Format(DateLayout)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) midnight() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// --------------------------------------------------------------------------
// Profile
// --------------------------------------------------------------------------

// Profile is the (UTC offset, reset hour) pair that defines where a user's
// game day begins. Zone optionally names an IANA location; when set it
// replaces the coarse offset so daylight-saving transitions are honored.
type Profile struct {
	Name           string  `json:"name,omitempty"`
	UTCOffsetHours float64 `json:"utc_offset_hours"`
	ResetHour      int     `json:"reset_hour"`
	Zone           string  `json:"zone,omitempty"`
}

// Validate checks the profile is within the supported range.
func (p Profile) Validate() error {
	if p.UTCOffsetHours < MinOffsetHours || p.UTCOffsetHours > MaxOffsetHours {
		return fmt.Errorf("utc offset %v outside [%d, %d]", p.UTCOffsetHours, MinOffsetHours, MaxOffsetHours)
	}
	if p.ResetHour < 0 || p.ResetHour > 23 {
		return fmt.Errorf("reset hour %d outside [0, 23]", p.ResetHour)
	}
	if p.Zone != "" {
		if _, err := time.LoadLocation(p.Zone); err != nil {
			return fmt.Errorf("zone %q: %w", p.Zone, err)
		}
	}
	return nil
}

// Location returns the zone the profile's wall clock runs in.
func (p Profile) Location() *time.Location {
	if p.Zone != "" {
		if loc, err := time.LoadLocation(p.Zone); err == nil {
			return loc
		}
	}
	return FixedZone(p.UTCOffsetHours)
}

// Today returns the calendar date of now on the profile's wall clock.
func (p Profile) Today(now time.Time) Date {
	return DateOf(now.In(p.Location()))
}

// FixedZone builds a fixed zone for a possibly fractional hour offset.
func FixedZone(offsetHours float64) *time.Location {
	secs := int(math.Round(offsetHours * 3600))
	return time.FixedZone(zoneName(secs), secs)
}

func zoneName(secs int) string {
	sign := '+'
	if secs < 0 {
		sign = '-'
		secs = -secs
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, secs/3600, (secs%3600)/60)
}

// --------------------------------------------------------------------------
// Reset instants
// --------------------------------------------------------------------------

// ResetInstant returns the UTC instant at which date d begins for the
// profile: ResetHour local wall-clock time, shifted by gameOffsetHours for
// games whose server day starts at a different hour than the region default.
//
// With a coarse offset this is utcHour = ResetHour - offset + gameOffset,
// rolled into the previous or next UTC day when it leaves [0, 24).
func ResetInstant(d Date, p Profile, gameOffsetHours float64) time.Time {
	if p.Zone != "" {
		if loc, err := time.LoadLocation(p.Zone); err == nil {
			local := time.Date(d.Year, d.Month, d.Day, p.ResetHour, 0, 0, 0, loc)
			return local.Add(hours(gameOffsetHours)).UTC()
		}
	}
	base := time.Date(d.Year, d.Month, d.Day, p.ResetHour, 0, 0, 0, time.UTC)
	return base.Add(hours(gameOffsetHours - p.UTCOffsetHours))
}

// ResetInstantForString parses a YYYY-MM-DD string and projects it through
// ResetInstant with no game offset.
func ResetInstantForString(s string, p Profile) (time.Time, error) {
	d, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return ResetInstant(d, p, 0), nil
}

func hours(h float64) time.Duration {
	return time.Duration(math.Round(h * float64(time.Hour)))
}
