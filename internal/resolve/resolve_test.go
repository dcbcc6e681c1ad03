package resolve_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/eventclock/internal/cycle"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
	"github.com/albapepper/eventclock/internal/resolve"
)

var (
	europe = region.Profile{Name: "europe", UTCOffsetHours: 1, ResetHour: 4}
	asia   = region.Profile{Name: "asia", UTCOffsetHours: 8, ResetHour: 4}
)

func TestResolveWeekly(t *testing.T) {
	def := event.Definition{ID: "weekly-boss", Recurrence: event.Weekly{ResetDay: time.Monday}}
	now := time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC) // Wednesday 10:00 at UTC+1

	occ, err := resolve.Resolve(def, europe, now)
	require.NoError(t, err)

	assert.Equal(t, "weekly-boss", occ.EventID)
	assert.Equal(t, event.StatusOngoing, occ.Status)
	assert.Equal(t, time.Date(2026, 2, 9, 3, 0, 0, 0, time.UTC), occ.Expiry)
	assert.Equal(t, time.Date(2026, 2, 2, 3, 0, 0, 0, time.UTC), occ.Start)
}

func TestResolveMonthlyClamp(t *testing.T) {
	def := event.Definition{ID: "monthly-shop", Recurrence: event.Monthly{ResetDay: 31}}
	now := time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

	occ, err := resolve.Resolve(def, europe, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 4, 30, 3, 0, 0, 0, time.UTC), occ.Expiry)
	assert.Equal(t, time.Date(2026, 3, 31, 3, 0, 0, 0, time.UTC), occ.Start)
}

func TestResolveFixedDurationWithGameOffset(t *testing.T) {
	def := event.Definition{ID: "abyss", Recurrence: event.FixedDuration{
		Origin:          region.Date{Year: 2026, Month: time.January, Day: 1},
		DurationDays:    14,
		GameOffsetHours: -4,
	}}
	now := time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)

	occ, err := resolve.Resolve(def, asia, now)
	require.NoError(t, err)

	// Local midnight at UTC+8 is 16:00 UTC the previous day.
	origin := time.Date(2025, 12, 31, 16, 0, 0, 0, time.UTC)
	assert.Equal(t, origin.AddDate(0, 0, 28), occ.Expiry)
	assert.Equal(t, origin.AddDate(0, 0, 14), occ.Start)
	assert.True(t, occ.Expiry.After(now))
}

func TestResolveComplexWindowIsNotReprojected(t *testing.T) {
	start, _ := cycle.ParseClock("15:00")
	end, _ := cycle.ParseClock("22:00")
	def := event.Definition{ID: "raid", Recurrence: event.ComplexWindow{
		StartDays:         []time.Weekday{time.Monday, time.Friday},
		StartTime:         start,
		EndTime:           end,
		ServerOffsetHours: 1,
	}}

	ongoing, err := resolve.Resolve(def, asia, time.Date(2026, 2, 9, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, event.StatusOngoing, ongoing.Status)
	assert.Equal(t, time.Date(2026, 2, 9, 21, 0, 0, 0, time.UTC), ongoing.Expiry)

	upcoming, err := resolve.Resolve(def, asia, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, event.StatusUpcoming, upcoming.Status)
	assert.Equal(t, time.Date(2026, 2, 13, 14, 0, 0, 0, time.UTC), upcoming.Start)
	assert.Equal(t, time.Date(2026, 2, 13, 21, 0, 0, 0, time.UTC), upcoming.Expiry)

	// The region's reset hour plays no part.
	again, err := resolve.Resolve(def, europe, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, upcoming, again)
}

func TestResolveIsIdempotent(t *testing.T) {
	defs := []event.Definition{
		{ID: "w", Recurrence: event.Weekly{ResetDay: time.Thursday}},
		{ID: "m", Recurrence: event.Monthly{ResetDay: 16}},
		{ID: "f", Recurrence: event.FixedDuration{Origin: region.Date{Year: 2025, Month: time.May, Day: 5}, DurationDays: 42}},
		{ID: "c", Recurrence: event.ComplexWindow{StartDays: []time.Weekday{time.Saturday}, StartTime: 600, EndTime: 1200}},
	}
	now := time.Date(2026, 7, 3, 11, 22, 33, 0, time.UTC)

	for _, def := range defs {
		first, err := resolve.Resolve(def, asia, now)
		require.NoError(t, err)
		second, err := resolve.Resolve(def, asia, now)
		require.NoError(t, err)
		assert.Equal(t, first, second, def.ID)
		assert.False(t, first.Expiry.Before(first.Start), def.ID)
	}
}

func TestResolveRejectsMissingRule(t *testing.T) {
	_, err := resolve.Resolve(event.Definition{ID: "broken"}, europe, time.Now())
	assert.Error(t, err)
}

func TestAllSkipsFailures(t *testing.T) {
	defs := []event.Definition{
		{ID: "ok", Name: "Weekly", GameName: "Game", EventType: event.TypePermanent, Recurrence: event.Weekly{ResetDay: time.Monday}},
		{ID: "broken"},
	}
	out, errs := resolve.All(defs, europe, time.Date(2026, 2, 4, 9, 0, 0, 0, time.UTC))
	require.Len(t, out, 1)
	require.Len(t, errs, 1)
	assert.Equal(t, "ok", out[0].ID)
	assert.Equal(t, event.SourcePermanent, out[0].Source)
	assert.Equal(t, "Game", out[0].GameName)
}
