package event_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
)

var europe = region.Profile{Name: "europe", UTCOffsetHours: 1, ResetHour: 4}

func record(start, expiry string) event.ExternalRecord {
	return event.ExternalRecord{
		EventID: "7", Name: "Lantern Rite", GameName: "Genshin Impact",
		StartDate: start, ExpiryDate: expiry, EventType: event.TypeMain,
	}
}

func TestResolveExternalProjectsDatesThroughReset(t *testing.T) {
	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
	got, err := event.ResolveExternal(record("2026-01-20", "2026-02-05"), europe, now)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 1, 20, 3, 0, 0, 0, time.UTC), got.Start)
	assert.Equal(t, time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC), got.Expiry)
	assert.Equal(t, event.StatusOngoing, got.Status)
	assert.Equal(t, event.SourceExternal, got.Source)
}

func TestResolveExternalStatus(t *testing.T) {
	rec := record("2026-02-01", "2026-02-10")
	cases := []struct {
		name string
		now  time.Time
		want event.Status
	}{
		{"before start reset", time.Date(2026, 2, 1, 2, 59, 0, 0, time.UTC), event.StatusUpcoming},
		{"at start reset", time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC), event.StatusOngoing},
		{"just before expiry", time.Date(2026, 2, 10, 2, 59, 0, 0, time.UTC), event.StatusOngoing},
		{"at expiry", time.Date(2026, 2, 10, 3, 0, 0, 0, time.UTC), event.StatusExpired},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := event.ResolveExternal(rec, europe, tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Status)
		})
	}
}

func TestResolveExternalRejectsBadDates(t *testing.T) {
	now := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)
	for _, rec := range []event.ExternalRecord{
		record("2026-02-10", "2026-02-01"),
		record("2026/02/01", "2026-02-10"),
		record("2026-02-01", ""),
	} {
		_, err := event.ResolveExternal(rec, europe, now)
		assert.Error(t, err, rec.StartDate+" "+rec.ExpiryDate)
	}
}

func TestParseType(t *testing.T) {
	typ, err := event.ParseType("side")
	require.NoError(t, err)
	assert.Equal(t, event.TypeSide, typ)

	_, err = event.ParseType("Main")
	assert.Error(t, err)
}

func TestRuleValidate(t *testing.T) {
	assert.NoError(t, event.Weekly{ResetDay: time.Monday}.Validate())
	assert.Error(t, event.Weekly{ResetDay: 7}.Validate())
	assert.Error(t, event.Monthly{ResetDay: 0}.Validate())
	assert.Error(t, event.FixedDuration{DurationDays: 14}.Validate())
	assert.Error(t, event.ComplexWindow{ServerOffsetHours: 1}.Validate())
}

func TestComplexWindowForViewerMatchesServer(t *testing.T) {
	rule := event.ComplexWindow{
		StartDays:         []time.Weekday{time.Monday, time.Friday},
		StartTime:         15 * 60,
		EndTime:           22 * 60,
		ServerOffsetHours: 1,
	}
	require.NoError(t, rule.Validate())

	now := time.Date(2026, 2, 9, 16, 0, 0, 0, region.FixedZone(1))
	want, err := rule.Window().Classify(now)
	require.NoError(t, err)
	got, err := rule.ForViewer(8).Classify(now)
	require.NoError(t, err)

	require.True(t, want.Ongoing)
	assert.True(t, got.Ongoing)
	assert.True(t, want.Start.Equal(got.Start))
	assert.True(t, want.End.Equal(got.End))
	assert.Equal(t, time.Date(2026, 2, 9, 14, 0, 0, 0, time.UTC), got.Start.UTC())
}
