package cycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/eventclock/internal/cycle"
	"github.com/albapepper/eventclock/internal/region"
)

func mustClock(t *testing.T, s string) cycle.Clock {
	t.Helper()
	c, err := cycle.ParseClock(s)
	require.NoError(t, err)
	return c
}

func TestParseClock(t *testing.T) {
	c, err := cycle.ParseClock("05:30")
	require.NoError(t, err)
	assert.Equal(t, 5, c.Hour())
	assert.Equal(t, 30, c.Minute())
	assert.Equal(t, "05:30", c.String())

	_, err = cycle.ParseClock("24:00")
	assert.NoError(t, err)

	for _, bad := range []string{"", "7", "25:00", "12:60", "24:01", "aa:bb"} {
		_, err := cycle.ParseClock(bad)
		assert.Error(t, err, bad)
	}
}

// Monday and Friday, 15:00-22:00 at UTC+1.
func raidWindow(t *testing.T) cycle.Window {
	return cycle.Window{
		StartDays: []time.Weekday{time.Monday, time.Friday},
		Start:     mustClock(t, "15:00"),
		End:       mustClock(t, "22:00"),
		Server:    region.FixedZone(1),
	}
}

func TestWindowClassify(t *testing.T) {
	server := region.FixedZone(1)
	w := raidWindow(t)

	cases := []struct {
		name      string
		now       time.Time
		ongoing   bool
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "startDayBeforeOpening",
			now:       time.Date(2026, 2, 9, 10, 0, 0, 0, server),
			wantStart: time.Date(2026, 2, 9, 15, 0, 0, 0, server),
			wantEnd:   time.Date(2026, 2, 9, 22, 0, 0, 0, server),
		},
		{
			name:      "insideWindow",
			now:       time.Date(2026, 2, 9, 18, 0, 0, 0, server),
			ongoing:   true,
			wantStart: time.Date(2026, 2, 9, 15, 0, 0, 0, server),
			wantEnd:   time.Date(2026, 2, 9, 22, 0, 0, 0, server),
		},
		{
			name:      "exactlyAtOpening",
			now:       time.Date(2026, 2, 13, 15, 0, 0, 0, server),
			ongoing:   true,
			wantStart: time.Date(2026, 2, 13, 15, 0, 0, 0, server),
			wantEnd:   time.Date(2026, 2, 13, 22, 0, 0, 0, server),
		},
		{
			name:      "startDayAfterClose",
			now:       time.Date(2026, 2, 9, 22, 0, 0, 0, server),
			wantStart: time.Date(2026, 2, 13, 15, 0, 0, 0, server),
			wantEnd:   time.Date(2026, 2, 13, 22, 0, 0, 0, server),
		},
		{
			name:      "nonStartDayScansForward",
			now:       time.Date(2026, 2, 14, 9, 0, 0, 0, server),
			wantStart: time.Date(2026, 2, 16, 15, 0, 0, 0, server),
			wantEnd:   time.Date(2026, 2, 16, 22, 0, 0, 0, server),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := w.Classify(tc.now)
			require.NoError(t, err)
			assert.Equal(t, tc.ongoing, got.Ongoing)
			assert.True(t, tc.wantStart.Equal(got.Start), "start %s, want %s", got.Start, tc.wantStart)
			assert.True(t, tc.wantEnd.Equal(got.End), "end %s, want %s", got.End, tc.wantEnd)
		})
	}
}

func TestWindowCrossingMidnight(t *testing.T) {
	server := region.FixedZone(1)
	w := cycle.Window{
		StartDays: []time.Weekday{time.Saturday},
		Start:     mustClock(t, "20:00"),
		End:       mustClock(t, "02:00"),
		Server:    server,
	}

	got, err := w.Classify(time.Date(2026, 2, 15, 1, 0, 0, 0, server))
	require.NoError(t, err)
	assert.True(t, got.Ongoing)
	assert.True(t, time.Date(2026, 2, 14, 20, 0, 0, 0, server).Equal(got.Start))
	assert.True(t, time.Date(2026, 2, 15, 2, 0, 0, 0, server).Equal(got.End))
}

func TestWindowConvertShiftsEndDays(t *testing.T) {
	w := raidWindow(t)
	viewer := w.Convert(1, 8)

	assert.Equal(t, "22:00", viewer.Start.String())
	assert.Equal(t, "05:00", viewer.End.String())
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, viewer.StartDays)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Saturday}, viewer.EndDays)

	// The ongoing window computed in the server zone ends on the shifted
	// day when read on the viewer's clock.
	now := time.Date(2026, 2, 9, 16, 0, 0, 0, region.FixedZone(1))
	state, err := w.Classify(now)
	require.NoError(t, err)
	require.True(t, state.Ongoing)

	end := state.End.In(region.FixedZone(8))
	assert.Equal(t, time.Tuesday, end.Weekday())
	assert.Equal(t, 5, end.Hour())
	assert.Contains(t, viewer.EndDays, end.Weekday())
}

func TestWindowConvertClassifiesSameInstants(t *testing.T) {
	w := raidWindow(t)
	viewer := w.Convert(1, 8)
	assert.Equal(t, region.FixedZone(8).String(), viewer.Server.String())

	for _, now := range []time.Time{
		time.Date(2026, 2, 9, 16, 0, 0, 0, region.FixedZone(1)),
		time.Date(2026, 2, 9, 23, 30, 0, 0, region.FixedZone(1)),
		time.Date(2026, 2, 13, 21, 59, 0, 0, region.FixedZone(1)),
	} {
		want, err := w.Classify(now)
		require.NoError(t, err)
		got, err := viewer.Classify(now)
		require.NoError(t, err)

		assert.Equal(t, want.Ongoing, got.Ongoing, now.String())
		assert.True(t, want.Start.Equal(got.Start), now.String())
		assert.True(t, want.End.Equal(got.End), now.String())
	}
}

func TestWindowConvertWestward(t *testing.T) {
	w := cycle.Window{
		StartDays: []time.Weekday{time.Sunday},
		Start:     mustClock(t, "02:00"),
		End:       mustClock(t, "06:00"),
	}
	viewer := w.Convert(1, -5)
	assert.Equal(t, "20:00", viewer.Start.String())
	assert.Equal(t, "00:00", viewer.End.String())
	assert.Equal(t, []time.Weekday{time.Saturday}, viewer.StartDays)
	assert.Equal(t, []time.Weekday{time.Sunday}, viewer.EndDays)
}

func TestWindowRequiresStartDays(t *testing.T) {
	_, err := cycle.Window{Start: 60, End: 120}.Classify(time.Now())
	assert.Error(t, err)
}
