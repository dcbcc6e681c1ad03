package region_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/eventclock/internal/region"
)

func TestResetInstantExternalExpiry(t *testing.T) {
	d, err := region.ParseDate("2026-02-05")
	require.NoError(t, err)

	europe := region.Profile{UTCOffsetHours: 1, ResetHour: 4}
	asia := region.Profile{UTCOffsetHours: 8, ResetHour: 4}

	assert.Equal(t, time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC), region.ResetInstant(d, europe, 0))
	assert.Equal(t, time.Date(2026, 2, 4, 20, 0, 0, 0, time.UTC), region.ResetInstant(d, asia, 0))

	naive, err := time.Parse("2006-01-02", "2026-02-05")
	require.NoError(t, err)
	assert.NotEqual(t, naive, region.ResetInstant(d, europe, 0))
	assert.NotEqual(t, naive, region.ResetInstant(d, asia, 0))
}

func TestResetInstantRollsAcrossUTCDays(t *testing.T) {
	d := region.Date{Year: 2026, Month: time.March, Day: 1}

	cases := []struct {
		name    string
		profile region.Profile
		game    float64
		want    time.Time
	}{
		{"negativeOffsetNextDay", region.Profile{UTCOffsetHours: -5, ResetHour: 22}, 0, time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC)},
		{"positiveOffsetPreviousDay", region.Profile{UTCOffsetHours: 14, ResetHour: 4}, 0, time.Date(2026, 2, 28, 14, 0, 0, 0, time.UTC)},
		{"gameMidnightReset", region.Profile{UTCOffsetHours: 8, ResetHour: 4}, -4, time.Date(2026, 2, 28, 16, 0, 0, 0, time.UTC)},
		{"halfHourOffset", region.Profile{UTCOffsetHours: 5.5, ResetHour: 4}, 0, time.Date(2026, 2, 28, 22, 30, 0, 0, time.UTC)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, region.ResetInstant(d, tc.profile, tc.game))
		})
	}
}

func TestResetInstantTotality(t *testing.T) {
	dates := []region.Date{
		{Year: 2024, Month: time.February, Day: 29},
		{Year: 2025, Month: time.December, Day: 31},
		{Year: 2026, Month: time.January, Day: 1},
	}
	for offset := region.MinOffsetHours; offset <= region.MaxOffsetHours; offset++ {
		for reset := 0; reset < 24; reset++ {
			p := region.Profile{UTCOffsetHours: float64(offset), ResetHour: reset}
			for _, d := range dates {
				got := region.ResetInstant(d, p, 0).In(p.Location())
				require.Equal(t, reset, got.Hour(), "offset=%d reset=%d date=%s", offset, reset, d)
				require.Equal(t, d, region.DateOf(got), "offset=%d reset=%d", offset, reset)
			}
		}
	}
}

func TestResetInstantZoneOverrideHonorsDST(t *testing.T) {
	p := region.Profile{UTCOffsetHours: 2, ResetHour: 4, Zone: "Europe/Bucharest"}
	require.NoError(t, p.Validate())

	winter := region.ResetInstant(region.Date{Year: 2026, Month: time.January, Day: 15}, p, 0)
	summer := region.ResetInstant(region.Date{Year: 2026, Month: time.July, Day: 15}, p, 0)

	assert.Equal(t, 2, winter.Hour())
	assert.Equal(t, 1, summer.Hour())
}

func TestParseDateRejectsTimestamps(t *testing.T) {
	for _, s := range []string{"", "2026-02-30", "2026-02-05T00:00:00Z", "05/02/2026"} {
		_, err := region.ParseDate(s)
		assert.ErrorIs(t, err, region.ErrInvalidDate, s)
	}
}

func TestProfileValidate(t *testing.T) {
	assert.NoError(t, region.Profile{UTCOffsetHours: -12, ResetHour: 0}.Validate())
	assert.Error(t, region.Profile{UTCOffsetHours: 15, ResetHour: 4}.Validate())
	assert.Error(t, region.Profile{UTCOffsetHours: 1, ResetHour: 24}.Validate())
	assert.Error(t, region.Profile{UTCOffsetHours: 1, ResetHour: 4, Zone: "Mars/Olympus"}.Validate())
}

func TestDateHelpers(t *testing.T) {
	d := region.Date{Year: 2026, Month: time.April, Day: 30}
	assert.Equal(t, region.Date{Year: 2026, Month: time.May, Day: 1}, d.AddDays(1))
	assert.Equal(t, time.Thursday, d.Weekday())
	assert.Equal(t, 30, region.DaysIn(2026, time.April))
	assert.Equal(t, 29, region.DaysIn(2028, time.February))
	assert.Equal(t, "2026-04-30", d.String())
}
