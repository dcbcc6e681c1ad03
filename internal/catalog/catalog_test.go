package catalog_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/eventclock/internal/catalog"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
)

func TestDefaultCatalogIsValid(t *testing.T) {
	defs, err := catalog.Default()
	require.NoError(t, err)
	require.NotEmpty(t, defs)

	kinds := map[event.Kind]bool{}
	for _, d := range defs {
		kinds[d.Recurrence.Kind()] = true
		assert.Equal(t, event.TypePermanent, d.EventType, d.ID)
	}
	assert.Len(t, kinds, 4)
}

func TestParseAllKinds(t *testing.T) {
	defs, err := catalog.Parse([]byte(`
events:
  - id: w
    name: Weekly
    game: G
    event_type: main
    recurrence: {kind: weekly, reset_day_of_week: 0}
  - id: m
    name: Monthly
    game: G
    recurrence: {kind: monthly, reset_day_of_month: 31}
  - id: f
    name: Fixed
    game: G
    recurrence: {kind: fixed_duration, origin_start: "2026-01-01", duration_days: 14, game_offset_hours: -4}
  - id: c
    name: Complex
    game: G
    recurrence:
      kind: complex_window
      start_days_of_week: [1, 5]
      end_days_of_week: [2, 6]
      start_time: "22:00"
      end_time: "05:00"
      server_offset_hours: 8
`))
	require.NoError(t, err)
	require.Len(t, defs, 4)

	assert.Equal(t, event.TypeMain, defs[0].EventType)
	assert.Equal(t, event.Weekly{ResetDay: time.Sunday}, defs[0].Recurrence)
	assert.Equal(t, event.Monthly{ResetDay: 31}, defs[1].Recurrence)
	assert.Equal(t, event.FixedDuration{
		Origin:          region.Date{Year: 2026, Month: time.January, Day: 1},
		DurationDays:    14,
		GameOffsetHours: -4,
	}, defs[2].Recurrence)

	cw, ok := defs[3].Recurrence.(event.ComplexWindow)
	require.True(t, ok)
	assert.Equal(t, []time.Weekday{time.Tuesday, time.Saturday}, cw.EndDays)
	assert.Equal(t, "22:00", cw.StartTime.String())
	assert.Equal(t, float64(8), cw.ServerOffsetHours)
}

func TestParseRejectsInvalidDefinitions(t *testing.T) {
	cases := map[string]string{
		"monthDayTooLarge": `{kind: monthly, reset_day_of_month: 32}`,
		"monthDayZero":     `{kind: monthly}`,
		"weekdayTooLarge":  `{kind: weekly, reset_day_of_week: 7}`,
		"weekdayMissing":   `{kind: weekly}`,
		"zeroDuration":     `{kind: fixed_duration, origin_start: "2026-01-01", duration_days: 0}`,
		"negativeDuration": `{kind: fixed_duration, origin_start: "2026-01-01", duration_days: -3}`,
		"badOrigin":        `{kind: fixed_duration, origin_start: "soon", duration_days: 7}`,
		"badClock":         `{kind: complex_window, start_days_of_week: [1], start_time: "9pm", end_time: "23:00"}`,
		"noStartDays":      `{kind: complex_window, start_time: "09:00", end_time: "23:00"}`,
		"badZone":          `{kind: complex_window, start_days_of_week: [1], start_time: "09:00", end_time: "23:00", server_zone: "Nowhere/City"}`,
		"unknownKind":      `{kind: yearly}`,
	}

	for name, rec := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := catalog.Parse([]byte("events:\n  - {id: x, name: X, game: G, recurrence: " + rec + "}\n"))
			require.Error(t, err)
			assert.True(t, catalog.Error.Has(err), "%v", err)
		})
	}
}

func TestParseRejectsDuplicatesAndMissingFields(t *testing.T) {
	_, err := catalog.Parse([]byte(`
events:
  - {id: a, name: A, game: G, recurrence: {kind: monthly, reset_day_of_month: 1}}
  - {id: a, name: B, game: G, recurrence: {kind: monthly, reset_day_of_month: 2}}
`))
	assert.ErrorContains(t, err, "duplicate id")

	_, err = catalog.Parse([]byte(`
events:
  - {id: a, game: G, recurrence: {kind: monthly, reset_day_of_month: 1}}
`))
	assert.ErrorContains(t, err, "missing name")

	_, err = catalog.Parse([]byte(`
events:
  - {id: a, name: A, game: G, event_type: urgent, recurrence: {kind: monthly, reset_day_of_month: 1}}
`))
	assert.ErrorContains(t, err, "unknown event type")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
events:
  - {id: a, name: A, game: G, recurrence: {kind: weekly, reset_day_of_week: 3}}
`), 0o600))

	defs, err := catalog.Load(path)
	require.NoError(t, err)
	require.Len(t, defs, 1)

	_, err = catalog.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, catalog.Error.Has(err))
}
