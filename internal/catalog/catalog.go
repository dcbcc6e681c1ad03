// Package catalog loads the static permanent-event definitions.
//
// The catalog is YAML. A default catalog is embedded in the binary; a file
// path overrides it. Definitions are validated once at load time and any
// invalid entry fails the whole load.
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zeebo/errs"
	"gopkg.in/yaml.v3"

	"github.com/albapepper/eventclock/internal/cycle"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
)

// Error is the class of all catalog load and validation errors.
var Error = errs.Class("catalog")

//go:embed default.yaml
var defaultCatalog []byte

// File is the on-disk shape of a catalog.
type File struct {
	Events []Entry `yaml:"events"`
}

// Entry is one permanent event in the catalog.
type Entry struct {
	ID         string         `yaml:"id"`
	Name       string         `yaml:"name"`
	Game       string         `yaml:"game"`
	EventType  string         `yaml:"event_type,omitempty"`
	DailyLogin bool           `yaml:"daily_login,omitempty"`
	Recurrence RecurrenceSpec `yaml:"recurrence"`
}

// RecurrenceSpec is the tagged YAML form of a recurrence rule.
type RecurrenceSpec struct {
	Kind string `yaml:"kind"`

	// weekly
	ResetDayOfWeek *int `yaml:"reset_day_of_week,omitempty"`
	// monthly
	ResetDayOfMonth int `yaml:"reset_day_of_month,omitempty"`
	// fixed_duration
	OriginStart     string  `yaml:"origin_start,omitempty"`
	DurationDays    int     `yaml:"duration_days,omitempty"`
	GameOffsetHours float64 `yaml:"game_offset_hours,omitempty"`
	// complex_window
	StartDaysOfWeek   []int   `yaml:"start_days_of_week,omitempty"`
	EndDaysOfWeek     []int   `yaml:"end_days_of_week,omitempty"`
	StartTime         string  `yaml:"start_time,omitempty"`
	EndTime           string  `yaml:"end_time,omitempty"`
	ServerOffsetHours float64 `yaml:"server_offset_hours,omitempty"`
	ServerZone        string  `yaml:"server_zone,omitempty"`
}

// Default returns the embedded catalog.
func Default() ([]event.Definition, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the embedded default when path is empty.
func Load(path string) ([]event.Definition, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) ([]event.Definition, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, Error.New("decode: %v", err)
	}

	defs := make([]event.Definition, 0, len(f.Events))
	seen := make(map[string]bool, len(f.Events))
	var group errs.Group
	for i, e := range f.Events {
		def, err := e.Definition()
		if err != nil {
			group.Add(Error.New("event %d (%q): %v", i, e.ID, err))
			continue
		}
		if seen[def.ID] {
			group.Add(Error.New("event %d: duplicate id %q", i, def.ID))
			continue
		}
		seen[def.ID] = true
		defs = append(defs, def)
	}
	if err := group.Err(); err != nil {
		return nil, err
	}
	return defs, nil
}

// Definition converts and validates an entry.
func (e Entry) Definition() (event.Definition, error) {
	id := strings.TrimSpace(e.ID)
	if id == "" {
		return event.Definition{}, fmt.Errorf("missing id")
	}
	if strings.TrimSpace(e.Name) == "" {
		return event.Definition{}, fmt.Errorf("missing name")
	}
	if strings.TrimSpace(e.Game) == "" {
		return event.Definition{}, fmt.Errorf("missing game")
	}

	typ := event.TypePermanent
	if e.EventType != "" {
		t, err := event.ParseType(e.EventType)
		if err != nil {
			return event.Definition{}, err
		}
		typ = t
	}

	rule, err := e.Recurrence.Rule()
	if err != nil {
		return event.Definition{}, err
	}
	if err := rule.Validate(); err != nil {
		return event.Definition{}, err
	}

	return event.Definition{
		ID:         id,
		Name:       e.Name,
		GameName:   e.Game,
		EventType:  typ,
		DailyLogin: e.DailyLogin,
		Recurrence: rule,
	}, nil
}

// Rule builds the typed rule for the spec's kind.
func (s RecurrenceSpec) Rule() (event.Rule, error) {
	switch event.Kind(s.Kind) {
	case event.KindWeekly:
		if s.ResetDayOfWeek == nil {
			return nil, fmt.Errorf("weekly: missing reset_day_of_week")
		}
		return event.Weekly{ResetDay: time.Weekday(*s.ResetDayOfWeek)}, nil

	case event.KindMonthly:
		return event.Monthly{ResetDay: s.ResetDayOfMonth}, nil

	case event.KindFixedDuration:
		origin, err := region.ParseDate(s.OriginStart)
		if err != nil {
			return nil, fmt.Errorf("fixed_duration: origin_start: %w", err)
		}
		return event.FixedDuration{
			Origin:          origin,
			DurationDays:    s.DurationDays,
			GameOffsetHours: s.GameOffsetHours,
		}, nil

	case event.KindComplexWindow:
		start, err := cycle.ParseClock(s.StartTime)
		if err != nil {
			return nil, fmt.Errorf("complex_window: start_time: %w", err)
		}
		end, err := cycle.ParseClock(s.EndTime)
		if err != nil {
			return nil, fmt.Errorf("complex_window: end_time: %w", err)
		}
		return event.ComplexWindow{
			StartDays:         weekdays(s.StartDaysOfWeek),
			EndDays:           weekdays(s.EndDaysOfWeek),
			StartTime:         start,
			EndTime:           end,
			ServerOffsetHours: s.ServerOffsetHours,
			ServerZone:        s.ServerZone,
		}, nil
	}
	return nil, fmt.Errorf("unknown recurrence kind %q", s.Kind)
}

func weekdays(days []int) []time.Weekday {
	if len(days) == 0 {
		return nil
	}
	out := make([]time.Weekday, len(days))
	for i, d := range days {
		out[i] = time.Weekday(d)
	}
	return out
}
