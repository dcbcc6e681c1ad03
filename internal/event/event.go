// Package event defines the event data model shared by the resolution
// engine, the aggregator and the notification scheduler.
//
// Two sources feed the model: permanent definitions loaded from the catalog
// (recurring, resolved locally) and external records fetched from the
// backend (fixed start/expiry dates).
package event

import (
	"fmt"
	"time"

	"github.com/albapepper/eventclock/internal/region"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Type is the importance class an event belongs to.
type Type string

const (
	TypeMain      Type = "main"
	TypeSide      Type = "side"
	TypePermanent Type = "permanent"
)

// ParseType accepts the wire values for an event type.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeMain, TypeSide, TypePermanent:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown event type %q", s)
}

// Status describes where now falls relative to an occurrence.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusOngoing  Status = "ongoing"
	StatusExpired  Status = "expired"
)

// Source distinguishes how an event was obtained.
type Source string

const (
	SourceExternal  Source = "external"
	SourcePermanent Source = "permanent"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Definition is a static permanent event loaded at startup.
type Definition struct {
	ID         string
	Name       string
	GameName   string
	EventType  Type
	DailyLogin bool
	Recurrence Rule
}

// ExternalRecord is one event fetched from the backend. StartDate and
// ExpiryDate are calendar dates without time-of-day.
type ExternalRecord struct {
	EventID    string
	Name       string
	GameID     string
	GameName   string
	StartDate  string
	ExpiryDate string
	EventType  Type
	DailyLogin bool
}

// Occurrence is the concrete window of a permanent event for a given now.
type Occurrence struct {
	EventID string
	Start   time.Time
	Expiry  time.Time
	Status  Status
}

// Resolved is an event of either source with absolute instants.
type Resolved struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	GameID     string    `json:"game_id,omitempty"`
	GameName   string    `json:"game_name"`
	EventType  Type      `json:"event_type"`
	DailyLogin bool      `json:"daily_login"`
	Source     Source    `json:"source"`
	Start      time.Time `json:"start"`
	Expiry     time.Time `json:"expiry"`
	Status     Status    `json:"status"`
}

// FromOccurrence combines a definition and its resolved window.
func FromOccurrence(def Definition, occ Occurrence) Resolved {
	return Resolved{
		ID:         def.ID,
		Name:       def.Name,
		GameName:   def.GameName,
		EventType:  def.EventType,
		DailyLogin: def.DailyLogin,
		Source:     SourcePermanent,
		Start:      occ.Start,
		Expiry:     occ.Expiry,
		Status:     occ.Status,
	}
}

// ResolveExternal projects an external record's calendar dates through the
// region's reset rule. Date strings are never read as UTC midnight.
func ResolveExternal(rec ExternalRecord, profile region.Profile, now time.Time) (Resolved, error) {
	start, err := region.ResetInstantForString(rec.StartDate, profile)
	if err != nil {
		return Resolved{}, fmt.Errorf("event %s start: %w", rec.EventID, err)
	}
	expiry, err := region.ResetInstantForString(rec.ExpiryDate, profile)
	if err != nil {
		return Resolved{}, fmt.Errorf("event %s expiry: %w", rec.EventID, err)
	}
	if expiry.Before(start) {
		return Resolved{}, fmt.Errorf("event %s expires (%s) before it starts (%s)", rec.EventID, rec.ExpiryDate, rec.StartDate)
	}

	status := StatusOngoing
	switch {
	case !expiry.After(now):
		status = StatusExpired
	case start.After(now):
		status = StatusUpcoming
	}

	return Resolved{
		ID:         rec.EventID,
		Name:       rec.Name,
		GameID:     rec.GameID,
		GameName:   rec.GameName,
		EventType:  rec.EventType,
		DailyLogin: rec.DailyLogin,
		Source:     SourceExternal,
		Start:      start,
		Expiry:     expiry,
		Status:     status,
	}, nil
}
