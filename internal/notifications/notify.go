// Package notifications schedules expiry reminders for resolved events.
//
// Pipeline: compute the desired set of {event, lead time} reminders from the
// current events and user preferences → diff against what the platform has
// scheduled → schedule the missing ones and cancel the stale ones.
//
// Identifiers are deterministic (event-<id>-<lead>), so re-running the
// pipeline with unchanged inputs is a no-op.
package notifications

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	identifierPrefix  = "event-"
	dispatchInterval  = 30 * time.Second
	dispatchBatchSize = 100
)

// LeadTime is how long before expiry a reminder fires.
type LeadTime string

const (
	Lead3Days  LeadTime = "3days"
	Lead1Day   LeadTime = "1day"
	Lead2Hours LeadTime = "2hours"
)

// LeadTimes lists the supported lead times, longest first.
var LeadTimes = []LeadTime{Lead3Days, Lead1Day, Lead2Hours}

// ErrPermissionDenied is returned by a platform that may not deliver
// notifications (for example, no registered device).
var ErrPermissionDenied = errors.New("notification permission denied")

// Duration returns the offset before expiry.
func (l LeadTime) Duration() time.Duration {
	switch l {
	case Lead3Days:
		return 72 * time.Hour
	case Lead1Day:
		return 24 * time.Hour
	case Lead2Hours:
		return 2 * time.Hour
	}
	return 0
}

// Valid reports whether l is a supported lead time.
func (l LeadTime) Valid() bool {
	return l.Duration() > 0
}

// Label renders the lead time for message text.
func (l LeadTime) Label() string {
	switch l {
	case Lead3Days:
		return "3 days"
	case Lead1Day:
		return "1 day"
	case Lead2Hours:
		return "2 hours"
	}
	return string(l)
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Key identifies one reminder: an event and a lead time.
type Key struct {
	EventID  string
	LeadTime LeadTime
}

// Identifier returns the platform identifier for k.
func (k Key) Identifier() string {
	return identifierPrefix + k.EventID + "-" + string(k.LeadTime)
}

// ParseIdentifier reverses Identifier. It reports false for identifiers
// outside the event reminder namespace.
func ParseIdentifier(id string) (Key, bool) {
	rest, ok := strings.CutPrefix(id, identifierPrefix)
	if !ok {
		return Key{}, false
	}
	for _, l := range LeadTimes {
		if eventID, ok := strings.CutSuffix(rest, "-"+string(l)); ok && eventID != "" {
			return Key{EventID: eventID, LeadTime: l}, true
		}
	}
	return Key{}, false
}

// InNamespace reports whether id belongs to event reminders.
func InNamespace(id string) bool {
	_, ok := ParseIdentifier(id)
	return ok
}

// Payload is the user-visible content of a reminder.
type Payload struct {
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data,omitempty"`
}

// Desired is one reminder that should exist.
type Desired struct {
	Key       Key
	TriggerAt time.Time
	Payload   Payload
}

// Identifier returns the platform identifier of d.
func (d Desired) Identifier() string {
	return d.Key.Identifier()
}

// Scheduled is a reminder as reported by a platform.
type Scheduled struct {
	Identifier string    `json:"identifier"`
	EventID    string    `json:"event_id"`
	LeadTime   LeadTime  `json:"lead_time"`
	TriggerAt  time.Time `json:"trigger_at"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
}

func buildMessage(eventName, gameName string, lead LeadTime) Payload {
	return Payload{
		Title: eventName,
		Body:  fmt.Sprintf("%s: %s ends in %s", gameName, eventName, lead.Label()),
	}
}
