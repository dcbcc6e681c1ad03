package notifications

import (
	"sort"
	"time"

	"github.com/albapepper/eventclock/internal/event"
)

// ComputeDesiredSet returns every reminder that should exist for events
// under prefs at now. A reminder is included only when its trigger instant
// (expiry minus lead time) is still in the future. The result is ordered by
// trigger instant, then identifier.
func ComputeDesiredSet(events []event.Resolved, prefs Preferences, now time.Time) []Desired {
	if !prefs.GlobalEnabled {
		return []Desired{}
	}

	seen := make(map[string]bool)
	desired := make([]Desired, 0)
	for _, e := range events {
		if !e.Expiry.After(now) {
			continue
		}
		for _, lead := range prefs.LeadTimesFor(e.GameName, e.EventType) {
			if !lead.Valid() {
				continue
			}
			trigger := e.Expiry.Add(-lead.Duration())
			if !trigger.After(now) {
				continue
			}
			key := Key{EventID: e.ID, LeadTime: lead}
			if seen[key.Identifier()] {
				continue
			}
			seen[key.Identifier()] = true

			payload := buildMessage(e.Name, e.GameName, lead)
			payload.Data = map[string]string{
				"event_id":  e.ID,
				"game_name": e.GameName,
				"lead_time": string(lead),
				"expiry":    e.Expiry.UTC().Format(time.RFC3339),
			}
			desired = append(desired, Desired{
				Key:       key,
				TriggerAt: trigger.UTC(),
				Payload:   payload,
			})
		}
	}

	sort.Slice(desired, func(i, j int) bool {
		if !desired[i].TriggerAt.Equal(desired[j].TriggerAt) {
			return desired[i].TriggerAt.Before(desired[j].TriggerAt)
		}
		return desired[i].Identifier() < desired[j].Identifier()
	})
	return desired
}

// Diff compares the desired set against what the platform reports.
//
// toSchedule holds desired reminders whose identifier is not scheduled, plus
// those scheduled with a different trigger instant (a region change moved
// the expiry). toCancel holds scheduled identifiers in the event reminder
// namespace that are no longer desired; identifiers outside the namespace
// are never touched.
func Diff(desired []Desired, current []Scheduled) (toSchedule []Desired, toCancel []string) {
	scheduled := make(map[string]Scheduled, len(current))
	for _, s := range current {
		scheduled[s.Identifier] = s
	}

	want := make(map[string]bool, len(desired))
	toSchedule = make([]Desired, 0)
	for _, d := range desired {
		id := d.Identifier()
		want[id] = true
		s, ok := scheduled[id]
		if !ok || (!s.TriggerAt.IsZero() && !s.TriggerAt.Equal(d.TriggerAt)) {
			toSchedule = append(toSchedule, d)
		}
	}

	toCancel = make([]string, 0)
	for _, s := range current {
		if InNamespace(s.Identifier) && !want[s.Identifier] {
			toCancel = append(toCancel, s.Identifier)
		}
	}
	sort.Strings(toCancel)
	return toSchedule, toCancel
}
