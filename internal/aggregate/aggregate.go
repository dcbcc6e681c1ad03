// Package aggregate merges externally fetched events with locally resolved
// permanent events and groups them into urgency buckets.
//
// The functions in this file are pure. Aggregator (aggregator.go) holds the
// current snapshot and recomputes it when the source data or region changes.
package aggregate

import (
	"log/slog"
	"sort"
	"time"

	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
	"github.com/albapepper/eventclock/internal/resolve"
)

// Group is one non-empty urgency bucket with its events in input order.
type Group struct {
	Bucket Bucket           `json:"bucket"`
	Events []event.Resolved `json:"events"`
}

// External is the result of ingesting a batch of external records.
type External struct {
	Active   []event.Resolved
	Expired  []event.Resolved
	Rejected int
}

// IngestExternal resolves each record's dates through the region's reset
// rule and splits the batch at now. Malformed records are logged and
// skipped; they never abort the batch.
func IngestExternal(records []event.ExternalRecord, profile region.Profile, now time.Time, logger *slog.Logger) External {
	var out External
	for _, rec := range records {
		ev, err := event.ResolveExternal(rec, profile, now)
		if err != nil {
			out.Rejected++
			if logger != nil {
				logger.Warn("Skipping malformed event record", "event_id", rec.EventID, "error", err)
			}
			continue
		}
		if ev.Expiry.After(now) {
			out.Active = append(out.Active, ev)
		} else {
			out.Expired = append(out.Expired, ev)
		}
	}
	return out
}

// IngestPermanent resolves every permanent definition. Nothing is excluded:
// permanent events cycle rather than expire. Upcoming complex windows keep
// their future start so bucketing places them last.
func IngestPermanent(defs []event.Definition, profile region.Profile, now time.Time, logger *slog.Logger) []event.Resolved {
	out, errs := resolve.All(defs, profile, now)
	if logger != nil {
		for _, err := range errs {
			logger.Error("Failed to resolve permanent event", "error", err)
		}
	}
	return out
}

// MergeAndBucket concatenates active external events and permanent events
// and groups them by urgency. Only non-empty buckets are returned, in Order.
// Expired items are dropped.
func MergeAndBucket(active, permanent []event.Resolved, now time.Time) []Group {
	byBucket := make(map[Bucket][]event.Resolved, len(Order))
	for _, list := range [][]event.Resolved{active, permanent} {
		for _, e := range list {
			b := Classify(e, now)
			if b == BucketExpired {
				continue
			}
			byBucket[b] = append(byBucket[b], e)
		}
	}

	groups := make([]Group, 0, len(byBucket))
	for _, b := range Order {
		if events := byBucket[b]; len(events) > 0 {
			groups = append(groups, Group{Bucket: b, Events: events})
		}
	}
	return groups
}

// ExtractGames returns the sorted distinct game names.
func ExtractGames(events []event.Resolved) []string {
	seen := make(map[string]bool)
	games := make([]string, 0)
	for _, e := range events {
		if e.GameName == "" || seen[e.GameName] {
			continue
		}
		seen[e.GameName] = true
		games = append(games, e.GameName)
	}
	sort.Strings(games)
	return games
}
