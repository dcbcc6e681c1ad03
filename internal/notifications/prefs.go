package notifications

import (
	"fmt"
	"sort"

	"github.com/albapepper/eventclock/internal/event"
)

// Preferences holds which reminders the user wants, per game and event type.
type Preferences struct {
	GlobalEnabled bool                                 `json:"global_enabled"`
	PerGame       map[string]map[event.Type][]LeadTime `json:"per_game"`
}

// DefaultPreferences returns enabled preferences with no per-game entries.
func DefaultPreferences() Preferences {
	return Preferences{
		GlobalEnabled: true,
		PerGame:       make(map[string]map[event.Type][]LeadTime),
	}
}

// LeadTimesFor returns the lead times chosen for a game and event type.
// Absent entries mean none.
func (p Preferences) LeadTimesFor(game string, typ event.Type) []LeadTime {
	if p.PerGame == nil {
		return nil
	}
	return p.PerGame[game][typ]
}

// EnsureGames adds empty entries for games seen for the first time and
// reports whether anything was added.
func (p *Preferences) EnsureGames(games []string) bool {
	if p.PerGame == nil {
		p.PerGame = make(map[string]map[event.Type][]LeadTime)
	}
	changed := false
	for _, g := range games {
		if _, ok := p.PerGame[g]; !ok {
			p.PerGame[g] = make(map[event.Type][]LeadTime)
			changed = true
		}
	}
	return changed
}

// Set replaces the lead times for a game and event type.
func (p *Preferences) Set(game string, typ event.Type, leads []LeadTime) {
	p.EnsureGames([]string{game})
	p.PerGame[game][typ] = normalizeLeads(leads)
}

// Validate rejects unknown event types and lead times.
func (p Preferences) Validate() error {
	for game, byType := range p.PerGame {
		for typ, leads := range byType {
			if _, err := event.ParseType(string(typ)); err != nil {
				return fmt.Errorf("game %q: %w", game, err)
			}
			for _, l := range leads {
				if !l.Valid() {
					return fmt.Errorf("game %q type %q: unknown lead time %q", game, typ, l)
				}
			}
		}
	}
	return nil
}

// normalizeLeads dedups lead times and orders them longest first.
func normalizeLeads(leads []LeadTime) []LeadTime {
	seen := make(map[LeadTime]bool, len(leads))
	out := make([]LeadTime, 0, len(leads))
	for _, l := range leads {
		if l.Valid() && !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Duration() > out[j].Duration() })
	return out
}
