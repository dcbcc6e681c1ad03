package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/albapepper/eventclock/internal/aggregate"
	"github.com/albapepper/eventclock/internal/api/respond"
	"github.com/albapepper/eventclock/internal/cache"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/ics"
	"github.com/albapepper/eventclock/internal/region"
)

// EventsResponse is the bucketed event view.
type EventsResponse struct {
	Region     region.Profile    `json:"region"`
	Generation uint64            `json:"generation"`
	ComputedAt time.Time         `json:"computed_at"`
	FetchedAt  *time.Time        `json:"fetched_at,omitempty"`
	Groups     []aggregate.Group `json:"groups"`
	Expired    []event.Resolved  `json:"expired,omitempty"`
	Rejected   int               `json:"rejected"`
}

type eventFilter struct {
	game           string
	eventType      event.Type
	includeExpired bool
}

func parseFilter(r *http.Request) (eventFilter, error) {
	q := r.URL.Query()
	f := eventFilter{game: q.Get("game"), includeExpired: q.Get("include_expired") == "true"}
	if t := q.Get("type"); t != "" {
		typ, err := event.ParseType(t)
		if err != nil {
			return f, err
		}
		f.eventType = typ
	}
	return f, nil
}

func (f eventFilter) key() string {
	return fmt.Sprintf("%s|%s|%t", f.game, f.eventType, f.includeExpired)
}

func (f eventFilter) match(e event.Resolved) bool {
	if f.game != "" && e.GameName != f.game {
		return false
	}
	if f.eventType != "" && e.EventType != f.eventType {
		return false
	}
	return true
}

func (f eventFilter) events(in []event.Resolved) []event.Resolved {
	out := make([]event.Resolved, 0, len(in))
	for _, e := range in {
		if f.match(e) {
			out = append(out, e)
		}
	}
	return out
}

// GetEvents returns all current events grouped into urgency buckets.
// @Summary List events by urgency bucket
// @Description Returns external and permanent events resolved for the active region, grouped into urgency buckets in fixed order. Empty buckets are omitted.
// @Tags events
// @Produce json
// @Param game query string false "Exact game name"
// @Param type query string false "Event type" Enums(main, side, permanent)
// @Param include_expired query bool false "Include expired external events"
// @Success 200 {object} EventsResponse
// @Success 304 "Not modified"
// @Failure 400 {object} respond.ErrorResponse
// @Router /events [get]
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_TYPE", "type must be main, side or permanent", err.Error())
		return
	}

	snap := h.agg.Snapshot()
	key := fmt.Sprintf("events:%d:%s", snap.Generation, f.key())
	h.serveCached(w, r, key, "application/json", cache.TTLEvents, func() ([]byte, error) {
		resp := EventsResponse{
			Region:     snap.Region,
			Generation: snap.Generation,
			ComputedAt: snap.ComputedAt.UTC(),
			Groups:     make([]aggregate.Group, 0, len(snap.Groups)),
			Rejected:   snap.Rejected,
		}
		if !snap.FetchedAt.IsZero() {
			fetched := snap.FetchedAt.UTC()
			resp.FetchedAt = &fetched
		}
		for _, g := range snap.Groups {
			if events := f.events(g.Events); len(events) > 0 {
				resp.Groups = append(resp.Groups, aggregate.Group{Bucket: g.Bucket, Events: events})
			}
		}
		if f.includeExpired {
			resp.Expired = f.events(snap.Expired)
		}
		return json.Marshal(resp)
	})
}

// GetEventsICS returns current events as an iCalendar feed.
// @Summary Calendar feed
// @Description Returns all non-expired events as an iCalendar (RFC 5545) feed for calendar subscription.
// @Tags events
// @Produce text/calendar
// @Param game query string false "Exact game name"
// @Param type query string false "Event type" Enums(main, side, permanent)
// @Success 200 {string} string
// @Failure 400 {object} respond.ErrorResponse
// @Router /events.ics [get]
func (h *Handler) GetEventsICS(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_TYPE", "type must be main, side or permanent", err.Error())
		return
	}

	snap := h.agg.Snapshot()
	key := fmt.Sprintf("ics:%d:%s", snap.Generation, f.key())
	h.serveCached(w, r, key, "text/calendar; charset=utf-8", cache.TTLCalendar, func() ([]byte, error) {
		return []byte(ics.Export(f.events(snap.Events()), snap.Region.Name, snap.ComputedAt)), nil
	})
}

// GetGames returns the distinct game names of current events.
// @Summary List games
// @Description Returns the sorted distinct game names across external and permanent events.
// @Tags events
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /games [get]
func (h *Handler) GetGames(w http.ResponseWriter, r *http.Request) {
	snap := h.agg.Snapshot()
	key := fmt.Sprintf("games:%d", snap.Generation)
	h.serveCached(w, r, key, "application/json", cache.TTLEvents, func() ([]byte, error) {
		return json.Marshal(map[string]interface{}{"games": snap.Games})
	})
}

// Refresh fetches external events now.
// @Summary Refresh external events
// @Description Fetches external events from the backend and recomputes. On failure the previous data is kept and 502 is returned.
// @Tags events
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 502 {object} respond.ErrorResponse
// @Router /refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.agg.Refresh(r.Context()); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadGateway, "UPSTREAM_ERROR", "Event refresh failed; previous data kept", err.Error())
		return
	}
	snap := h.agg.Snapshot()
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"generation": snap.Generation,
		"events":     len(snap.Active) + len(snap.Permanent),
		"expired":    len(snap.Expired),
		"rejected":   snap.Rejected,
	})
}
