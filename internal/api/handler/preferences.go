package handler

import (
	"net/http"

	"github.com/albapepper/eventclock/internal/api/respond"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/notifications"
)

// GetPreferences returns the saved notification preferences.
// @Summary Notification preferences
// @Tags notifications
// @Produce json
// @Success 200 {object} notifications.Preferences
// @Failure 500 {object} respond.ErrorResponse
// @Router /preferences [get]
func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.LoadNotificationPreferences()
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Failed to load preferences", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, p)
}

// PutPreferences updates the notification preferences and re-syncs
// reminders in the background. Games present in the body replace their
// saved lead times; games left out keep theirs.
// @Summary Update notification preferences
// @Description Lead times per game and event type: 3days, 1day, 2hours. Duplicates are dropped. Games not in the body are kept.
// @Tags notifications
// @Accept json
// @Produce json
// @Param body body notifications.Preferences true "Preferences"
// @Success 200 {object} notifications.Preferences
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /preferences [put]
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var in notifications.Preferences
	if err := decodeBody(r, &in); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Malformed preferences", err.Error())
		return
	}
	if err := in.Validate(); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_PREFERENCES", "Invalid preferences", err.Error())
		return
	}

	saved, err := h.store.UpdatePreferences(func(p *notifications.Preferences) (bool, error) {
		p.GlobalEnabled = in.GlobalEnabled
		for game, byType := range in.PerGame {
			p.PerGame[game] = make(map[event.Type][]notifications.LeadTime, len(byType))
			for typ, leads := range byType {
				p.Set(game, typ, leads)
			}
		}
		return true, nil
	})
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Failed to save preferences", err.Error())
		return
	}
	h.reconciler.Trigger()
	respond.WriteJSONObject(w, http.StatusOK, saved)
}
