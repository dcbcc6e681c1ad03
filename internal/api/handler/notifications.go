package handler

import (
	"net/http"
	"strings"

	"github.com/albapepper/eventclock/internal/api/respond"
	"github.com/albapepper/eventclock/internal/notifications"
)

// ListNotifications returns pending reminders and the last sync result.
// @Summary Scheduled reminders
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} respond.ErrorResponse
// @Router /notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	scheduled, err := h.reconciler.Scheduler().List(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "PLATFORM_FAILED", "Failed to list reminders", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"scheduled": scheduled,
		"last_sync": h.reconciler.Last(),
	})
}

// SyncNotifications reconciles reminders with the current events now.
// @Summary Sync reminders
// @Description Computes the desired reminder set, diffs it against what is scheduled and applies the difference. permitted=false means no delivery channel is available; stale reminders are still cancelled.
// @Tags notifications
// @Produce json
// @Success 200 {object} notifications.Result
// @Failure 500 {object} respond.ErrorResponse
// @Router /notifications/sync [post]
func (h *Handler) SyncNotifications(w http.ResponseWriter, r *http.Request) {
	res, err := h.reconciler.SyncNow(r.Context())
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "SYNC_FAILED", "Reminder sync failed", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, res)
}

// DeviceRequest registers a push token.
type DeviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// RegisterDevice stores an FCM device token for reminder delivery.
// @Summary Register device
// @Description Registers an FCM token. Requires the Postgres platform (DATABASE_URL).
// @Tags notifications
// @Accept json
// @Produce json
// @Param body body DeviceRequest true "Device"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 503 {object} respond.ErrorResponse
// @Router /devices [post]
func (h *Handler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "NOT_CONFIGURED", "Push delivery requires a database")
		return
	}
	var req DeviceRequest
	if err := decodeBody(r, &req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Malformed device request", err.Error())
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		respond.WriteError(w, http.StatusBadRequest, "MISSING_TOKEN", "token is required")
		return
	}
	if err := notifications.RegisterDevice(r.Context(), h.pool, req.Token, req.Platform); err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Failed to register device", err.Error())
		return
	}
	h.reconciler.Trigger()
	respond.WriteJSONObject(w, http.StatusCreated, map[string]interface{}{"registered": true})
}
