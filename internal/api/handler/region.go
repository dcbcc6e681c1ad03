package handler

import (
	"encoding/json"
	"net/http"

	"github.com/albapepper/eventclock/internal/api/respond"
	"github.com/albapepper/eventclock/internal/cache"
	"github.com/albapepper/eventclock/internal/config"
	"github.com/albapepper/eventclock/internal/region"
)

// RegionRequest selects a built-in region by name or describes a custom one.
type RegionRequest struct {
	Name           string   `json:"name"`
	UTCOffsetHours *float64 `json:"utc_offset_hours,omitempty"`
	ResetHour      *int     `json:"reset_hour,omitempty"`
	Zone           string   `json:"zone,omitempty"`
}

func (req RegionRequest) profile() (region.Profile, bool) {
	if req.UTCOffsetHours == nil && req.ResetHour == nil && req.Zone == "" {
		return config.LookupRegion(req.Name)
	}
	if req.UTCOffsetHours == nil || req.ResetHour == nil {
		return region.Profile{}, false
	}
	name := req.Name
	if name == "" {
		name = "custom"
	}
	return region.Profile{
		Name:           name,
		UTCOffsetHours: *req.UTCOffsetHours,
		ResetHour:      *req.ResetHour,
		Zone:           req.Zone,
	}, true
}

// GetRegions lists the built-in regions.
// @Summary List regions
// @Description Returns the built-in region profiles and the active one.
// @Tags region
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /regions [get]
func (h *Handler) GetRegions(w http.ResponseWriter, r *http.Request) {
	active := h.agg.Region()
	key := "regions:" + active.Name
	h.serveCached(w, r, key, "application/json", cache.TTLStatic, func() ([]byte, error) {
		regions := make([]region.Profile, 0, len(config.RegionRegistry))
		for _, name := range config.RegionNames() {
			regions = append(regions, config.RegionRegistry[name])
		}
		return json.Marshal(map[string]interface{}{"regions": regions, "active": active})
	})
}

// GetRegion returns the active region profile.
// @Summary Active region
// @Tags region
// @Produce json
// @Success 200 {object} region.Profile
// @Router /region [get]
func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, h.agg.Region())
}

// PutRegion switches the active region, persists it and recomputes.
// @Summary Set active region
// @Description Selects a built-in region by name, or a custom one with utc_offset_hours and reset_hour (and optionally an IANA zone). All events are re-resolved and reminders re-synced.
// @Tags region
// @Accept json
// @Produce json
// @Param body body RegionRequest true "Region selection"
// @Success 200 {object} region.Profile
// @Failure 400 {object} respond.ErrorResponse
// @Failure 500 {object} respond.ErrorResponse
// @Router /region [put]
func (h *Handler) PutRegion(w http.ResponseWriter, r *http.Request) {
	var req RegionRequest
	if err := decodeBody(r, &req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_BODY", "Malformed region request", err.Error())
		return
	}
	profile, ok := req.profile()
	if !ok {
		respond.WriteError(w, http.StatusBadRequest, "UNKNOWN_REGION",
			"name must be a built-in region, or give both utc_offset_hours and reset_hour")
		return
	}
	if err := profile.Validate(); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_REGION", "Invalid region profile", err.Error())
		return
	}

	if err := h.store.SaveRegion(profile); err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "STORE_FAILED", "Failed to persist region", err.Error())
		return
	}
	if err := h.agg.SetRegion(profile); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "INVALID_REGION", "Invalid region profile", err.Error())
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, h.agg.Region())
}
