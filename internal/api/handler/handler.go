// Package handler provides HTTP handlers for all API endpoints.
// Handlers read the aggregator's current snapshot directly; there is no
// service layer. Rendered responses are cached per snapshot generation.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/eventclock/internal/aggregate"
	"github.com/albapepper/eventclock/internal/api/respond"
	"github.com/albapepper/eventclock/internal/cache"
	"github.com/albapepper/eventclock/internal/config"
	"github.com/albapepper/eventclock/internal/notifications"
	"github.com/albapepper/eventclock/internal/prefs"
)

// Deps are the collaborators a Handler needs. Pool is nil when no database
// is configured.
type Deps struct {
	Aggregator *aggregate.Aggregator
	Reconciler *notifications.Reconciler
	Store      *prefs.Store
	Pool       *pgxpool.Pool
	Cache      *cache.Cache
	Config     *config.Config
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	agg        *aggregate.Aggregator
	reconciler *notifications.Reconciler
	store      *prefs.Store
	pool       *pgxpool.Pool
	cache      *cache.Cache
	cfg        *config.Config
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	return &Handler{
		agg:        d.Aggregator,
		reconciler: d.Reconciler,
		store:      d.Store,
		pool:       d.Pool,
		cache:      d.Cache,
		cfg:        d.Config,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and the active region.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	snap := h.agg.Snapshot()
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":       "Eventclock API",
		"version":    "1.0.0",
		"status":     "running",
		"docs":       "/docs",
		"region":     snap.Region.Name,
		"generation": snap.Generation,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status, snapshot age and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	snap := h.agg.Snapshot()
	body := map[string]interface{}{
		"status":      "healthy",
		"generation":  snap.Generation,
		"computed_at": snap.ComputedAt.UTC().Format(time.RFC3339),
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if !snap.FetchedAt.IsZero() {
		body["fetched_at"] = snap.FetchedAt.UTC().Format(time.RFC3339)
	}
	respond.WriteJSONObject(w, http.StatusOK, body)
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity. Reports "disabled" when no database is configured.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status":    "healthy",
			"database":  "disabled",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	var n int
	err := h.pool.QueryRow(r.Context(), "health_check").Scan(&n)
	if err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys, purges).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// serveCached answers from the cache (honouring If-None-Match) or renders,
// stores and writes a fresh body.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key, contentType string, ttl time.Duration, render func() ([]byte, error)) {
	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteBytes(w, contentType, data, etag, ttl, true)
		return
	}

	data, err := render()
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "RENDER_FAILED", "Failed to render response", err.Error())
		return
	}
	etag := h.cache.Set(key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteBytes(w, contentType, data, etag, ttl, false)
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
