package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/eventclock/internal/aggregate"
	"github.com/albapepper/eventclock/internal/api"
	"github.com/albapepper/eventclock/internal/api/handler"
	"github.com/albapepper/eventclock/internal/cache"
	"github.com/albapepper/eventclock/internal/catalog"
	"github.com/albapepper/eventclock/internal/config"
	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/notifications"
	"github.com/albapepper/eventclock/internal/prefs"
)

var now = time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	records []event.ExternalRecord
	err     error
}

func (s *stubFetcher) FetchEvents(context.Context) ([]event.ExternalRecord, int, error) {
	return s.records, 0, s.err
}

type testEnv struct {
	srv      *httptest.Server
	fetcher  *stubFetcher
	agg      *aggregate.Aggregator
	platform *notifications.MemoryPlatform
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	defs, err := catalog.Default()
	require.NoError(t, err)

	fetcher := &stubFetcher{records: []event.ExternalRecord{{
		EventID: "101", Name: "Lantern Rite", GameID: "1", GameName: "Genshin Impact",
		StartDate: "2026-01-20", ExpiryDate: "2026-02-05", EventType: event.TypeMain,
	}}}

	europe, _ := config.LookupRegion("europe")
	agg := aggregate.New(fetcher, defs, europe, logger, aggregate.WithClock(func() time.Time { return now }))
	require.NoError(t, agg.Refresh(context.Background()))

	store, err := prefs.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	platform := notifications.NewMemoryPlatform()
	sched := notifications.NewScheduler(platform, logger)
	sched.SetClock(func() time.Time { return now })
	rec := notifications.NewReconciler(sched, func() []event.Resolved { return agg.Snapshot().Events() }, store, logger)

	appCache := cache.New(true)
	agg.OnUpdate(func(*aggregate.Snapshot) { appCache.Purge() })

	router := api.NewRouter(handler.Deps{
		Aggregator: agg,
		Reconciler: rec,
		Store:      store,
		Cache:      appCache,
		Config:     &config.Config{CORSAllowOrigins: []string{"*"}},
	}, logger)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, fetcher: fetcher, agg: agg, platform: platform}
}

func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(t, err)
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func findEvent(groups []aggregate.Group, id string) (aggregate.Bucket, event.Resolved, bool) {
	for _, g := range groups {
		for _, e := range g.Events {
			if e.ID == id {
				return g.Bucket, e, true
			}
		}
	}
	return "", event.Resolved{}, false
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestGetEventsBucketsAndETag(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/events", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache"))
	assert.NotEmpty(t, resp.Header.Get("X-Process-Time"))
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)

	var body handler.EventsResponse
	decode(t, resp, &body)
	assert.Equal(t, "europe", body.Region.Name)
	bucket, e, ok := findEvent(body.Groups, "101")
	require.True(t, ok)
	assert.Equal(t, aggregate.BucketExpireToday, bucket)
	assert.Equal(t, time.Date(2026, 2, 5, 3, 0, 0, 0, time.UTC), e.Expiry)

	again := env.do(t, http.MethodGet, "/api/v1/events", "", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, again.StatusCode)
}

func TestGetEventsFilters(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/events?game=Honkai+Star+Rail", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body handler.EventsResponse
	decode(t, resp, &body)
	for _, g := range body.Groups {
		for _, e := range g.Events {
			assert.Equal(t, "Honkai Star Rail", e.GameName)
		}
	}

	bad := env.do(t, http.MethodGet, "/api/v1/events?type=legendary", "", nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestPutRegionReresolves(t *testing.T) {
	env := newEnv(t)
	before := env.agg.Snapshot().Generation

	resp := env.do(t, http.MethodPut, "/api/v1/region", `{"name":"asia"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	events := env.do(t, http.MethodGet, "/api/v1/events", "", nil)
	var body handler.EventsResponse
	decode(t, events, &body)
	assert.Equal(t, "asia", body.Region.Name)
	assert.Greater(t, body.Generation, before)
	// 2026-02-05 at a +8 region resets at 2026-02-04T20:00Z.
	_, e, ok := findEvent(body.Groups, "101")
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 4, 20, 0, 0, 0, time.UTC), e.Expiry)

	custom := env.do(t, http.MethodPut, "/api/v1/region", `{"name":"sea","utc_offset_hours":7,"reset_hour":5}`, nil)
	require.Equal(t, http.StatusOK, custom.StatusCode)
	assert.Equal(t, 7.0, env.agg.Region().UTCOffsetHours)
}

func TestPutRegionRejectsInvalid(t *testing.T) {
	env := newEnv(t)
	cases := map[string]string{
		"unknown name":   `{"name":"mars"}`,
		"offset too big": `{"utc_offset_hours":20,"reset_hour":4}`,
		"half custom":    `{"utc_offset_hours":2}`,
		"unknown field":  `{"region":"asia"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := env.do(t, http.MethodPut, "/api/v1/region", body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
	assert.Equal(t, "europe", env.agg.Region().Name)
}

func TestPreferencesAndSync(t *testing.T) {
	env := newEnv(t)

	prefsBody := `{"global_enabled":true,"per_game":{"Genshin Impact":{"main":["2hours","2hours"]}}}`
	resp := env.do(t, http.MethodPut, "/api/v1/preferences", prefsBody, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var saved notifications.Preferences
	decode(t, resp, &saved)
	assert.Equal(t, []notifications.LeadTime{notifications.Lead2Hours}, saved.LeadTimesFor("Genshin Impact", event.TypeMain))

	sync := env.do(t, http.MethodPost, "/api/v1/notifications/sync", "", nil)
	require.Equal(t, http.StatusOK, sync.StatusCode)
	var res notifications.Result
	decode(t, sync, &res)
	assert.True(t, res.Permitted)
	assert.Equal(t, 1, res.Desired)

	list := env.do(t, http.MethodGet, "/api/v1/notifications", "", nil)
	var listed struct {
		Scheduled []notifications.Scheduled `json:"scheduled"`
	}
	decode(t, list, &listed)
	require.Len(t, listed.Scheduled, 1)
	assert.Equal(t, "event-101-2hours", listed.Scheduled[0].Identifier)

	second := env.do(t, http.MethodPost, "/api/v1/notifications/sync", "", nil)
	decode(t, second, &res)
	assert.Equal(t, 0, res.Scheduled)
	assert.Equal(t, 0, res.Cancelled)

	bad := env.do(t, http.MethodPut, "/api/v1/preferences", `{"global_enabled":true,"per_game":{"G":{"main":["1week"]}}}`, nil)
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestPutPreferencesKeepsOmittedGames(t *testing.T) {
	env := newEnv(t)

	sync := env.do(t, http.MethodPost, "/api/v1/notifications/sync", "", nil)
	require.Equal(t, http.StatusOK, sync.StatusCode)
	var known notifications.Preferences
	decode(t, env.do(t, http.MethodGet, "/api/v1/preferences", "", nil), &known)
	require.Contains(t, known.PerGame, "Genshin Impact")

	first := `{"global_enabled":true,"per_game":{"Honkai Star Rail":{"permanent":["1day"]}}}`
	resp := env.do(t, http.MethodPut, "/api/v1/preferences", first, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	second := `{"global_enabled":false,"per_game":{"Genshin Impact":{"main":["3days"]}}}`
	resp = env.do(t, http.MethodPut, "/api/v1/preferences", second, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	get := env.do(t, http.MethodGet, "/api/v1/preferences", "", nil)
	var got notifications.Preferences
	decode(t, get, &got)
	assert.False(t, got.GlobalEnabled)
	assert.Equal(t, []notifications.LeadTime{notifications.Lead3Days}, got.LeadTimesFor("Genshin Impact", event.TypeMain))
	assert.Equal(t, []notifications.LeadTime{notifications.Lead1Day}, got.LeadTimesFor("Honkai Star Rail", event.TypePermanent))
	for game := range known.PerGame {
		assert.Contains(t, got.PerGame, game)
	}
}

func TestCalendarAndGames(t *testing.T) {
	env := newEnv(t)

	resp := env.do(t, http.MethodGet, "/api/v1/events.ics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/calendar"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "external-101@eventclock")

	games := env.do(t, http.MethodGet, "/api/v1/games", "", nil)
	var body struct {
		Games []string `json:"games"`
	}
	decode(t, games, &body)
	assert.Contains(t, body.Games, "Genshin Impact")
	assert.Contains(t, body.Games, "Goddess of Victory Nikke")
}

func TestRefreshFailureKeepsData(t *testing.T) {
	env := newEnv(t)
	env.fetcher.err = errors.New("backend down")

	resp := env.do(t, http.MethodPost, "/api/v1/refresh", "", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Len(t, env.agg.Snapshot().Active, 1)
}

func TestDevicesRequireDatabase(t *testing.T) {
	env := newEnv(t)
	resp := env.do(t, http.MethodPost, "/api/v1/devices", `{"token":"abc"}`, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newEnv(t)
	for _, path := range []string{"/", "/health", "/health/db", "/health/cache"} {
		resp := env.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}
