// Package feed fetches external event records from the events backend.
//
// The backend serves a JSON array of event rows (optionally wrapped in a
// {"data": [...]} envelope). Rows from different scrapers disagree on field
// names and value encodings; decode.go normalizes them. Requests are rate
// limited with a token bucket.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/eventclock/internal/event"
)

const (
	eventsPath     = "/events"
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20
)

// Client is the HTTP client for the events backend.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a rate-limited backend client. apiKey may be empty.
func NewClient(baseURL, apiKey string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if requestsPerMinute < 1 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// envelope is the optional wrapper around the event array.
type envelope struct {
	Data   json.RawMessage `json:"data"`
	Events json.RawMessage `json:"events"`
}

// FetchEvents retrieves and decodes all event records. Rows that cannot be
// decoded are logged, skipped and counted in rejected; transport and
// envelope errors fail the whole fetch.
func (c *Client) FetchEvents(ctx context.Context) (records []event.ExternalRecord, rejected int, err error) {
	body, err := c.get(ctx, eventsPath)
	if err != nil {
		return nil, 0, err
	}

	rows, err := splitRows(body)
	if err != nil {
		return nil, 0, err
	}

	records = make([]event.ExternalRecord, 0, len(rows))
	for i, raw := range rows {
		rec, err := DecodeRecord(raw)
		if err != nil {
			c.logger.Warn("Skipping malformed event row", "index", i, "error", err)
			rejected++
			continue
		}
		records = append(records, rec)
	}

	c.logger.Info("Fetched events", "rows", len(rows), "records", len(records), "rejected", rejected)
	return records, rejected, nil
}

// get performs a rate-limited GET request against the backend.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// splitRows accepts a bare array or an envelope with data/events.
func splitRows(body []byte) ([]map[string]interface{}, error) {
	trimmed := strings.TrimSpace(string(body))
	raw := json.RawMessage(trimmed)
	if strings.HasPrefix(trimmed, "{") {
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode envelope: %w", err)
		}
		switch {
		case len(env.Data) > 0:
			raw = env.Data
		case len(env.Events) > 0:
			raw = env.Events
		default:
			return nil, fmt.Errorf("decode envelope: no data or events array")
		}
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return rows, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
