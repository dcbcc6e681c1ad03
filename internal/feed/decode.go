package feed

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/albapepper/eventclock/internal/event"
	"github.com/albapepper/eventclock/internal/region"
)

// DecodeRecord normalizes one backend row into an ExternalRecord.
//
// Accepted aliases: event_id|id, event_name|name, expiry_date|expire_date,
// event_type|importance. daily_login may be a bool, 0/1 or "0"/"1". Dates
// must be YYYY-MM-DD; they are validated here but resolved to instants only
// by the region-aware resolver.
func DecodeRecord(row map[string]interface{}) (event.ExternalRecord, error) {
	var rec event.ExternalRecord

	id, ok := ExtractString(first(row, "event_id", "id"))
	if !ok || id == "" {
		return rec, fmt.Errorf("missing event_id")
	}
	rec.EventID = id

	rec.Name, ok = ExtractString(first(row, "event_name", "name"))
	if !ok || rec.Name == "" {
		return rec, fmt.Errorf("event %s: missing event_name", id)
	}
	rec.GameID, _ = ExtractString(row["game_id"])
	rec.GameName, ok = ExtractString(row["game_name"])
	if !ok || rec.GameName == "" {
		return rec, fmt.Errorf("event %s: missing game_name", id)
	}

	rec.StartDate, ok = ExtractString(row["start_date"])
	if !ok {
		return rec, fmt.Errorf("event %s: missing start_date", id)
	}
	rec.ExpiryDate, ok = ExtractString(first(row, "expiry_date", "expire_date"))
	if !ok {
		return rec, fmt.Errorf("event %s: missing expiry_date", id)
	}
	for _, d := range []string{rec.StartDate, rec.ExpiryDate} {
		if _, err := region.ParseDate(d); err != nil {
			return rec, fmt.Errorf("event %s: %w", id, err)
		}
	}

	rec.EventType = event.TypeSide
	if s, ok := ExtractString(first(row, "event_type", "importance")); ok && s != "" {
		t, err := event.ParseType(strings.ToLower(s))
		if err != nil || t == event.TypePermanent {
			return rec, fmt.Errorf("event %s: event_type %q", id, s)
		}
		rec.EventType = t
	}

	if v, present := row["daily_login"]; present {
		b, ok := ExtractBool(v)
		if !ok {
			return rec, fmt.Errorf("event %s: daily_login %v", id, v)
		}
		rec.DailyLogin = b
	}

	return rec, nil
}

func first(row map[string]interface{}, keys ...string) interface{} {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// ExtractString renders ids and names that arrive as strings or numbers.
func ExtractString(val interface{}) (string, bool) {
	switch v := val.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(v), true
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10), true
		}
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	default:
		return "", false
	}
}

// ExtractBool normalizes boolean flags encoded as bools, 0/1 or strings.
func ExtractBool(val interface{}) (bool, bool) {
	switch v := val.(type) {
	case nil:
		return false, true
	case bool:
		return v, true
	case float64:
		switch v {
		case 0:
			return false, true
		case 1:
			return true, true
		}
		return false, false
	case int:
		return ExtractBool(float64(v))
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, false
		}
		return b, true
	default:
		return false, false
	}
}
