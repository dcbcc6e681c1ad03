// Package prefs persists user-owned state between runs in a bbolt file:
// notification preferences and the active region profile. Values are
// JSON-encoded under fixed keys; a missing key loads as the caller's default.
package prefs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/albapepper/eventclock/internal/notifications"
	"github.com/albapepper/eventclock/internal/region"
)

const (
	dbOpenTimeout             = time.Second
	dbFileMode    os.FileMode = 0o600
)

var (
	stateBucket    = []byte("state")
	preferencesKey = []byte("notification_preferences.v1")
	regionKey      = []byte("region.v1")
)

// Store is the bbolt-backed state store. Safe for concurrent use.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the state file at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("prefs: db path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("prefs: ensure dir %q: %w", dir, err)
		}
	}

	db, err := bbolt.Open(path, dbFileMode, &bbolt.Options{Timeout: dbOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("prefs: open db: %w", err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(stateBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prefs: create bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the state file.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadNotificationPreferences returns the saved preferences, or enabled
// defaults with no per-game entries when nothing has been saved.
func (s *Store) LoadNotificationPreferences() (notifications.Preferences, error) {
	var p notifications.Preferences
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		p, err = loadPreferences(tx)
		return err
	})
	if err != nil {
		return notifications.DefaultPreferences(), err
	}
	return p, nil
}

// SavePreferences overwrites the saved preferences.
func (s *Store) SavePreferences(p notifications.Preferences) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	return s.put(preferencesKey, p)
}

// UpdatePreferences applies fn to the saved preferences inside a single
// write transaction, so concurrent updates never lose each other's changes.
// fn reports whether it changed anything; unchanged preferences are not
// rewritten. The preferences as stored after the call are returned.
func (s *Store) UpdatePreferences(fn func(*notifications.Preferences) (bool, error)) (notifications.Preferences, error) {
	var out notifications.Preferences
	err := s.db.Update(func(tx *bbolt.Tx) error {
		p, err := loadPreferences(tx)
		if err != nil {
			return err
		}
		changed, err := fn(&p)
		if err != nil {
			return err
		}
		if changed {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("prefs: %w", err)
			}
			if err := putTx(tx, preferencesKey, p); err != nil {
				return err
			}
		}
		out = p
		return nil
	})
	if err != nil {
		return notifications.DefaultPreferences(), err
	}
	return out, nil
}

// EnsureGames adds empty entries for games not yet in the saved preferences
// and returns the result.
func (s *Store) EnsureGames(games []string) (notifications.Preferences, error) {
	return s.UpdatePreferences(func(p *notifications.Preferences) (bool, error) {
		return p.EnsureGames(games), nil
	})
}

func loadPreferences(tx *bbolt.Tx) (notifications.Preferences, error) {
	p := notifications.DefaultPreferences()
	found, err := getTx(tx, preferencesKey, &p)
	if err != nil {
		return notifications.DefaultPreferences(), err
	}
	if found {
		p.EnsureGames(nil)
	}
	return p, nil
}

// LoadRegion returns the saved region profile and whether one was saved.
func (s *Store) LoadRegion() (region.Profile, bool, error) {
	var p region.Profile
	found, err := s.get(regionKey, &p)
	if err != nil || !found {
		return region.Profile{}, false, err
	}
	if err := p.Validate(); err != nil {
		return region.Profile{}, false, fmt.Errorf("prefs: stored region: %w", err)
	}
	return p, true, nil
}

// SaveRegion overwrites the saved region profile.
func (s *Store) SaveRegion(p region.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("prefs: %w", err)
	}
	return s.put(regionKey, p)
}

func (s *Store) get(key []byte, into interface{}) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		found, err = getTx(tx, key, into)
		return err
	})
	return found, err
}

func (s *Store) put(key []byte, v interface{}) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return putTx(tx, key, v)
	})
}

func getTx(tx *bbolt.Tx, key []byte, into interface{}) (bool, error) {
	bucket := tx.Bucket(stateBucket)
	if bucket == nil {
		return false, nil
	}
	data := bucket.Get(key)
	if len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return false, fmt.Errorf("prefs: decode %s: %w", key, err)
	}
	return true, nil
}

func putTx(tx *bbolt.Tx, key []byte, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("prefs: marshal %s: %w", key, err)
	}
	bucket, err := tx.CreateBucketIfNotExists(stateBucket)
	if err != nil {
		return err
	}
	if err := bucket.Put(key, payload); err != nil {
		return fmt.Errorf("prefs: save %s: %w", key, err)
	}
	return nil
}
