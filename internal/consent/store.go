package consent

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"
)

// Version is the current consent schema version. A stored record with a
// different version is discarded and treated as absent.
const Version = 2

type Preferences struct {
	Necessary bool `json:"necessary"`
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

// Record is the persisted consent state, a single versioned JSON document.
type Record struct {
	HasResponded bool        `json:"hasResponded"`
	Version      int         `json:"version"`
	Preferences  Preferences `json:"preferences"`
	Timestamp    time.Time   `json:"timestamp"`
}

func defaultRecord() Record {
	return Record{
		HasResponded: false,
		Version:      Version,
		Preferences:  Preferences{Necessary: true},
	}
}

// Store holds the user's tracking consent. Injectable so tests can substitute
// a fake; tracking must never consult ambient global state.
type Store interface {
	Load() Record
	Save(prefs Preferences) error
	Reset() error
}

// FileStore persists the consent record as JSON at a fixed path.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load returns the stored record, or the unanswered default when the file is
// missing, unreadable, or carries a stale schema version.
func (s *FileStore) Load() Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return defaultRecord()
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return defaultRecord()
	}
	if rec.Version != Version {
		return defaultRecord()
	}
	rec.Preferences.Necessary = true
	return rec
}

// Save overwrites the record wholesale with the given preferences.
func (s *FileStore) Save(prefs Preferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs.Necessary = true
	rec := Record{
		HasResponded: true,
		Version:      Version,
		Preferences:  prefs,
		Timestamp:    time.Now().UTC(),
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode consent record: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write consent record: %w", err)
	}
	return nil
}

// Reset removes the stored record, returning the store to the unanswered
// default.
func (s *FileStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to reset consent record: %w", err)
	}
	return nil
}
