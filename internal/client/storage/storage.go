// Package storage implements the client's durable key-value store: the
// local-disk equivalent of the browser's localStorage. Values are
// JSON-serialized strings kept in a single file and written through
// synchronously. Last writer wins; no cross-process coordination.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// Well-known storage keys.
const (
	// KeyToken holds the bearer credential.
	KeyToken = "auth_token"
	// KeyUser holds the JSON-serialized user profile.
	KeyUser = "auth_user"
	// KeyTheme holds the UI theme preference.
	KeyTheme = "theme_preference"
)

// ChatHistoryKey returns the per-user key under which chat history is stored.
func ChatHistoryKey(userID string) string {
	return "chat_history_" + userID
}

const storageFile = "local_storage.json"

// Store is a mutex-guarded string-to-string map persisted as JSON.
type Store struct {
	path   string
	mu     sync.Mutex
	values map[string]string
}

// Open loads (or creates) the store file under dir.
// A missing file yields an empty store; a corrupt file is discarded.
func Open(dir string) (*Store, error) {
	s := &Store{
		path:   filepath.Join(dir, storageFile),
		values: make(map[string]string),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.values); err != nil {
		// Unreadable state is treated the same as no state.
		s.values = make(map[string]string)
	}
	return s, nil
}

// Get returns the value stored under key and whether it was present.
func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key and writes the file through synchronously.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.save()
}

// Remove deletes key and writes the file through. Removing an absent
// key is a no-op.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save()
}

// save writes the current map to disk. Caller must hold the mutex.
func (s *Store) save() error {
	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(s.values)
}
