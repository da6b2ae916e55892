// Package auth implements API key authentication with optional short-lived
// bearer tokens. When no keys are configured all endpoints stay open (dev
// mode); auth only activates once a key exists in the keys file.
package auth

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"
)

// KeyEntry describes one issued API key.
type KeyEntry struct {
	Name    string `json:"name"`
	Created string `json:"created"`
	Active  bool   `json:"active"`
}

// KeyStore reads API keys from a JSON file keyed by the key string. The file
// is re-read on every check so newly generated keys are picked up without a
// restart.
type KeyStore struct {
	path   string
	logger *zap.Logger
}

// NewKeyStore creates a store backed by the given file path.
func NewKeyStore(path string, logger *zap.Logger) *KeyStore {
	return &KeyStore{path: path, logger: logger}
}

// load returns the key map, or an empty map when the file is missing, empty,
// or malformed. A malformed file is logged; a missing one is normal.
func (s *KeyStore) load() map[string]KeyEntry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("Could not read API keys file",
				zap.String("path", s.path),
				zap.Error(err))
		}
		return map[string]KeyEntry{}
	}

	var keys map[string]KeyEntry
	if err := json.Unmarshal(data, &keys); err != nil {
		s.logger.Warn("Could not parse API keys file",
			zap.String("path", s.path),
			zap.Error(err))
		return map[string]KeyEntry{}
	}
	return keys
}

// Enabled reports whether at least one API key is configured.
func (s *KeyStore) Enabled() bool {
	return len(s.load()) > 0
}

// Verify checks that the key exists and is active.
func (s *KeyStore) Verify(key string) bool {
	entry, ok := s.load()[key]
	return ok && entry.Active
}

// Lookup returns the entry for a key when it exists and is active.
func (s *KeyStore) Lookup(key string) (KeyEntry, bool) {
	entry, ok := s.load()[key]
	if !ok || !entry.Active {
		return KeyEntry{}, false
	}
	return entry, true
}

// LoadKeys reads a keys file for tooling; missing files yield an empty map.
func LoadKeys(path string) (map[string]KeyEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]KeyEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read keys file: %w", err)
	}

	var keys map[string]KeyEntry
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("failed to parse keys file: %w", err)
	}
	return keys, nil
}

// SaveKeys writes the key map back to disk.
func SaveKeys(path string, keys map[string]KeyEntry) error {
	data, err := json.MarshalIndent(keys, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode keys: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write keys file: %w", err)
	}
	return nil
}
