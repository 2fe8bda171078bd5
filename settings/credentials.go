// Package settings stores locdiff user settings, currently the API keys
// of translation drivers.
//
// Settings live in the XDG data directory:
//
//	$XDG_DATA_HOME/locdiff/auth.json  (default: ~/.local/share/locdiff/)
//
// auth.json is a JSON object keyed by driver name:
//
//	{"groq": {"key": "gsk_...", "baseUrl": ""}}
//
// File permissions are 0600 (owner read/write only).
//
// Lookup order for API keys:
//  1. --api-key flag (highest priority)
//  2. LOCDIFF_API_KEY environment variable
//  3. This credential store
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	dataDirName = "locdiff"
	fileName    = "auth.json"
)

// EnvAPIKey is the environment variable consulted before the store.
const EnvAPIKey = "LOCDIFF_API_KEY"

// Info holds the credentials of one driver.
type Info struct {
	Key string `json:"key,omitempty"`
	// BaseURL is the endpoint for custom-openai.
	BaseURL string `json:"baseUrl,omitempty"`
}

// Store holds all driver credentials, keyed by driver name.
type Store map[string]*Info

// dataDir returns the XDG data directory for locdiff.
func dataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, dataDirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", dataDirName), nil
}

// FilePath returns the path to auth.json.
func FilePath() (string, error) {
	dir, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName), nil
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the credential store from disk.
// Returns an empty store if the file doesn't exist or is invalid.
func Load() Store {
	path, err := FilePath()
	if err != nil {
		return make(Store)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return make(Store)
	}

	var store Store
	if err := json.Unmarshal(data, &store); err != nil || store == nil {
		return make(Store)
	}
	return store
}

// Save writes the credential store to disk with 0600 permissions.
func Save(store Store) error {
	path, err := FilePath()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing auth file: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// SetAPIKey stores an API key (and optional base URL) for a driver.
func SetAPIKey(driver, key, baseURL string) error {
	store := Load()
	store[driver] = &Info{Key: key, BaseURL: baseURL}
	return Save(store)
}

// Remove deletes credentials for a driver.
func Remove(driver string) error {
	store := Load()
	if _, ok := store[driver]; !ok {
		return nil
	}
	delete(store, driver)
	return Save(store)
}

// ResolveAPIKey returns flagValue if set, then $LOCDIFF_API_KEY, then the
// stored key for driver.
func ResolveAPIKey(driver, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv(EnvAPIKey); env != "" {
		return env
	}
	if info := Load()[driver]; info != nil {
		return info.Key
	}
	return ""
}

// BaseURL returns the stored base URL for driver.
func BaseURL(driver string) string {
	if info := Load()[driver]; info != nil {
		return info.BaseURL
	}
	return ""
}

// MaskKey returns a masked version of a key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
