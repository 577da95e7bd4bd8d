// Package secrets stores the Jules API key on disk with restrictive
// permissions. The JULES_API_KEY environment variable always wins over
// the stored value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const keyFileName = "api-key"

// EnvAPIKey is the environment variable consulted before the key file.
const EnvAPIKey = "JULES_API_KEY"

// APIKey returns the configured API key, or "" when none is set.
func APIKey(stateDir string) string {
	if v := os.Getenv(EnvAPIKey); v != "" {
		return v
	}
	data, err := os.ReadFile(filepath.Join(stateDir, keyFileName))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SetAPIKey persists the API key under stateDir with 0600 permissions.
func SetAPIKey(stateDir, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	path := filepath.Join(stateDir, keyFileName)
	if err := os.WriteFile(path, []byte(key+"\n"), 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the stored key file. Missing file is not an error.
func DeleteAPIKey(stateDir string) error {
	err := os.Remove(filepath.Join(stateDir, keyFileName))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove key file: %w", err)
	}
	return nil
}
