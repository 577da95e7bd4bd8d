// Package config defines the jules CLI configuration model and defaults.
//
// Configuration is assembled from multiple sources with a strict precedence
// chain: built-in defaults < global config file < project config file <
// explicit config file < CLI flag overrides.
package config

import (
	"os"
	"path/filepath"
)

// DefaultBaseURL is the Jules API endpoint used when API_BASE_URL is unset.
const DefaultBaseURL = "https://jules.googleapis.com/v1alpha"

// MinPollInterval is the floor applied to POLL_INTERVAL regardless of the
// configured value, to bound the background request rate.
const MinPollInterval = 10

// WhitelistedVars lists every configuration variable name that may appear in
// config files. Variables not in this list are silently ignored during
// loading.
var WhitelistedVars = [11]string{
	"API_BASE_URL",
	"STATE_DIR",
	"AUTO_REFRESH",
	"POLL_INTERVAL",
	"HIDE_CLOSED",
	"DEFAULT_BRANCH",
	"GITHUB_TOKEN",
	"NOTIFY_WEBHOOK",
	"NOTIFY_CHANNEL",
	"NOTIFY_CHAT_ID",
	"VERBOSE",
}

// Config holds every configuration field for the jules CLI.
type Config struct {
	// Remote endpoint.
	APIBaseURL string

	// Local state directory (snapshots, caches, stored credentials).
	StateDir string

	// Background refresh settings.
	AutoRefresh  bool
	PollInterval int // seconds; clamped to MinPollInterval at use sites

	// Listing behavior: hide sessions whose snapshot is terminated.
	HideClosed bool

	// Branch preselection for the create-session flow:
	// "current", "main", or "default".
	DefaultBranch string

	// GitHub credential for PR status checks and branch creation.
	// Optional; the gh CLI and GITHUB_TOKEN env are consulted as fallbacks.
	GithubToken string

	// Notification relay settings.
	NotifyWebhook string
	NotifyChannel string
	NotifyChatID  string

	// Runtime flags.
	Verbose bool

	// CLI-only flags (not loaded from config files).
	ConfigFile string
}

// NewDefaultConfig returns a Config populated with all built-in defaults.
func NewDefaultConfig() *Config {
	return &Config{
		APIBaseURL:    DefaultBaseURL,
		StateDir:      defaultStateDir(),
		AutoRefresh:   true,
		PollInterval:  30,
		HideClosed:    true,
		DefaultBranch: "current",
		NotifyChannel: "terminal",
	}
}

// defaultStateDir returns ~/.jules, falling back to a relative .jules
// directory when the home directory cannot be resolved.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".jules"
	}
	return filepath.Join(home, ".jules")
}

// GlobalConfigPath returns the path of the global config file (~/.jules/config).
func GlobalConfigPath() string {
	return filepath.Join(defaultStateDir(), "config")
}

// ProjectConfigPath returns the path of the per-project config file,
// looked up in the current working directory.
func ProjectConfigPath() string {
	return ".jules.conf"
}
