// Command jules drives the Jules remote coding agent from the terminal:
// create sessions against registered sources, send prompts, approve plans,
// and watch session progress with desktop-free notifications.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/config"
	"github.com/WhiteDevil-93/jules/internal/exitcode"
	"github.com/WhiteDevil-93/jules/internal/logging"
	"github.com/WhiteDevil-93/jules/internal/secrets"
	"github.com/WhiteDevil-93/jules/internal/state"
)

// version vars injected via ldflags at build time
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// errMissingKey distinguishes configuration failures for the exit code.
var errMissingKey = errors.New("no API key configured — run: jules auth set-key")

// rootFlags are CLI-only options shared by every subcommand.
type rootFlags struct {
	configFile string
	verbose    bool
}

func main() {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:     "jules",
		Short:   "Drive Jules coding-agent sessions from the terminal",
		Long:    "jules creates, steers, and watches remote Jules coding-agent sessions:\npick a source, send prompts, approve plans, and get notified when a PR lands.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetVerbose(flags.verbose)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Path to additional config file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug output")

	rootCmd.AddCommand(
		newAuthCmd(&flags),
		newSourcesCmd(&flags),
		newSessionsCmd(&flags),
		newNewCmd(&flags),
		newWatchCmd(&flags),
		newActivitiesCmd(&flags),
		newSendCmd(&flags),
		newApproveCmd(&flags),
		newDeleteCmd(&flags),
		newClearCacheCmd(&flags),
		newOpenCmd(&flags),
	)

	if err := rootCmd.Execute(); err != nil {
		logging.Error(err.Error())
		if errors.Is(err, errMissingKey) {
			os.Exit(exitcode.Config)
		}
		os.Exit(exitcode.Error)
	}
}

// loadConfig assembles the effective configuration for one command run.
func loadConfig(flags *rootFlags) (*config.Config, error) {
	overrides := map[string]string{}
	if flags.verbose {
		overrides["VERBOSE"] = "true"
	}
	cfg, err := config.LoadWithPrecedence(
		config.GlobalConfigPath(),
		config.ProjectConfigPath(),
		flags.configFile,
		overrides,
	)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.ConfigFile = flags.configFile
	logging.SetVerbose(cfg.Verbose || flags.verbose)
	return cfg, nil
}

// newClient builds the API client, failing with errMissingKey when no
// credential is configured.
func newClient(cfg *config.Config) (*api.Client, error) {
	key := secrets.APIKey(cfg.StateDir)
	if key == "" {
		return nil, errMissingKey
	}
	return api.NewClient(key, cfg.APIBaseURL), nil
}

// openStore opens the persisted watch state for cfg.
func openStore(cfg *config.Config) (*state.Store, error) {
	st, err := state.Open(cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	return st, nil
}

// sessionArg normalizes a user-supplied session reference to its resource
// name: bare ids get the "sessions/" prefix.
func sessionArg(arg string) string {
	if strings.Contains(arg, "/") {
		return arg
	}
	return "sessions/" + arg
}

// resolveSession returns the session named by args, falling back to the
// most recently created one when args is empty.
func resolveSession(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 {
		return sessionArg(args[0]), nil
	}
	st, err := openStore(cfg)
	if err != nil {
		return "", err
	}
	if name := st.ActiveSession(); name != "" {
		return name, nil
	}
	return "", fmt.Errorf("no session given and none active — pass a session id or run: jules new")
}
