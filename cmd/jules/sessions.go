package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WhiteDevil-93/jules/internal/github"
	"github.com/WhiteDevil-93/jules/internal/logging"
	"github.com/WhiteDevil-93/jules/internal/notify"
	"github.com/WhiteDevil-93/jules/internal/view"
	"github.com/WhiteDevil-93/jules/internal/watch"
)

func newSourcesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List repositories registered with the agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			sources, err := client.ListSources(cmd.Context())
			if err != nil {
				return err
			}
			view.RenderSources(os.Stdout, sources)
			return nil
		},
	}
}

func newSessionsCmd(flags *rootFlags) *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Fetch, reconcile, and list sessions",
		Long:  "Fetches the current session list, runs one reconciliation pass (so pending\nnotifications fire), and prints the result. Terminated sessions are hidden\nunless --all is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}

			checker := github.NewStatusChecker(st.PRStatusCache(), func() string {
				return github.ResolveToken(cfg.GithubToken)
			})
			rec := watch.NewReconciler(client, st, checker, notify.TerminalNotifier{})

			if err := rec.Run(cmd.Context()); err != nil {
				return err
			}

			hide := cfg.HideClosed && !showAll
			view.RenderSessions(os.Stdout, view.Filter(rec.Sessions(), st, hide))
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAll, "all", false, "Include terminated and closed-PR sessions")
	return cmd
}

func newActivitiesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "activities [session]",
		Short: "Show a session's timeline (defaults to the active session)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			name, err := resolveSession(cfg, args)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			activities, err := client.ListActivities(cmd.Context(), name)
			if err != nil {
				return err
			}
			view.RenderActivities(os.Stdout, activities)
			return nil
		},
	}
}

func newSendCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "send <session> <prompt>",
		Short: "Send a message into a running session",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			prompt := joinArgs(args[1:])
			if prompt == "" {
				logging.Warn("empty prompt, nothing sent")
				return nil
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			if err := client.SendMessage(cmd.Context(), sessionArg(args[0]), prompt); err != nil {
				return err
			}
			logging.Success("message sent")
			return nil
		},
	}
}

func newApproveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "approve [session]",
		Short: "Approve the session's pending plan (defaults to the active session)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			name, err := resolveSession(cfg, args)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			if err := client.ApprovePlan(cmd.Context(), name); err != nil {
				return err
			}
			logging.Success("plan approved")
			return nil
		},
	}
}

func newDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Remove a session from the local cache (remote session untouched)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			name := sessionArg(args[0])
			if !st.DeleteSnapshot(name) {
				logging.Warnf("no local snapshot for %s", name)
				return nil
			}
			if err := st.Save(); err != nil {
				return err
			}
			logging.Successf("removed %s from local cache", name)
			return nil
		},
	}
}

func newClearCacheCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-cache",
		Short: "Drop the PR status cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			st.ClearPRStatusCache()
			if err := st.Save(); err != nil {
				return err
			}
			logging.Success("PR status cache cleared")
			return nil
		},
	}
}

func newOpenCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "open [session]",
		Short: "Open the session's PR (or the session page) in the browser",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			name, err := resolveSession(cfg, args)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			s, err := client.GetSession(cmd.Context(), name)
			if err != nil {
				return err
			}
			url := s.PRURL()
			if url == "" {
				url = s.URL
			}
			if url == "" {
				logging.Warn("session has no PR or web URL yet")
				return nil
			}
			return openBrowser(url)
		},
	}
}

// openBrowser launches the platform browser for url.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open browser: %w", err)
	}
	return nil
}

// joinArgs rebuilds a prompt from trailing args.
func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
