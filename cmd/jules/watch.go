package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/WhiteDevil-93/jules/internal/exitcode"
	"github.com/WhiteDevil-93/jules/internal/github"
	"github.com/WhiteDevil-93/jules/internal/logging"
	"github.com/WhiteDevil-93/jules/internal/notify"
	"github.com/WhiteDevil-93/jules/internal/signal"
	"github.com/WhiteDevil-93/jules/internal/tui"
	"github.com/WhiteDevil-93/jules/internal/watch"
)

func newWatchCmd(flags *rootFlags) *cobra.Command {
	var (
		intervalSec int
		once        bool
		useTUI      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll sessions and fire notifications on state transitions",
		Long: "Runs the reconciliation loop: fetches sessions on a timer, diffs them\n" +
			"against the persisted snapshots, and notifies on plan approvals, feedback\n" +
			"requests, and completed sessions with a PR. Each transition notifies at\n" +
			"most once.",
		Args: cobra.NoArgs,
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

			var sinks notify.Multi = notify.Multi{notify.TerminalNotifier{}}
			if cfg.NotifyChatID != "" {
				sinks = append(sinks, notify.WebhookNotifier{
					Webhook: cfg.NotifyWebhook,
					Channel: cfg.NotifyChannel,
					ChatID:  cfg.NotifyChatID,
				})
			}

			rec := watch.NewReconciler(client, st, checker, sinks)

			interval := time.Duration(cfg.EffectivePollInterval()) * time.Second
			if cmd.Flags().Changed("interval") {
				interval = time.Duration(intervalSec) * time.Second
			}
			if interval < watch.MinInterval {
				interval = watch.MinInterval
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var interrupted atomic.Bool
			signal.SetupSignalHandler(ctx, cancel, func() {
				interrupted.Store(true)
				logging.Warn("interrupted — saving state...")
			})

			if useTUI {
				model := tui.New(ctx, client, rec, st, cfg.HideClosed, interval)
				_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
				return err
			}

			// AUTO_REFRESH=false degrades the loop to one pass, same as --once.
			if once || !cfg.AutoRefresh {
				return rec.Run(ctx)
			}

			poller := watch.NewPoller(rec.Run)
			poller.Restart(ctx, true, interval)

			logging.Infof("watching sessions every %s (ctrl+c to stop)", interval)
			poller.Tick(ctx)

			<-ctx.Done()
			poller.Stop()
			if err := st.Save(); err != nil {
				logging.Warnf("persist watch state: %v", err)
			}
			if interrupted.Load() {
				os.Exit(exitcode.Interrupted)
			}
			if err := context.Cause(ctx); err != nil && err != context.Canceled {
				return fmt.Errorf("watch loop: %w", err)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.IntVar(&intervalSec, "interval", 0, "Poll interval in seconds (min 10, default from config)")
	f.BoolVar(&once, "once", false, "Run a single reconciliation pass and exit")
	f.BoolVar(&useTUI, "tui", false, "Interactive session list instead of log output")
	return cmd
}
