// Package view renders the cached session list and related data for
// plain terminal output. The interactive equivalent lives in internal/tui.
package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/state"
)

var (
	runningColor   = color.New(color.FgYellow).SprintFunc()
	completedColor = color.New(color.FgGreen).SprintFunc()
	failedColor    = color.New(color.FgRed).SprintFunc()
	cancelledColor = color.New(color.Faint).SprintFunc()
	dimText        = color.New(color.Faint).SprintFunc()
	boldText       = color.New(color.Bold).SprintFunc()
)

// Filter drops sessions whose snapshot is terminated when hideClosed is
// set. Sessions without a snapshot are always shown.
func Filter(sessions []api.Session, store *state.Store, hideClosed bool) []api.Session {
	if !hideClosed {
		return sessions
	}
	out := make([]api.Session, 0, len(sessions))
	for _, s := range sessions {
		if snap, ok := store.Snapshot(s.Name); ok && snap.Terminated {
			continue
		}
		out = append(out, s)
	}
	return out
}

// StateBadge renders a colorized coarse-state label.
func StateBadge(s api.CoarseState) string {
	switch s {
	case api.StateCompleted:
		return completedColor("done")
	case api.StateFailed:
		return failedColor("failed")
	case api.StateCancelled:
		return cancelledColor("cancelled")
	default:
		return runningColor("running")
	}
}

// RenderSessions writes one line per session to w.
func RenderSessions(w io.Writer, sessions []api.Session) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, dimText("no sessions"))
		return
	}
	for _, s := range sessions {
		line := fmt.Sprintf("%-10s %s  %s", StateBadge(s.State), boldText(s.Title), dimText(s.Name))
		if s.RawState == api.RawAwaitingPlanApproval {
			line += "  " + runningColor("⏳ plan awaiting approval")
		}
		if s.RawState == api.RawAwaitingUserFeedback {
			line += "  " + runningColor("💬 feedback requested")
		}
		if pr := s.PRURL(); pr != "" {
			line += "  " + dimText(pr)
		}
		fmt.Fprintln(w, line)
	}
}

// RenderSources writes one line per source to w.
func RenderSources(w io.Writer, sources []api.Source) {
	if len(sources) == 0 {
		fmt.Fprintln(w, dimText("no sources"))
		return
	}
	for _, src := range sources {
		line := boldText(src.Name)
		if src.GitHubRepo != nil {
			line += "  " + dimText(fmt.Sprintf("%s/%s", src.GitHubRepo.Owner, src.GitHubRepo.Repo))
		}
		fmt.Fprintln(w, line)
	}
}

// RenderActivities writes a session's timeline to w, oldest first.
// Activities with an unrecognized shape are reported, not rendered.
func RenderActivities(w io.Writer, activities []api.Activity) {
	if len(activities) == 0 {
		fmt.Fprintln(w, dimText("no activity"))
		return
	}
	for i := range activities {
		a := &activities[i]
		stamp := dimText(a.CreateTime)
		switch a.Kind() {
		case api.KindPlanGenerated:
			fmt.Fprintf(w, "%s  %s\n", stamp, boldText("plan generated: "+a.PlanGenerated.Plan.Title))
			for n, step := range a.PlanGenerated.Plan.Steps {
				fmt.Fprintf(w, "          %d. %s\n", n+1, step.Description)
			}
		case api.KindPlanApproved:
			fmt.Fprintf(w, "%s  plan approved\n", stamp)
		case api.KindProgressUpdated:
			line := a.ProgressUpdated.Title
			if a.ProgressUpdated.Description != "" {
				line += " — " + a.ProgressUpdated.Description
			}
			fmt.Fprintf(w, "%s  %s\n", stamp, line)
		case api.KindSessionCompleted:
			fmt.Fprintf(w, "%s  %s\n", stamp, completedColor("session completed"))
		default:
			fmt.Fprintf(w, "%s  %s\n", stamp, dimText("(unrecognized activity shape)"))
		}
	}
}

// SnapshotSummary renders a short status line for a stored snapshot,
// used when the live list is unavailable.
func SnapshotSummary(snap state.SessionSnapshot) string {
	parts := []string{StateBadge(snap.State), snap.Title, dimText(snap.Name)}
	if snap.Terminated {
		parts = append(parts, cancelledColor("(terminated)"))
	}
	return strings.Join(parts, "  ")
}
