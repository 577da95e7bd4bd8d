// Package notify turns session transitions into user-facing notifications.
package notify

import (
	"fmt"
	"strings"
)

// EventKind identifies which transition a notification reports.
type EventKind int

// Notification-worthy transitions.
const (
	EventPlanAwaitingApproval EventKind = iota
	EventUserFeedbackRequired
	EventCompletedWithPR
)

// Event is one notification-worthy session transition.
type Event struct {
	Kind         EventKind
	SessionName  string
	SessionTitle string
	PRURL        string // set for EventCompletedWithPR
	PlanText     string // best-effort enrichment for EventPlanAwaitingApproval
}

// FormatEvent renders the one-line notification message for an event.
func FormatEvent(e Event) string {
	switch e.Kind {
	case EventPlanAwaitingApproval:
		msg := fmt.Sprintf("📋 Plan ready for approval in session %q — run: jules approve %s", e.SessionTitle, e.SessionName)
		if e.PlanText != "" {
			msg += "\n" + e.PlanText
		}
		return msg
	case EventUserFeedbackRequired:
		return fmt.Sprintf("💬 Session %q is waiting for your feedback — run: jules send %s <message>", e.SessionTitle, e.SessionName)
	case EventCompletedWithPR:
		return fmt.Sprintf("✅ Session %q completed and created a PR: %s", e.SessionTitle, e.PRURL)
	default:
		return fmt.Sprintf("ℹ️ Session %q changed state", e.SessionTitle)
	}
}

// FormatPlan renders a generated plan as an indented step list for
// inclusion in a plan-approval notification.
func FormatPlan(title string, steps []string) string {
	if title == "" && len(steps) == 0 {
		return ""
	}
	var b strings.Builder
	if title != "" {
		b.WriteString("  " + title + "\n")
	}
	for i, step := range steps {
		b.WriteString(fmt.Sprintf("  %d. %s\n", i+1, step))
	}
	return strings.TrimRight(b.String(), "\n")
}
