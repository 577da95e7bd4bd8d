package notify

import (
	"context"
	"os/exec"
	"time"

	"github.com/WhiteDevil-93/jules/internal/logging"
)

// Notifier delivers a notification to the user. Implementations must not
// block the reconciliation pass for long and must swallow their own errors.
type Notifier interface {
	Notify(e Event)
}

// TerminalNotifier prints notifications through the leveled logger.
type TerminalNotifier struct{}

// Notify writes the formatted event to the terminal.
func (TerminalNotifier) Notify(e Event) {
	logging.Success(FormatEvent(e))
}

// WebhookNotifier relays notifications through the openclaw CLI to an
// external channel (e.g. a chat). Fire-and-forget: silent on failure,
// no-op when ChatID is empty.
type WebhookNotifier struct {
	Webhook string
	Channel string
	ChatID  string
}

// Notify sends the formatted event through the relay.
func (w WebhookNotifier) Notify(e Event) {
	if w.ChatID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "openclaw", "message", "send",
		"--webhook", w.Webhook,
		"--channel", w.Channel,
		"--chat-id", w.ChatID,
		"--message", FormatEvent(e),
	)
	_ = cmd.Run()
}

// Multi fans one event out to several notifiers.
type Multi []Notifier

// Notify delivers e to every wrapped notifier.
func (m Multi) Notify(e Event) {
	for _, n := range m {
		n.Notify(e)
	}
}
