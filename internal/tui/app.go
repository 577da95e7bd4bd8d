// Package tui is the interactive session list: live refresh through the
// reconciliation engine, hide-closed filtering, plan approval, and PR
// opening, all from one bubbletea app.
package tui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/logging"
	"github.com/WhiteDevil-93/jules/internal/state"
	"github.com/WhiteDevil-93/jules/internal/view"
	"github.com/WhiteDevil-93/jules/internal/watch"
)

// — styles ——————————————————————————————————————————————————————————————————

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	dimStyle  = lipgloss.NewStyle().Faint(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	helpStyle = lipgloss.NewStyle().
			Faint(true).
			PaddingLeft(2)
)

// — messages ————————————————————————————————————————————————————————————————

type reconciledMsg struct {
	sessions []api.Session
	err      error
}

type approveResultMsg struct {
	session string
	err     error
}

type pollTickMsg struct{}

// — list item ———————————————————————————————————————————————————————————————

type sessionItem struct {
	s api.Session
}

func (i sessionItem) Title() string {
	var indicator string
	switch i.s.RawState {
	case api.RawAwaitingPlanApproval:
		indicator = warnStyle.Render("⏳")
	case api.RawAwaitingUserFeedback:
		indicator = warnStyle.Render("💬")
	default:
		switch i.s.State {
		case api.StateCompleted:
			indicator = okStyle.Render("✓")
		case api.StateFailed:
			indicator = errStyle.Render("✗")
		case api.StateCancelled:
			indicator = dimStyle.Render("–")
		default:
			indicator = "·"
		}
	}
	return indicator + " " + i.s.Title
}

func (i sessionItem) Description() string {
	desc := i.s.RawState
	if pr := i.s.PRURL(); pr != "" {
		desc += "  " + pr
	}
	return desc
}

func (i sessionItem) FilterValue() string { return i.s.Title }

// — model ———————————————————————————————————————————————————————————————————

// Model is the bubbletea model for the session list.
type Model struct {
	ctx        context.Context
	client     *api.Client
	reconciler *watch.Reconciler
	store      *state.Store

	list       list.Model
	interval   time.Duration
	hideClosed bool
	loading    bool
	status     string
	err        error
}

// New assembles the TUI around an already-wired reconciliation engine.
func New(ctx context.Context, client *api.Client, reconciler *watch.Reconciler, store *state.Store, hideClosed bool, interval time.Duration) Model {
	if interval < watch.MinInterval {
		interval = watch.MinInterval
	}

	delegate := list.NewDefaultDelegate()
	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Jules sessions"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = titleStyle

	return Model{
		ctx:        ctx,
		client:     client,
		reconciler: reconciler,
		store:      store,
		list:       l,
		interval:   interval,
		hideClosed: hideClosed,
		loading:    true,
	}
}

// Init kicks off the first reconcile pass and the poll timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.reconcileCmd(), m.tickCmd())
}

// reconcileCmd runs one fetch-and-diff pass off the update loop.
// Single-flight is enforced in Update via the loading flag, so only one
// of these runs at a time.
func (m Model) reconcileCmd() tea.Cmd {
	return func() tea.Msg {
		err := m.reconciler.Run(m.ctx)
		return reconciledMsg{sessions: m.reconciler.Sessions(), err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(time.Time) tea.Msg {
		return pollTickMsg{}
	})
}

func (m Model) approveCmd(sessionName string) tea.Cmd {
	return func() tea.Msg {
		return approveResultMsg{session: sessionName, err: m.client.ApprovePlan(m.ctx, sessionName)}
	}
}

func openURLCmd(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd
		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			cmd = exec.Command("xdg-open", url)
		}
		_ = cmd.Start()
		return nil
	}
}

// rebuildItems refreshes the list contents from the reconciler's cache,
// applying the hide-closed filter.
func (m *Model) rebuildItems() {
	visible := view.Filter(m.reconciler.Sessions(), m.store, m.hideClosed)
	items := make([]list.Item, len(visible))
	for i, s := range visible {
		items[i] = sessionItem{s: s}
	}
	m.list.SetItems(items)
}

func (m *Model) selected() (api.Session, bool) {
	item, ok := m.list.SelectedItem().(sessionItem)
	if !ok {
		return api.Session{}, false
	}
	return item.s, true
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-3)
		return m, nil

	case pollTickMsg:
		// Skip the tick when a pass is still running; never queue.
		if m.loading {
			logging.Debug("poll skipped: previous pass still running")
			return m, m.tickCmd()
		}
		m.loading = true
		return m, tea.Batch(m.reconcileCmd(), m.tickCmd())

	case reconciledMsg:
		m.loading = false
		if msg.err != nil {
			// Keep the stale list; just surface the failure in the footer.
			m.err = msg.err
		} else {
			m.err = nil
			m.rebuildItems()
		}
		return m, nil

	case approveResultMsg:
		if msg.err != nil {
			m.status = errStyle.Render(fmt.Sprintf("approve failed: %v", msg.err))
		} else {
			m.status = okStyle.Render("plan approved: " + msg.session)
			m.loading = true
			return m, m.reconcileCmd()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if !m.loading {
				m.loading = true
				m.status = ""
				return m, m.reconcileCmd()
			}
		case "h":
			// The store and reconciler cache belong to the in-flight pass
			// while loading; reads must wait for reconciledMsg.
			if m.loading {
				return m, nil
			}
			m.hideClosed = !m.hideClosed
			m.rebuildItems()
		case "a":
			if m.loading {
				return m, nil
			}
			if s, ok := m.selected(); ok && s.RawState == api.RawAwaitingPlanApproval {
				m.status = dimStyle.Render("approving " + s.Name + "...")
				return m, m.approveCmd(s.Name)
			}
			m.status = warnStyle.Render("selected session has no plan awaiting approval")
		case "o", "enter":
			if m.loading {
				return m, nil
			}
			if s, ok := m.selected(); ok {
				if pr := s.PRURL(); pr != "" {
					return m, openURLCmd(pr)
				}
				if s.URL != "" {
					return m, openURLCmd(s.URL)
				}
				m.status = warnStyle.Render("nothing to open for this session")
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the list plus a one-line footer.
func (m Model) View() string {
	footer := helpStyle.Render("r refresh · h toggle closed · a approve · o open PR · q quit")
	switch {
	case m.err != nil:
		footer = errStyle.Render(fmt.Sprintf("  refresh failed (showing cached list): %v", m.err))
	case m.loading:
		footer = helpStyle.Render("refreshing...")
	case m.status != "":
		footer = "  " + m.status
	}
	return m.list.View() + "\n" + footer
}
