// Package watch implements the session reconciliation engine: it diffs
// freshly fetched sessions against persisted snapshots, fires at-most-once
// notifications for meaningful transitions, classifies sessions as
// terminated, and drives the whole thing from a reentrancy-guarded poller.
package watch

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/github"
	"github.com/WhiteDevil-93/jules/internal/logging"
	"github.com/WhiteDevil-93/jules/internal/notify"
	"github.com/WhiteDevil-93/jules/internal/state"
)

// maxConcurrentPRChecks bounds the PR status calls issued within one pass.
const maxConcurrentPRChecks = 8

// SessionClient is the slice of the API client the reconciler needs.
type SessionClient interface {
	ListSessions(ctx context.Context) ([]api.Session, error)
	ListActivities(ctx context.Context, sessionName string) ([]api.Activity, error)
}

// PRChecker answers closed-status questions about pull requests.
type PRChecker interface {
	IsClosed(ctx context.Context, prURL string) bool
	Entries() map[string]github.CacheEntry
}

// Reconciler performs fetch-and-diff passes over the session list.
//
// All mutation happens on the goroutine calling Run; the cached session
// list is only read between passes.
type Reconciler struct {
	client   SessionClient
	store    *state.Store
	checker  PRChecker
	notifier notify.Notifier

	// Last successfully fetched session list, kept across failed passes
	// so views render stale-but-available data instead of nothing.
	cache []api.Session
}

// NewReconciler wires the engine to its collaborators.
func NewReconciler(client SessionClient, store *state.Store, checker PRChecker, notifier notify.Notifier) *Reconciler {
	return &Reconciler{
		client:   client,
		store:    store,
		checker:  checker,
		notifier: notifier,
	}
}

// Sessions returns the session list from the last successful pass.
func (r *Reconciler) Sessions() []api.Session {
	return r.cache
}

// Run executes one full pass: fetch, reconcile, persist. A fetch failure
// aborts the pass and preserves the previous cache.
func (r *Reconciler) Run(ctx context.Context) error {
	sessions, err := r.client.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("fetch sessions: %w", err)
	}
	r.Reconcile(ctx, sessions)
	return nil
}

// pendingUpdate carries one session through the phases of a pass.
type pendingUpdate struct {
	snap         state.SessionSnapshot
	needsPRCheck bool
	prURL        string
}

// Reconcile diffs the fetched sessions against stored snapshots, firing
// notifications and updating the store. Within the pass, transition
// detection for a session always runs before its terminal classification,
// so a session is never marked terminated and also skipped for a
// transition it just entered.
func (r *Reconciler) Reconcile(ctx context.Context, sessions []api.Session) {
	pending := make([]pendingUpdate, 0, len(sessions))

	for i := range sessions {
		if upd, ok := r.observe(ctx, &sessions[i]); ok {
			pending = append(pending, upd)
		}
	}

	r.classifyTerminal(ctx, pending)

	for _, upd := range pending {
		r.store.PutSnapshot(upd.snap)
	}

	r.cache = sessions
	r.store.SetPRStatusCache(r.checker.Entries())
	if err := r.store.Save(); err != nil {
		logging.Warnf("persist watch state: %v", err)
	}
}

// observe runs transition detection for one session and returns the
// snapshot update still awaiting terminal classification. ok is false
// when the snapshot was already written (terminated skip path).
func (r *Reconciler) observe(ctx context.Context, s *api.Session) (pendingUpdate, bool) {
	prev, seen := r.store.Snapshot(s.Name)

	// Skip rule: terminated snapshots only get their display fields
	// refreshed; no transition detection, no notifications. PutSnapshot
	// is content-gated, so identical re-fetches cost no write.
	if seen && prev.Terminated {
		r.store.PutSnapshot(state.SessionSnapshot{
			Name:       s.Name,
			Title:      s.Title,
			State:      s.State,
			RawState:   s.RawState,
			Outputs:    s.Outputs,
			Terminated: true,
		})
		return pendingUpdate{}, false
	}

	// Leaving a waiting state ends its notification epoch; a later
	// re-entry may notify again.
	if seen && prev.RawState != s.RawState {
		switch prev.RawState {
		case api.RawAwaitingPlanApproval, api.RawAwaitingUserFeedback:
			r.store.ClearNotified(s.Name, prev.RawState)
		}
	}

	switch s.RawState {
	case api.RawAwaitingPlanApproval:
		if (!seen || prev.RawState != api.RawAwaitingPlanApproval) && !r.store.WasNotified(s.Name, s.RawState) {
			r.notifier.Notify(notify.Event{
				Kind:         notify.EventPlanAwaitingApproval,
				SessionName:  s.Name,
				SessionTitle: s.Title,
				PlanText:     r.latestPlanText(ctx, s.Name),
			})
			r.store.MarkNotified(s.Name, s.RawState)
		}
	case api.RawAwaitingUserFeedback:
		if (!seen || prev.RawState != api.RawAwaitingUserFeedback) && !r.store.WasNotified(s.Name, s.RawState) {
			r.notifier.Notify(notify.Event{
				Kind:         notify.EventUserFeedbackRequired,
				SessionName:  s.Name,
				SessionTitle: s.Title,
			})
			r.store.MarkNotified(s.Name, s.RawState)
		}
	}

	prURL := s.PRURL()

	// Completion is only notification-worthy with a PR to point at.
	if s.State == api.StateCompleted && (!seen || prev.State != api.StateCompleted) && prURL != "" {
		r.notifier.Notify(notify.Event{
			Kind:         notify.EventCompletedWithPR,
			SessionName:  s.Name,
			SessionTitle: s.Title,
			PRURL:        prURL,
		})
	}

	upd := pendingUpdate{
		snap: state.SessionSnapshot{
			Name:     s.Name,
			Title:    s.Title,
			State:    s.State,
			RawState: s.RawState,
			Outputs:  s.Outputs,
		},
	}

	switch s.State {
	case api.StateFailed, api.StateCancelled:
		upd.snap.Terminated = true
	case api.StateCompleted:
		if prURL != "" {
			upd.needsPRCheck = true
			upd.prURL = prURL
		}
	}
	return upd, true
}

// classifyTerminal resolves the terminated flag for completed-with-PR
// sessions. The PR checks run concurrently so many completions between
// polls do not serialize into an O(n) round-trip chain.
func (r *Reconciler) classifyTerminal(ctx context.Context, pending []pendingUpdate) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentPRChecks)

	for i := range pending {
		if !pending[i].needsPRCheck {
			continue
		}
		upd := &pending[i]
		g.Go(func() error {
			upd.snap.Terminated = r.checker.IsClosed(gctx, upd.prURL)
			return nil
		})
	}
	// Workers never return errors; IsClosed fails closed on its own.
	_ = g.Wait()
}

// latestPlanText fetches the most recent generated plan from the session's
// activity log. Best-effort: any failure degrades the notification to a
// generic message.
func (r *Reconciler) latestPlanText(ctx context.Context, sessionName string) string {
	activities, err := r.client.ListActivities(ctx, sessionName)
	if err != nil {
		logging.Debugf("plan enrichment failed for %s: %v", sessionName, err)
		return ""
	}

	for i := len(activities) - 1; i >= 0; i-- {
		a := &activities[i]
		if a.Kind() != api.KindPlanGenerated {
			continue
		}
		steps := make([]string, 0, len(a.PlanGenerated.Plan.Steps))
		for _, step := range a.PlanGenerated.Plan.Steps {
			steps = append(steps, step.Description)
		}
		return notify.FormatPlan(a.PlanGenerated.Plan.Title, steps)
	}
	return ""
}
