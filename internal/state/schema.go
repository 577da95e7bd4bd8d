// Package state persists what jules has observed about sessions between
// runs: per-session snapshots with the terminated flag, the set of already
// fired notifications, the PR status cache, and the user's source/session
// selection. Written to <state dir>/state.json.
package state

import (
	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/github"
)

// SchemaVersion is bumped when the on-disk layout changes incompatibly.
const SchemaVersion = 1

// SessionSnapshot is the last-observed state of one session.
//
// Terminated is absorbing: once set it is never cleared by reconciliation.
// Later updates may refresh the display fields but must not re-trigger
// notifications.
type SessionSnapshot struct {
	Name       string          `json:"name"`
	Title      string          `json:"title,omitempty"`
	State      api.CoarseState `json:"state"`
	RawState   string          `json:"raw_state"`
	Outputs    []api.Output    `json:"outputs,omitempty"`
	Terminated bool            `json:"terminated"`
}

// WatchState is the full persisted document.
type WatchState struct {
	SchemaVersion  int                          `json:"schema_version"`
	SelectedSource *api.Source                  `json:"selected_source,omitempty"`
	ActiveSession  string                       `json:"active_session,omitempty"`
	Snapshots      map[string]SessionSnapshot   `json:"snapshots"`
	Notified       map[string]bool              `json:"notified"`
	PRStatusCache  map[string]github.CacheEntry `json:"pr_status_cache"`
}

// newWatchState returns an empty document with all maps allocated.
func newWatchState() *WatchState {
	return &WatchState{
		SchemaVersion: SchemaVersion,
		Snapshots:     make(map[string]SessionSnapshot),
		Notified:      make(map[string]bool),
		PRStatusCache: make(map[string]github.CacheEntry),
	}
}

// outputsEqual compares output lists by content (PR URL, title,
// description), not by reference, so re-fetched-but-identical data does
// not count as a change.
func outputsEqual(a, b []api.Output) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		pa, pb := a[i].PullRequest, b[i].PullRequest
		if (pa == nil) != (pb == nil) {
			return false
		}
		if pa == nil {
			continue
		}
		if pa.URL != pb.URL || pa.Title != pb.Title || pa.Description != pb.Description {
			return false
		}
	}
	return true
}

// Equal reports whether two snapshots carry the same content.
func (s SessionSnapshot) Equal(other SessionSnapshot) bool {
	return s.Name == other.Name &&
		s.Title == other.Title &&
		s.State == other.State &&
		s.RawState == other.RawState &&
		s.Terminated == other.Terminated &&
		outputsEqual(s.Outputs, other.Outputs)
}
