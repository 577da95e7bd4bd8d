package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/github"
	"github.com/WhiteDevil-93/jules/internal/logging"
)

const stateFileName = "state.json"

// Store owns the persisted watch state. It tracks whether anything
// actually changed since the last save, so Save is a no-op when every
// mutation turned out to be identical content.
//
// A Store is not safe for concurrent mutation; all writes happen on the
// single reconciliation goroutine.
type Store struct {
	dir   string
	state *WatchState
	dirty bool
}

// Open loads the store from dir, starting fresh when no state file exists.
// A corrupt state file is logged and replaced rather than aborting: the
// store is a local cache of remote truth, so losing it only costs
// re-notification suppression.
func Open(dir string) (*Store, error) {
	s := &Store{dir: dir, state: newWatchState()}

	data, err := os.ReadFile(filepath.Join(dir, stateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}

	var ws WatchState
	if err := json.Unmarshal(data, &ws); err != nil {
		logging.Warnf("state file corrupt, starting fresh: %v", err)
		return s, nil
	}
	if ws.Snapshots == nil {
		ws.Snapshots = make(map[string]SessionSnapshot)
	}
	if ws.Notified == nil {
		ws.Notified = make(map[string]bool)
	}
	if ws.PRStatusCache == nil {
		ws.PRStatusCache = make(map[string]github.CacheEntry)
	}
	s.state = &ws
	logging.Debugf("loaded %d session snapshots from %s", len(ws.Snapshots), dir)
	return s, nil
}

// Save persists the state as indented JSON, but only when something
// changed since the last save.
func (s *Store) Save() error {
	if !s.dirty {
		return nil
	}

	data, err := json.MarshalIndent(s.state, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, stateFileName), data, 0644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	s.dirty = false
	return nil
}

// Dirty reports whether unsaved changes exist.
func (s *Store) Dirty() bool {
	return s.dirty
}

// Snapshot returns the stored snapshot for a session name.
func (s *Store) Snapshot(name string) (SessionSnapshot, bool) {
	snap, ok := s.state.Snapshots[name]
	return snap, ok
}

// PutSnapshot stores snap, marking the store dirty only when the content
// actually differs from what is already stored.
func (s *Store) PutSnapshot(snap SessionSnapshot) {
	if existing, ok := s.state.Snapshots[snap.Name]; ok && existing.Equal(snap) {
		return
	}
	s.state.Snapshots[snap.Name] = snap
	s.dirty = true
}

// DeleteSnapshot removes a session from the local cache. Purely a local
// visibility action; the remote session is untouched.
func (s *Store) DeleteSnapshot(name string) bool {
	if _, ok := s.state.Snapshots[name]; !ok {
		return false
	}
	delete(s.state.Snapshots, name)
	s.dirty = true
	return true
}

// Snapshots returns all stored snapshots sorted by name.
func (s *Store) Snapshots() []SessionSnapshot {
	out := make([]SessionSnapshot, 0, len(s.state.Snapshots))
	for _, snap := range s.state.Snapshots {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// notifiedKey builds the NotifiedSet key. Keyed by session name plus raw
// state so a restart does not re-fire a notification the user already saw,
// while a later re-entry into the same state (after leaving it) can fire
// again once the key is cleared.
func notifiedKey(name, rawState string) string {
	return name + "\x00" + rawState
}

// WasNotified reports whether a notification for (name, rawState) already fired.
func (s *Store) WasNotified(name, rawState string) bool {
	return s.state.Notified[notifiedKey(name, rawState)]
}

// MarkNotified records that a notification for (name, rawState) fired.
func (s *Store) MarkNotified(name, rawState string) {
	key := notifiedKey(name, rawState)
	if s.state.Notified[key] {
		return
	}
	s.state.Notified[key] = true
	s.dirty = true
}

// ClearNotified forgets the (name, rawState) notification marker, ending
// its notification epoch.
func (s *Store) ClearNotified(name, rawState string) {
	key := notifiedKey(name, rawState)
	if _, ok := s.state.Notified[key]; !ok {
		return
	}
	delete(s.state.Notified, key)
	s.dirty = true
}

// PRStatusCache returns the persisted PR status cache.
func (s *Store) PRStatusCache() map[string]github.CacheEntry {
	return s.state.PRStatusCache
}

// SetPRStatusCache replaces the persisted PR status cache when its
// content changed.
func (s *Store) SetPRStatusCache(entries map[string]github.CacheEntry) {
	if prCacheEqual(s.state.PRStatusCache, entries) {
		return
	}
	s.state.PRStatusCache = entries
	s.dirty = true
}

// ClearPRStatusCache drops every cached PR status entry.
func (s *Store) ClearPRStatusCache() {
	if len(s.state.PRStatusCache) == 0 {
		return
	}
	s.state.PRStatusCache = make(map[string]github.CacheEntry)
	s.dirty = true
}

// SelectedSource returns the persisted source selection, or nil.
func (s *Store) SelectedSource() *api.Source {
	return s.state.SelectedSource
}

// SetSelectedSource records the source the user last picked.
func (s *Store) SetSelectedSource(src *api.Source) {
	s.state.SelectedSource = src
	s.dirty = true
}

// ActiveSession returns the persisted active session name, or "".
func (s *Store) ActiveSession() string {
	return s.state.ActiveSession
}

// SetActiveSession records the session subsequent commands default to.
func (s *Store) SetActiveSession(name string) {
	if s.state.ActiveSession == name {
		return
	}
	s.state.ActiveSession = name
	s.dirty = true
}

func prCacheEqual(a, b map[string]github.CacheEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || va != vb {
			return false
		}
	}
	return true
}
