package state_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/github"
	"github.com/WhiteDevil-93/jules/internal/state"
)

func snap(name string, coarse api.CoarseState, raw string) state.SessionSnapshot {
	return state.SessionSnapshot{Name: name, Title: "t", State: coarse, RawState: raw}
}

// ---------------------------------------------------------------------------
// Open / Save
// ---------------------------------------------------------------------------

func TestOpenMissingFileStartsFresh(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	assert.Empty(t, st.Snapshots())
	assert.False(t, st.Dirty())
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	st, err := state.Open(dir)
	require.NoError(t, err)

	st.PutSnapshot(state.SessionSnapshot{
		Name:     "sessions/1",
		Title:    "fix bug",
		State:    api.StateCompleted,
		RawState: "COMPLETED",
		Outputs: []api.Output{
			{PullRequest: &api.PullRequest{URL: "https://github.com/a/b/pull/1", Title: "fix"}},
		},
		Terminated: true,
	})
	st.MarkNotified("sessions/1", "AWAITING_PLAN_APPROVAL")
	st.SetActiveSession("sessions/1")
	st.SetPRStatusCache(map[string]github.CacheEntry{
		"https://github.com/a/b/pull/1": {IsClosed: true, LastChecked: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.NoError(t, st.Save())

	reloaded, err := state.Open(dir)
	require.NoError(t, err)

	got, ok := reloaded.Snapshot("sessions/1")
	require.True(t, ok)
	assert.Equal(t, "fix bug", got.Title)
	assert.True(t, got.Terminated)
	require.Len(t, got.Outputs, 1)
	assert.Equal(t, "https://github.com/a/b/pull/1", got.Outputs[0].PullRequest.URL)

	assert.True(t, reloaded.WasNotified("sessions/1", "AWAITING_PLAN_APPROVAL"))
	assert.False(t, reloaded.WasNotified("sessions/1", "AWAITING_USER_FEEDBACK"))
	assert.Equal(t, "sessions/1", reloaded.ActiveSession())
	assert.Len(t, reloaded.PRStatusCache(), 1)
}

func TestSaveSkippedWhenClean(t *testing.T) {
	dir := t.TempDir()
	st, err := state.Open(dir)
	require.NoError(t, err)

	require.NoError(t, st.Save())
	_, statErr := os.Stat(filepath.Join(dir, "state.json"))
	assert.True(t, os.IsNotExist(statErr), "clean store must not create a file")
}

func TestOpenCorruptFileStartsFresh(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "state.json"), []byte("{not json"), 0644))

	st, err := state.Open(dir)
	require.NoError(t, err)
	assert.Empty(t, st.Snapshots())
}

// ---------------------------------------------------------------------------
// Snapshots and content gating
// ---------------------------------------------------------------------------

func TestPutSnapshotIdenticalContentStaysClean(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	s := snap("sessions/1", api.StateRunning, "IN_PROGRESS")
	st.PutSnapshot(s)
	require.NoError(t, st.Save())
	assert.False(t, st.Dirty())

	// Re-storing byte-for-byte identical content is not a change.
	st.PutSnapshot(snap("sessions/1", api.StateRunning, "IN_PROGRESS"))
	assert.False(t, st.Dirty())

	// A real change dirties the store again.
	st.PutSnapshot(snap("sessions/1", api.StateCompleted, "COMPLETED"))
	assert.True(t, st.Dirty())
}

func TestSnapshotEqualComparesOutputsByContent(t *testing.T) {
	a := state.SessionSnapshot{
		Name:    "sessions/1",
		Outputs: []api.Output{{PullRequest: &api.PullRequest{URL: "u", Title: "t"}}},
	}
	b := state.SessionSnapshot{
		Name:    "sessions/1",
		Outputs: []api.Output{{PullRequest: &api.PullRequest{URL: "u", Title: "t"}}},
	}
	assert.True(t, a.Equal(b))

	b.Outputs[0].PullRequest.Title = "different"
	assert.False(t, a.Equal(b))

	b.Outputs = nil
	assert.False(t, a.Equal(b))
}

func TestDeleteSnapshot(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	st.PutSnapshot(snap("sessions/1", api.StateRunning, "IN_PROGRESS"))
	require.NoError(t, st.Save())

	assert.True(t, st.DeleteSnapshot("sessions/1"))
	assert.True(t, st.Dirty())
	_, ok := st.Snapshot("sessions/1")
	assert.False(t, ok)

	assert.False(t, st.DeleteSnapshot("sessions/1"))
}

func TestSnapshotsSortedByName(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	st.PutSnapshot(snap("sessions/b", api.StateRunning, "X"))
	st.PutSnapshot(snap("sessions/a", api.StateRunning, "X"))
	st.PutSnapshot(snap("sessions/c", api.StateRunning, "X"))

	all := st.Snapshots()
	require.Len(t, all, 3)
	assert.Equal(t, "sessions/a", all[0].Name)
	assert.Equal(t, "sessions/b", all[1].Name)
	assert.Equal(t, "sessions/c", all[2].Name)
}

// ---------------------------------------------------------------------------
// Notified set
// ---------------------------------------------------------------------------

func TestNotifiedSetKeyedByNameAndRawState(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	st.MarkNotified("sessions/1", "AWAITING_PLAN_APPROVAL")

	assert.True(t, st.WasNotified("sessions/1", "AWAITING_PLAN_APPROVAL"))
	assert.False(t, st.WasNotified("sessions/1", "AWAITING_USER_FEEDBACK"))
	assert.False(t, st.WasNotified("sessions/2", "AWAITING_PLAN_APPROVAL"))
}

func TestClearNotifiedEndsEpoch(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	st.MarkNotified("sessions/1", "AWAITING_PLAN_APPROVAL")
	require.NoError(t, st.Save())

	st.ClearNotified("sessions/1", "AWAITING_PLAN_APPROVAL")
	assert.False(t, st.WasNotified("sessions/1", "AWAITING_PLAN_APPROVAL"))
	assert.True(t, st.Dirty())

	// Clearing an absent key is not a change.
	require.NoError(t, st.Save())
	st.ClearNotified("sessions/1", "AWAITING_PLAN_APPROVAL")
	assert.False(t, st.Dirty())
}

func TestMarkNotifiedIdempotent(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	st.MarkNotified("sessions/1", "AWAITING_USER_FEEDBACK")
	require.NoError(t, st.Save())

	st.MarkNotified("sessions/1", "AWAITING_USER_FEEDBACK")
	assert.False(t, st.Dirty())
}

// ---------------------------------------------------------------------------
// PR status cache
// ---------------------------------------------------------------------------

func TestSetPRStatusCacheContentGated(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	when := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	entries := map[string]github.CacheEntry{
		"https://github.com/a/b/pull/1": {IsClosed: false, LastChecked: when},
	}
	st.SetPRStatusCache(entries)
	require.NoError(t, st.Save())

	// Same content, different map instance: no change.
	st.SetPRStatusCache(map[string]github.CacheEntry{
		"https://github.com/a/b/pull/1": {IsClosed: false, LastChecked: when},
	})
	assert.False(t, st.Dirty())

	st.SetPRStatusCache(map[string]github.CacheEntry{
		"https://github.com/a/b/pull/1": {IsClosed: true, LastChecked: when},
	})
	assert.True(t, st.Dirty())
}

func TestClearPRStatusCache(t *testing.T) {
	st, err := state.Open(t.TempDir())
	require.NoError(t, err)

	// Clearing an empty cache is not a change.
	st.ClearPRStatusCache()
	assert.False(t, st.Dirty())

	st.SetPRStatusCache(map[string]github.CacheEntry{
		"u": {IsClosed: true, LastChecked: time.Now()},
	})
	require.NoError(t, st.Save())

	st.ClearPRStatusCache()
	assert.Empty(t, st.PRStatusCache())
	assert.True(t, st.Dirty())
}

// ---------------------------------------------------------------------------
// Selection
// ---------------------------------------------------------------------------

func TestSelectedSourceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	st, err := state.Open(dir)
	require.NoError(t, err)

	st.SetSelectedSource(&api.Source{
		Name:       "sources/github/acme/widget",
		GitHubRepo: &api.GitHubRepo{Owner: "acme", Repo: "widget"},
	})
	require.NoError(t, st.Save())

	reloaded, err := state.Open(dir)
	require.NoError(t, err)

	src := reloaded.SelectedSource()
	require.NotNil(t, src)
	assert.Equal(t, "sources/github/acme/widget", src.Name)
	require.NotNil(t, src.GitHubRepo)
	assert.Equal(t, "acme", src.GitHubRepo.Owner)
}
