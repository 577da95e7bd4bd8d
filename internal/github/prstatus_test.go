package github

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// prServer serves a fixed open/closed answer and counts requests.
func prServer(t *testing.T, state string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(map[string]string{"state": state})
	}))
}

// testChecker points a StatusChecker at srv with a controllable clock.
func testChecker(srv *httptest.Server, seed map[string]CacheEntry, clock *time.Time) *StatusChecker {
	c := NewStatusChecker(seed, nil)
	c.baseURL = srv.URL
	c.now = func() time.Time { return *clock }
	return c
}

const testPR = "https://github.com/acme/widget/pull/12"

func TestIsClosedFetchesAndCaches(t *testing.T) {
	var calls atomic.Int32
	srv := prServer(t, "closed", &calls)
	defer srv.Close()

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := testChecker(srv, nil, &clock)

	assert.True(t, c.IsClosed(context.Background(), testPR))
	assert.Equal(t, int32(1), calls.Load())

	// Within the TTL the cached answer is reused.
	clock = clock.Add(CacheTTL - time.Second)
	assert.True(t, c.IsClosed(context.Background(), testPR))
	assert.Equal(t, int32(1), calls.Load())
}

func TestIsClosedRefetchesAfterTTL(t *testing.T) {
	var calls atomic.Int32
	srv := prServer(t, "open", &calls)
	defer srv.Close()

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := testChecker(srv, nil, &clock)

	assert.False(t, c.IsClosed(context.Background(), testPR))
	assert.Equal(t, int32(1), calls.Load())

	clock = clock.Add(CacheTTL + time.Second)
	assert.False(t, c.IsClosed(context.Background(), testPR))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIsClosedUsesSeededCache(t *testing.T) {
	var calls atomic.Int32
	srv := prServer(t, "open", &calls)
	defer srv.Close()

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	seed := map[string]CacheEntry{
		testPR: {IsClosed: true, LastChecked: clock.Add(-time.Minute)},
	}
	c := testChecker(srv, seed, &clock)

	assert.True(t, c.IsClosed(context.Background(), testPR))
	assert.Equal(t, int32(0), calls.Load(), "fresh seeded entry must answer without a request")
}

func TestIsClosedFailsOpenOnBadURL(t *testing.T) {
	var calls atomic.Int32
	srv := prServer(t, "closed", &calls)
	defer srv.Close()

	clock := time.Now()
	c := testChecker(srv, nil, &clock)

	assert.False(t, c.IsClosed(context.Background(), "https://example.com/not-a-pr"))
	assert.Equal(t, int32(0), calls.Load())
}

func TestIsClosedFailsOpenOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	clock := time.Now()
	c := testChecker(srv, nil, &clock)

	assert.False(t, c.IsClosed(context.Background(), testPR))
	// Failures are not cached; nothing to persist.
	assert.Empty(t, c.Entries())
}

func TestIsClosedFailsOpenOnNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	clock := time.Now()
	c := testChecker(srv, nil, &clock)

	assert.False(t, c.IsClosed(context.Background(), testPR))
}

func TestEntriesReturnsCopy(t *testing.T) {
	var calls atomic.Int32
	srv := prServer(t, "closed", &calls)
	defer srv.Close()

	clock := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c := testChecker(srv, nil, &clock)
	require.True(t, c.IsClosed(context.Background(), testPR))

	entries := c.Entries()
	require.Len(t, entries, 1)
	assert.True(t, entries[testPR].IsClosed)

	// Mutating the copy must not affect the checker.
	delete(entries, testPR)
	assert.Len(t, c.Entries(), 1)
}

func TestClearDropsCache(t *testing.T) {
	var calls atomic.Int32
	srv := prServer(t, "closed", &calls)
	defer srv.Close()

	clock := time.Now()
	c := testChecker(srv, nil, &clock)
	require.True(t, c.IsClosed(context.Background(), testPR))

	c.Clear()
	assert.Empty(t, c.Entries())

	// Next check goes back to the network.
	assert.True(t, c.IsClosed(context.Background(), testPR))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchSendsTokenWhenProvided(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]string{"state": "open"})
	}))
	defer srv.Close()

	clock := time.Now()
	c := NewStatusChecker(nil, func() string { return "tok123" })
	c.baseURL = srv.URL
	c.now = func() time.Time { return clock }

	c.IsClosed(context.Background(), testPR)
	assert.Equal(t, "Bearer tok123", gotAuth)
}
