package api

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

// newTestClient returns a client pointed at srv with a fast retry policy.
func newTestClient(srv *httptest.Server) *Client {
	c := NewClient("test-key", srv.URL)
	c.retryCfg = RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}
	return c
}

func TestClientSendsAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-Goog-Api-Key")
		json.NewEncoder(w).Encode(map[string]any{"sources": []any{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListSources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "test-key", gotKey)
}

func TestListSessionsDerivesCoarseState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sessions", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"sessions": []map[string]any{
				{"name": "sessions/1", "title": "a", "state": "COMPLETED"},
				{"name": "sessions/2", "title": "b", "state": "PAUSED"},
				{"name": "sessions/3", "title": "c", "state": "SOMETHING_NEW"},
			},
		})
	}))
	defer srv.Close()

	sessions, err := newTestClient(srv).ListSessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 3)

	assert.Equal(t, StateCompleted, sessions[0].State)
	assert.Equal(t, StateCancelled, sessions[1].State)
	assert.Equal(t, StateRunning, sessions[2].State)

	// The raw wire value is preserved alongside the derived one.
	assert.Equal(t, "SOMETHING_NEW", sessions[2].RawState)
}

func TestReadCallRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"sessions": []any{}})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestReadCallDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad key", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).ListSources(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, http.StatusForbidden, remote.Status)
	assert.Contains(t, remote.Message, "bad key")
}

func TestCreateSessionIsSingleShot(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateSession(context.Background(), &CreateSessionRequest{
		Prompt:         "do the thing",
		AutomationMode: AutomationAutoCreatePR,
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "mutating calls must never retry")
}

func TestCreateSessionRejectsEmptyName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}))
	defer srv.Close()

	_, err := newTestClient(srv).CreateSession(context.Background(), &CreateSessionRequest{Prompt: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing session name")
}

func TestCreateSessionPostsExpectedBody(t *testing.T) {
	var got CreateSessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sessions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(map[string]string{"name": "sessions/42"})
	}))
	defer srv.Close()

	req := &CreateSessionRequest{
		Prompt: "fix the flaky test",
		SourceContext: SourceContext{
			Source:            "sources/github/acme/widget",
			GitHubRepoContext: &GitHubRepoContext{StartingBranch: "main"},
		},
		AutomationMode:      AutomationManual,
		Title:               "fix flaky test",
		RequirePlanApproval: true,
	}
	name, err := newTestClient(srv).CreateSession(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "sessions/42", name)
	assert.Equal(t, "fix the flaky test", got.Prompt)
	assert.Equal(t, "sources/github/acme/widget", got.SourceContext.Source)
	require.NotNil(t, got.SourceContext.GitHubRepoContext)
	assert.Equal(t, "main", got.SourceContext.GitHubRepoContext.StartingBranch)
	assert.True(t, got.RequirePlanApproval)
}

func TestSendMessageAndApprovePlanPaths(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv)
	require.NoError(t, c.SendMessage(context.Background(), "sessions/7", "looks good"))
	require.NoError(t, c.ApprovePlan(context.Background(), "sessions/7"))

	assert.Equal(t, []string{"/sessions/7:sendMessage", "/sessions/7:approvePlan"}, paths)
}

func TestVerifyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Goog-Api-Key") == "good" {
			json.NewEncoder(w).Encode(map[string]any{"sources": []any{}})
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	good := NewClient("good", srv.URL)
	good.retryCfg = RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond}
	bad := NewClient("bad", srv.URL)
	bad.retryCfg = RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond}

	assert.True(t, good.VerifyKey(context.Background()))
	assert.False(t, bad.VerifyKey(context.Background()))
}
