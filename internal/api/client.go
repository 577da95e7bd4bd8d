// Package api is a typed client for the Jules agent API.
//
// Read operations (sources, sessions, activities) are retried with bounded
// exponential backoff on transient failures. Mutating operations are
// single-shot; their failures surface directly to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RemoteError is returned when the API answers with a non-2xx status.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed: HTTP %d", e.Status)
	}
	return fmt.Sprintf("api request failed: HTTP %d: %s", e.Status, e.Message)
}

// Client performs authenticated requests against the Jules API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retryCfg   RetryConfig
}

// NewClient returns a Client for the given endpoint. The API key is sent
// on every request via the X-Goog-Api-Key header.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retryCfg:   DefaultRetryConfig,
	}
}

// do performs one HTTP call. body (if non-nil) is JSON-encoded; out (if
// non-nil) receives the decoded JSON response.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RemoteError{Status: resp.StatusCode, Message: string(bytes.TrimSpace(msg))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get performs a retried read-only GET.
func (c *Client) get(ctx context.Context, path string, out any) error {
	return retryWithBackoff(ctx, c.retryCfg, func() error {
		return c.do(ctx, http.MethodGet, path, nil, out)
	})
}

// ListSources returns every source registered with the agent.
func (c *Client) ListSources(ctx context.Context) ([]Source, error) {
	var resp sourcesResponse
	if err := c.get(ctx, "/sources", &resp); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

// GetSource fetches one source by resource name (e.g. "sources/github/acme/widget").
func (c *Client) GetSource(ctx context.Context, name string) (*Source, error) {
	var src Source
	if err := c.get(ctx, "/"+name, &src); err != nil {
		return nil, err
	}
	return &src, nil
}

// ListSessions returns every session, with the coarse State derived from
// the raw wire state.
func (c *Client) ListSessions(ctx context.Context) ([]Session, error) {
	var resp sessionsResponse
	if err := c.get(ctx, "/sessions", &resp); err != nil {
		return nil, err
	}
	for i := range resp.Sessions {
		resp.Sessions[i].State = Normalize(resp.Sessions[i].RawState)
	}
	return resp.Sessions, nil
}

// GetSession fetches one session by resource name (e.g. "sessions/123").
func (c *Client) GetSession(ctx context.Context, name string) (*Session, error) {
	var s Session
	if err := c.get(ctx, "/"+name, &s); err != nil {
		return nil, err
	}
	s.State = Normalize(s.RawState)
	return &s, nil
}

// ListActivities returns the timeline of the given session.
func (c *Client) ListActivities(ctx context.Context, sessionName string) ([]Activity, error) {
	var resp activitiesResponse
	if err := c.get(ctx, "/"+sessionName+"/activities", &resp); err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

// CreateSession starts a new session and returns its resource name.
// Single-shot: never retried.
func (c *Client) CreateSession(ctx context.Context, req *CreateSessionRequest) (string, error) {
	var resp CreateSessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &resp); err != nil {
		return "", err
	}
	if resp.Name == "" {
		return "", fmt.Errorf("create session: response missing session name")
	}
	return resp.Name, nil
}

// SendMessage sends a user prompt into a running session. Single-shot.
func (c *Client) SendMessage(ctx context.Context, sessionName, prompt string) error {
	body := map[string]string{"prompt": prompt}
	return c.do(ctx, http.MethodPost, "/"+sessionName+":sendMessage", body, nil)
}

// ApprovePlan approves the pending plan of a session. Single-shot.
func (c *Client) ApprovePlan(ctx context.Context, sessionName string) error {
	return c.do(ctx, http.MethodPost, "/"+sessionName+":approvePlan", struct{}{}, nil)
}

// VerifyKey reports whether the configured API key is accepted by the
// service, using the cheapest read endpoint.
func (c *Client) VerifyKey(ctx context.Context) bool {
	var resp sourcesResponse
	return c.get(ctx, "/sources", &resp) == nil
}
