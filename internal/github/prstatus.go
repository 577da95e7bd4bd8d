package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/WhiteDevil-93/jules/internal/logging"
)

// CacheTTL is how long a PR status answer is reused before a fresh
// remote check is made.
const CacheTTL = 5 * time.Minute

// CacheEntry records one PR status observation. IsClosed and LastChecked
// are always written together; an entry older than CacheTTL is treated
// as absent.
type CacheEntry struct {
	IsClosed    bool      `json:"isClosed"`
	LastChecked time.Time `json:"lastChecked"`
}

// TokenProvider supplies an optional bearer credential at call time.
// Returning "" sends the request unauthenticated.
type TokenProvider func() string

// StatusChecker answers "is this pull request closed?" with a TTL cache
// in front of the GitHub API. Failures of any kind answer false (treat
// the PR as still open) and are logged, never surfaced.
//
// Safe for concurrent use; the reconciler issues several checks at once.
type StatusChecker struct {
	baseURL    string
	httpClient *http.Client
	token      TokenProvider
	now        func() time.Time

	mu    sync.Mutex
	cache map[string]CacheEntry
}

// NewStatusChecker builds a checker seeded with a previously persisted
// cache (may be nil). token may be nil.
func NewStatusChecker(seed map[string]CacheEntry, token TokenProvider) *StatusChecker {
	c := &StatusChecker{
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		token:      token,
		now:        time.Now,
		cache:      make(map[string]CacheEntry, len(seed)),
	}
	for k, v := range seed {
		c.cache[k] = v
	}
	return c
}

// IsClosed reports whether the PR behind prURL is closed.
//
// Cache-first: a fresh entry answers without a network call. An
// unparseable URL, a failed request, or a non-2xx response all answer
// false so the session stays visible instead of silently disappearing.
func (c *StatusChecker) IsClosed(ctx context.Context, prURL string) bool {
	now := c.now()

	c.mu.Lock()
	if entry, ok := c.cache[prURL]; ok && now.Sub(entry.LastChecked) < CacheTTL {
		c.mu.Unlock()
		return entry.IsClosed
	}
	c.mu.Unlock()

	owner, repo, number, ok := ParsePRURL(prURL)
	if !ok {
		logging.Debugf("not a GitHub PR URL, assuming open: %s", prURL)
		return false
	}

	closed, err := c.fetch(ctx, owner, repo, number)
	if err != nil {
		logging.Debugf("PR status check failed for %s: %v", prURL, err)
		return false
	}

	c.mu.Lock()
	c.cache[prURL] = CacheEntry{IsClosed: closed, LastChecked: now}
	c.mu.Unlock()
	return closed
}

// fetch performs the actual GET against the pulls endpoint.
func (c *StatusChecker) fetch(ctx context.Context, owner, repo string, number int) (bool, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/pulls/%d", c.baseURL, owner, repo, number)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != nil {
		if tok := c.token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var pr struct {
		State string `json:"state"` // "open" | "closed"
	}
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return false, err
	}
	return pr.State == "closed", nil
}

// Entries returns a copy of the cache for persistence.
func (c *StatusChecker) Entries() map[string]CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]CacheEntry, len(c.cache))
	for k, v := range c.cache {
		out[k] = v
	}
	return out
}

// Clear drops every cached entry.
func (c *StatusChecker) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]CacheEntry)
}
