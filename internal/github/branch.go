package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BranchCreator creates remote branches off a repository's default branch.
type BranchCreator struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewBranchCreator returns a creator authenticated with the given token.
// Branch creation always needs a credential; an empty token will fail at
// request time with a 401 from GitHub.
func NewBranchCreator(token string) *BranchCreator {
	return &BranchCreator{
		baseURL:    "https://api.github.com",
		httpClient: &http.Client{Timeout: 15 * time.Second},
		token:      token,
	}
}

// CreateBranch creates refs/heads/<branch> pointing at the current head
// of the repository's default branch.
func (b *BranchCreator) CreateBranch(ctx context.Context, owner, repo, branch string) error {
	// Resolve the default branch name.
	var repoInfo struct {
		DefaultBranch string `json:"default_branch"`
	}
	path := fmt.Sprintf("/repos/%s/%s", owner, repo)
	if err := b.getJSON(ctx, path, &repoInfo); err != nil {
		return fmt.Errorf("resolve default branch: %w", err)
	}

	// Resolve its head SHA.
	var ref struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	path = fmt.Sprintf("/repos/%s/%s/git/ref/heads/%s", owner, repo, repoInfo.DefaultBranch)
	if err := b.getJSON(ctx, path, &ref); err != nil {
		return fmt.Errorf("resolve head of %s: %w", repoInfo.DefaultBranch, err)
	}

	// Create the new ref.
	body, err := json.Marshal(map[string]string{
		"ref": "refs/heads/" + branch,
		"sha": ref.Object.SHA,
	})
	if err != nil {
		return fmt.Errorf("encode ref request: %w", err)
	}
	url := fmt.Sprintf("%s/repos/%s/%s/git/refs", b.baseURL, owner, repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	b.setHeaders(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("create branch %s: %w", branch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("create branch %s: HTTP %d: %s", branch, resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

func (b *BranchCreator) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+path, nil)
	if err != nil {
		return err
	}
	b.setHeaders(req)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: HTTP %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (b *BranchCreator) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
}
