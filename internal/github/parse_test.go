package github_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WhiteDevil-93/jules/internal/github"
)

func TestParsePRURL(t *testing.T) {
	owner, repo, number, ok := github.ParsePRURL("https://github.com/acme/widget/pull/123")
	require.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widget", repo)
	assert.Equal(t, 123, number)
}

func TestParsePRURLWithTrailingPath(t *testing.T) {
	_, _, number, ok := github.ParsePRURL("https://github.com/acme/widget/pull/7/files")
	require.True(t, ok)
	assert.Equal(t, 7, number)
}

func TestParsePRURLRejectsNonPRURLs(t *testing.T) {
	for _, url := range []string{
		"",
		"https://github.com/acme/widget",
		"https://github.com/acme/widget/issues/5",
		"https://gitlab.com/acme/widget/pull/5",
		"not a url at all",
	} {
		_, _, _, ok := github.ParsePRURL(url)
		assert.False(t, ok, "url %q", url)
	}
}

func TestParseRepoURLHTTPS(t *testing.T) {
	owner, repo, ok := github.ParseRepoURL("https://github.com/acme/widget")
	require.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widget", repo)
}

func TestParseRepoURLHTTPSWithGitSuffix(t *testing.T) {
	owner, repo, ok := github.ParseRepoURL("https://github.com/acme/widget.git")
	require.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widget", repo)
}

func TestParseRepoURLSSH(t *testing.T) {
	owner, repo, ok := github.ParseRepoURL("git@github.com:acme/widget.git")
	require.True(t, ok)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widget", repo)
}

func TestParseRepoURLRejectsOtherHosts(t *testing.T) {
	_, _, ok := github.ParseRepoURL("git@gitlab.com:acme/widget.git")
	assert.False(t, ok)

	_, _, ok = github.ParseRepoURL("")
	assert.False(t, ok)
}
