// Package github talks to the GitHub REST API for the two things jules
// needs from it: pull-request open/closed status and remote branch
// creation. Credentials are optional everywhere; absence means requests
// go out unauthenticated.
package github

import (
	"regexp"
	"strconv"
)

var (
	// https://github.com/owner/repo/pull/123
	prURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/pull/(\d+)`)

	// https://github.com/owner/repo(.git) or git@github.com:owner/repo(.git)
	repoURLPattern = regexp.MustCompile(`(?:https?://|git@)github\.com[/:]([^/]+)/([^/]+?)(?:\.git)?$`)
)

// ParsePRURL extracts owner, repo and PR number from a GitHub pull-request
// URL. ok is false when the URL does not match the expected pattern.
func ParsePRURL(url string) (owner, repo string, number int, ok bool) {
	m := prURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", 0, false
	}
	n, err := strconv.Atoi(m[3])
	if err != nil {
		return "", "", 0, false
	}
	return m[1], m[2], n, true
}

// ParseRepoURL extracts owner and repo from an HTTPS or SSH GitHub remote
// URL. ok is false when the URL does not look like a GitHub repository.
func ParseRepoURL(url string) (owner, repo string, ok bool) {
	m := repoURLPattern.FindStringSubmatch(url)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
