// Package git discovers branch information from the local repository via
// the git CLI. Every function degrades gracefully when no repository or
// git binary is available.
package git

import (
	"os/exec"
	"strings"
)

// CurrentBranch returns the checked-out branch of the repository at dir,
// or "" when it cannot be determined (detached HEAD, no repo, no git).
func CurrentBranch(dir string) string {
	out, err := exec.Command("git", "-C", dir, "symbolic-ref", "--short", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// RemoteURL returns the origin remote URL of the repository at dir, or "".
func RemoteURL(dir string) string {
	out, err := exec.Command("git", "-C", dir, "remote", "get-url", "origin").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

// DefaultBranch returns the repo's default remote branch (e.g. "main").
// Falls back to "main" if it cannot be determined.
func DefaultBranch(dir string) string {
	out, err := exec.Command(
		"git", "-C", dir,
		"symbolic-ref", "--short", "refs/remotes/origin/HEAD",
	).Output()
	if err == nil {
		// output is "origin/main", strip the remote prefix
		ref := strings.TrimSpace(string(out))
		if _, after, ok := strings.Cut(ref, "/"); ok {
			return after
		}
	}
	return "main"
}
