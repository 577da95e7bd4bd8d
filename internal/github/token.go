package github

import (
	"os"
	"os/exec"
	"strings"
)

// ResolveToken returns the GitHub bearer credential to use, or "" when
// none is available. Lookup order: the explicitly configured token, the
// GITHUB_TOKEN / GH_TOKEN environment variables, then the gh CLI's stored
// credential. All requests work unauthenticated; a token just raises the
// rate limit and unlocks private repos.
func ResolveToken(configured string) string {
	if configured != "" {
		return configured
	}
	for _, env := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	out, err := exec.Command("gh", "auth", "token").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}
