package api

// CoarseState is the normalized lifecycle state derived from the raw
// server-side state string. See Normalize.
type CoarseState string

// Coarse session states.
const (
	StateRunning   CoarseState = "RUNNING"
	StateCompleted CoarseState = "COMPLETED"
	StateFailed    CoarseState = "FAILED"
	StateCancelled CoarseState = "CANCELLED"
)

// Raw server-side states that get special treatment somewhere in the CLI.
// The raw enumeration is open-ended; anything not listed here normalizes
// to RUNNING.
const (
	RawCompleted            = "COMPLETED"
	RawFailed               = "FAILED"
	RawCancelled            = "CANCELLED"
	RawPaused               = "PAUSED"
	RawAwaitingPlanApproval = "AWAITING_PLAN_APPROVAL"
	RawAwaitingUserFeedback = "AWAITING_USER_FEEDBACK"
)

// Automation modes accepted by CreateSessionRequest.
const (
	AutomationAutoCreatePR = "AUTO_CREATE_PR"
	AutomationManual       = "MANUAL"
)

// Branch is a branch entry in a GitHub-backed source.
type Branch struct {
	DisplayName string `json:"displayName"`
}

// GitHubRepo describes the repository behind a Source.
type GitHubRepo struct {
	Owner         string   `json:"owner"`
	Repo          string   `json:"repo"`
	IsPrivate     bool     `json:"isPrivate"`
	DefaultBranch Branch   `json:"defaultBranch"`
	Branches      []Branch `json:"branches"`
}

// Source is a repository registered with the agent.
type Source struct {
	Name        string      `json:"name"`
	ID          string      `json:"id"`
	URL         string      `json:"url,omitempty"`
	Description string      `json:"description,omitempty"`
	GitHubRepo  *GitHubRepo `json:"githubRepo,omitempty"`
}

// PullRequest describes a PR produced by a session.
type PullRequest struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Output is one artifact attached to a session.
type Output struct {
	PullRequest *PullRequest `json:"pullRequest,omitempty"`
}

// SourceContext ties a session to its source repository and starting branch.
type SourceContext struct {
	Source            string             `json:"source"`
	GitHubRepoContext *GitHubRepoContext `json:"githubRepoContext,omitempty"`
}

// GitHubRepoContext selects the branch a session starts from.
type GitHubRepoContext struct {
	StartingBranch string `json:"startingBranch"`
}

// Session is a remote agent task instance. The wire `state` field is the
// raw open-ended enumeration; State is derived client-side via Normalize
// and never sent back.
type Session struct {
	Name                string         `json:"name"`
	Title               string         `json:"title"`
	RawState            string         `json:"state"`
	State               CoarseState    `json:"-"`
	URL                 string         `json:"url,omitempty"`
	Outputs             []Output       `json:"outputs,omitempty"`
	SourceContext       *SourceContext `json:"sourceContext,omitempty"`
	RequirePlanApproval bool           `json:"requirePlanApproval,omitempty"`
}

// PRURL returns the URL of the first output carrying a pull request,
// or "" when the session has produced none.
func (s *Session) PRURL() string {
	for _, out := range s.Outputs {
		if out.PullRequest != nil && out.PullRequest.URL != "" {
			return out.PullRequest.URL
		}
	}
	return ""
}

// CreateSessionRequest is the body for POST /sessions.
type CreateSessionRequest struct {
	Prompt              string        `json:"prompt"`
	SourceContext       SourceContext `json:"sourceContext"`
	AutomationMode      string        `json:"automationMode"`
	Title               string        `json:"title"`
	RequirePlanApproval bool          `json:"requirePlanApproval,omitempty"`
}

// CreateSessionResponse carries the resource name of the new session.
type CreateSessionResponse struct {
	Name string `json:"name"`
}

type sourcesResponse struct {
	Sources []Source `json:"sources"`
}

type sessionsResponse struct {
	Sessions []Session `json:"sessions"`
}

type activitiesResponse struct {
	Activities []Activity `json:"activities"`
}
