package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/WhiteDevil-93/jules/internal/api"
	"github.com/WhiteDevil-93/jules/internal/config"
	"github.com/WhiteDevil-93/jules/internal/git"
	"github.com/WhiteDevil-93/jules/internal/github"
	"github.com/WhiteDevil-93/jules/internal/logging"
	"github.com/WhiteDevil-93/jules/internal/state"
)

// newFlags holds the create-session options.
type newFlags struct {
	repo                string
	branch              string
	prompt              string
	title               string
	requirePlanApproval bool
	noAutoPR            bool
	createBranch        bool
}

func newNewCmd(flags *rootFlags) *cobra.Command {
	var nf newFlags

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a session (interactive when --repo/--prompt are omitted)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			client, err := newClient(cfg)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			return runNew(cmd.Context(), cfg, client, st, &nf)
		},
	}

	f := cmd.Flags()
	f.StringVar(&nf.repo, "repo", "", "Source repository (owner/repo or source resource name)")
	f.StringVar(&nf.branch, "branch", "", "Starting branch (defaults per DEFAULT_BRANCH policy)")
	f.StringVar(&nf.prompt, "prompt", "", "Task prompt for the agent")
	f.StringVar(&nf.title, "title", "", "Session title (defaults to a prompt excerpt)")
	f.BoolVar(&nf.requirePlanApproval, "require-plan-approval", false, "Pause the session until its plan is approved")
	f.BoolVar(&nf.noAutoPR, "no-auto-pr", false, "Do not create a PR automatically on completion")
	f.BoolVar(&nf.createBranch, "create-branch", false, "Create the starting branch on GitHub first")
	return cmd
}

func runNew(ctx context.Context, cfg *config.Config, client *api.Client, st *state.Store, nf *newFlags) error {
	stdin := bufio.NewReader(os.Stdin)

	source, err := pickSource(ctx, client, nf.repo, stdin)
	if err != nil {
		return err
	}
	if source == nil {
		// Cancelled picker: warn and return, not an error.
		logging.Warn("no source selected")
		return nil
	}

	branch, err := pickBranch(ctx, cfg, client, source, nf.branch, stdin)
	if err != nil {
		return err
	}

	if nf.createBranch {
		if err := createRemoteBranch(ctx, cfg, source, branch); err != nil {
			return err
		}
	}

	prompt := strings.TrimSpace(nf.prompt)
	if prompt == "" {
		fmt.Fprint(os.Stderr, "Prompt: ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read prompt: %w", err)
		}
		prompt = strings.TrimSpace(line)
	}
	if prompt == "" {
		logging.Warn("empty prompt, session not created")
		return nil
	}

	title := nf.title
	if title == "" {
		title = excerpt(prompt, 60)
	}

	automation := api.AutomationAutoCreatePR
	if nf.noAutoPR {
		automation = api.AutomationManual
	}

	req := &api.CreateSessionRequest{
		Prompt: prompt,
		SourceContext: api.SourceContext{
			Source:            source.Name,
			GitHubRepoContext: &api.GitHubRepoContext{StartingBranch: branch},
		},
		AutomationMode:      automation,
		Title:               title,
		RequirePlanApproval: nf.requirePlanApproval,
	}

	name, err := client.CreateSession(ctx, req)
	if err != nil {
		return err
	}

	// Remember the picks so later commands can default to them.
	st.SetSelectedSource(source)
	st.SetActiveSession(name)
	if err := st.Save(); err != nil {
		logging.Warnf("persist session selection: %v", err)
	}

	logging.Successf("session created: %s (%s @ %s)", name, source.Name, branch)
	fmt.Println(name)
	return nil
}

// pickSource resolves the --repo argument, or asks interactively when it
// is empty. Returns nil when the user cancels the picker.
func pickSource(ctx context.Context, client *api.Client, repoArg string, stdin *bufio.Reader) (*api.Source, error) {
	sources, err := client.ListSources(ctx)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources registered — add the repository at jules.google.com first")
	}

	if repoArg != "" {
		for i := range sources {
			src := &sources[i]
			if src.Name == repoArg || src.ID == repoArg {
				return src, nil
			}
			if gh := src.GitHubRepo; gh != nil && gh.Owner+"/"+gh.Repo == repoArg {
				return src, nil
			}
		}
		return nil, fmt.Errorf("unknown source %q", repoArg)
	}

	// If the working directory's origin matches exactly one source, take it.
	if owner, repo, ok := github.ParseRepoURL(git.RemoteURL(".")); ok {
		for i := range sources {
			if gh := sources[i].GitHubRepo; gh != nil && gh.Owner == owner && gh.Repo == repo {
				logging.Infof("using source %s/%s (matches current repo)", owner, repo)
				return &sources[i], nil
			}
		}
	}

	for i := range sources {
		label := sources[i].Name
		if gh := sources[i].GitHubRepo; gh != nil {
			label = gh.Owner + "/" + gh.Repo
		}
		fmt.Fprintf(os.Stderr, "%3d. %s\n", i+1, label)
	}
	fmt.Fprint(os.Stderr, "Source number (empty to cancel): ")
	line, err := stdin.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read selection: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 || n > len(sources) {
		return nil, fmt.Errorf("invalid selection %q", line)
	}
	return &sources[n-1], nil
}

// pickBranch resolves the starting branch: explicit flag, then the
// DEFAULT_BRANCH policy ("current" uses the local checkout, "main" is
// literal, "default" asks the source), offering the source's branch list
// interactively as a fallback.
func pickBranch(ctx context.Context, cfg *config.Config, client *api.Client, source *api.Source, branchArg string, stdin *bufio.Reader) (string, error) {
	if branchArg != "" {
		return branchArg, nil
	}

	// Branch list and default come from the source detail; failure here
	// degrades to the local repo's default rather than aborting.
	defaultBranch := git.DefaultBranch(".")
	var branches []string
	if detail, err := client.GetSource(ctx, source.Name); err == nil && detail.GitHubRepo != nil {
		for _, b := range detail.GitHubRepo.Branches {
			branches = append(branches, b.DisplayName)
		}
		if detail.GitHubRepo.DefaultBranch.DisplayName != "" {
			defaultBranch = detail.GitHubRepo.DefaultBranch.DisplayName
		}
	} else if err != nil {
		logging.Debugf("source detail unavailable, using defaults: %v", err)
	}

	current := git.CurrentBranch(".")

	suggested := defaultBranch
	switch cfg.DefaultBranch {
	case "current":
		if current != "" {
			suggested = current
		}
	case "main":
		suggested = "main"
	}

	fmt.Fprintf(os.Stderr, "Branch [%s]", suggested)
	if len(branches) > 0 {
		fmt.Fprintf(os.Stderr, " (known: %s)", excerpt(strings.Join(branches, ", "), 80))
	}
	fmt.Fprint(os.Stderr, ": ")
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read branch: %w", err)
	}
	if line = strings.TrimSpace(line); line != "" {
		return line, nil
	}
	return suggested, nil
}

// createRemoteBranch pushes a new branch to GitHub off the default branch.
func createRemoteBranch(ctx context.Context, cfg *config.Config, source *api.Source, branch string) error {
	if source.GitHubRepo == nil {
		return fmt.Errorf("--create-branch requires a GitHub-backed source")
	}
	token := github.ResolveToken(cfg.GithubToken)
	if token == "" {
		return fmt.Errorf("--create-branch needs a GitHub token (GITHUB_TOKEN or config)")
	}
	creator := github.NewBranchCreator(token)
	if err := creator.CreateBranch(ctx, source.GitHubRepo.Owner, source.GitHubRepo.Repo, branch); err != nil {
		return err
	}
	logging.Successf("created branch %s on %s/%s", branch, source.GitHubRepo.Owner, source.GitHubRepo.Repo)
	return nil
}

// excerpt shortens s to at most n runes, appending an ellipsis when cut.
func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}
