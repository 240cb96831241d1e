// Command site_publisher regenerates the site content
// through a disposable Python environment and commits
// and pushes the result to the configured git remote.
// Every option can be set via a flag, a PUBLISH_*
// environment variable, or the publish.yaml file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/byte4ever/site_publisher/publish/config"
	"github.com/byte4ever/site_publisher/publish/exec"
	"github.com/byte4ever/site_publisher/publish/git"
	"github.com/byte4ever/site_publisher/publish/git/github"
	"github.com/byte4ever/site_publisher/publish/git/gitlab"
	"github.com/byte4ever/site_publisher/publish/publisher"
)

func main() {
	err := run()

	switch {
	case err == nil:
	case errors.Is(err, publisher.ErrNoChanges):
		slog.Warn("nothing to do", "reason", err)
		os.Exit(1)
	default:
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // CLI flag setup is inherently long
func run() error {
	const errCtx = "running site_publisher"

	// Environment variables provide the flag
	// defaults, so a set flag always wins.
	ov := config.FromEnv(os.Getenv)

	// Pipeline flags.
	python := flag.String(
		"python", ov.Python,
		"Python interpreter name or path",
	)
	remote := flag.String(
		"remote", ov.Remote,
		"Git remote to push to",
	)
	branch := flag.String(
		"branch", ov.Branch,
		"Branch to commit to and push",
	)
	authorName := flag.String(
		"author_name", ov.AuthorName,
		"Commit author name",
	)
	authorEmail := flag.String(
		"author_email", ov.AuthorEmail,
		"Commit author email",
	)
	message := flag.String(
		"message", ov.Message,
		"Commit subject; {BRANCH}, {SCOPE}, and "+
			"{DATE} are expanded",
	)
	commitAll := flag.String(
		"commit_all", ov.CommitAll,
		"true to commit the whole repository, "+
			"false for the output directory only",
	)
	envDir := flag.String(
		"env_dir", ov.EnvDir,
		"Disposable environment directory",
	)
	requirements := flag.String(
		"requirements", ov.Requirements,
		"Dependency declarations file",
	)
	script := flag.String(
		"script", ov.Script,
		"Generation entry point",
	)
	outputDir := flag.String(
		"output_dir", ov.OutputDir,
		"Generated content directory",
	)

	// Run-mode flags.
	configPath := flag.String(
		"config", "publish.yaml",
		"Optional configuration file",
	)
	keepEnv := flag.Bool(
		"keep_env", false,
		"Reuse the environment when the "+
			"requirements are unchanged",
	)
	cleanOutput := flag.Bool(
		"clean_output", false,
		"Delete the output directory before "+
			"the generation step",
	)
	dryRun := flag.Bool(
		"dry_run", false,
		"Stop before staging and report what "+
			"would be published",
	)

	// Review flow flags.
	review := flag.Bool(
		"review", false,
		"Open a review after pushing",
	)
	reviewBase := flag.String(
		"review_base", "",
		"Branch the review targets",
	)
	reviewTitle := flag.String(
		"review_title", "Site update",
		"Title for opened reviews",
	)
	reviewBody := flag.String(
		"review_body", "",
		"Body for opened reviews",
	)
	gitServer := flag.String(
		"git_server", "",
		"Git hosting platform for reviews: "+
			"github or gitlab",
	)

	// GitHub-specific flags.
	ghRepoOwner := flag.String(
		"github_repo_owner", "",
		"GitHub repository owner",
	)
	ghRepo := flag.String(
		"github_repo", "",
		"GitHub repository name",
	)
	ghToken := flag.String(
		"github_access_token", "",
		"GitHub personal access token",
	)
	ghEnterprise := flag.String(
		"github_enterprise_host", "",
		"GitHub Enterprise hostname",
	)
	ghDraft := flag.Bool(
		"github_draft", false,
		"Open pull requests as drafts",
	)

	// GitLab-specific flags.
	glHost := flag.String(
		"gitlab_host", "",
		"GitLab instance URL",
	)
	glRepo := flag.String(
		"gitlab_repo", "",
		"GitLab project path (org/project)",
	)
	glToken := flag.String(
		"gitlab_access_token", "",
		"GitLab personal access token",
	)
	glRemoveSource := flag.Bool(
		"gitlab_remove_source_branch", false,
		"Delete the publish branch when the merge "+
			"request is merged",
	)

	flag.Parse()

	fl, err := config.LoadFile(*configPath)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf(
			"%s: get working directory: %w",
			errCtx, err,
		)
	}

	ctx := context.Background()
	runner := exec.System{}

	// Read-only identity fallback from the existing
	// git configuration.
	gitConfig := func(key string) string {
		repo, openErr := git.Open(
			ctx, runner, workDir,
		)
		if openErr != nil {
			return ""
		}

		return repo.ConfigValue(ctx, key)
	}

	st, err := config.Resolve(
		config.Overrides{
			Python:       *python,
			Remote:       *remote,
			Branch:       *branch,
			AuthorName:   *authorName,
			AuthorEmail:  *authorEmail,
			Message:      *message,
			CommitAll:    *commitAll,
			EnvDir:       *envDir,
			Requirements: *requirements,
			Script:       *script,
			OutputDir:    *outputDir,
		},
		fl,
		gitConfig,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	var provider git.Provider

	if *review {
		provider, err = newProvider(
			*gitServer,
			providerFlags{
				ghRepoOwner:    *ghRepoOwner,
				ghRepo:         *ghRepo,
				ghToken:        *ghToken,
				ghEnterprise:   *ghEnterprise,
				ghDraft:        *ghDraft,
				glHost:         *glHost,
				glRepo:         *glRepo,
				glToken:        *glToken,
				glRemoveSource: *glRemoveSource,
			},
		)
		if err != nil {
			return fmt.Errorf(
				"%s: create provider: %w",
				errCtx, err,
			)
		}
	}

	cfg := publisher.Config{
		Settings:    st,
		WorkDir:     workDir,
		KeepEnv:     *keepEnv,
		CleanOutput: *cleanOutput,
		DryRun:      *dryRun,
		Review:      *review,
		ReviewBase:  *reviewBase,
		ReviewTitle: *reviewTitle,
		ReviewBody:  *reviewBody,
		Provider:    provider,
		Runner:      runner,
	}

	if err := publisher.Run(ctx, cfg); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// providerFlags bundles provider-specific flag values
// to keep newProvider's signature small.
type providerFlags struct {
	ghRepoOwner    string
	ghRepo         string
	ghToken        string
	ghEnterprise   string
	ghDraft        bool
	glHost         string
	glRepo         string
	glToken        string
	glRemoveSource bool
}

// newProvider creates a git.Provider based on the
// server name. Pattern: Factory -- selects platform
// implementation at runtime.
func newProvider(
	server string,
	pf providerFlags,
) (git.Provider, error) {
	const errCtx = "creating git provider"

	switch server {
	case "github":
		p, err := github.NewProvider(github.Config{
			RepoOwner:      pf.ghRepoOwner,
			Repo:           pf.ghRepo,
			AccessToken:    pf.ghToken,
			EnterpriseHost: pf.ghEnterprise,
			Draft:          pf.ghDraft,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	case "gitlab":
		p, err := gitlab.NewProvider(gitlab.Config{
			Host:               pf.glHost,
			Repo:               pf.glRepo,
			AccessToken:        pf.glToken,
			RemoveSourceBranch: pf.glRemoveSource,
		})
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %w", errCtx, err,
			)
		}

		return p, nil

	default:
		return nil, fmt.Errorf(
			"%s: unknown server %q", errCtx, server,
		)
	}
}
