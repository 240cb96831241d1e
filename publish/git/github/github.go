package github

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v68/github"
)

// Config holds the settings needed to open publish
// reviews on GitHub.
type Config struct {
	// RepoOwner is the GitHub user or organisation
	// that owns the site repository.
	RepoOwner string
	// Repo is the repository name (without owner).
	Repo string
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// EnterpriseHost is an optional GitHub Enterprise
	// hostname (e.g. "git.corp.example.com"). Leave
	// empty for github.com.
	EnterpriseHost string
	// Draft opens pull requests as drafts, so a
	// scheduled publish run never pings reviewers
	// until someone marks it ready.
	Draft bool
}

// Provider opens pull requests for pushed publish
// branches on GitHub.
//
// Pattern: Strategy -- implements git.Provider.
type Provider struct {
	client    *gh.Client
	repoOwner string
	repo      string
	draft     bool
}

// NewProvider validates cfg and returns a Provider
// ready to open pull requests.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.RepoOwner == "" {
		return nil, fmt.Errorf(
			"%s: repo owner must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.EnterpriseHost != "" {
		baseURL := "https://" +
			cfg.EnterpriseHost + "/api/v3/"
		uploadURL := "https://" +
			cfg.EnterpriseHost + "/api/uploads/"

		var err error

		client, err = client.WithEnterpriseURLs(
			baseURL, uploadURL,
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: enterprise urls: %w",
				errCtx, err,
			)
		}
	}

	return &Provider{
		client:    client,
		repoOwner: cfg.RepoOwner,
		repo:      cfg.Repo,
		draft:     cfg.Draft,
	}, nil
}

// OpenReview opens a pull request from the publish
// branch "head" into branch "base". The body becomes
// the pull request body. If a PR already exists
// (HTTP 422) the error is suppressed.
func (p *Provider) OpenReview(
	ctx context.Context,
	head string,
	base string,
	title string,
	body string,
) error {
	const errCtx = "opening github pull request"

	pr := newPullRequest(
		head, base, title, body, p.draft,
	)

	created, resp, err := p.client.PullRequests.Create(
		ctx, p.repoOwner, p.repo, pr,
	)
	if err == nil {
		slog.Info(
			"opened pull request",
			"url", created.GetURL(),
		)

		return nil
	}

	// HTTP 422: PR already exists for this
	// head/base pair.
	if resp != nil &&
		resp.StatusCode ==
			http.StatusUnprocessableEntity {
		slog.Info("reusing existing pull request")

		return nil
	}

	// Log the response body for debugging.
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close() //nolint:errcheck

		rb, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			slog.Warn(
				"cannot read response body",
				"error", readErr,
			)
		} else {
			slog.Warn(
				"github response",
				"body", string(rb),
			)
		}
	}

	return fmt.Errorf("%s: %w", errCtx, err)
}

// newPullRequest builds the create payload. An empty
// body leaves the PR body unset.
func newPullRequest(
	head string,
	base string,
	title string,
	body string,
	draft bool,
) *gh.NewPullRequest {
	pr := &gh.NewPullRequest{
		Title: &title,
		Head:  &head,
		Base:  &base,
	}

	if body != "" {
		pr.Body = &body
	}

	if draft {
		pr.Draft = &draft
	}

	return pr
}
