package gitlab

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	gl "gitlab.com/gitlab-org/api/client-go"
)

// Config holds the settings needed to open publish
// reviews on GitLab.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// Repo is the full project path
	// (e.g. "org/site").
	Repo string
	// AccessToken is a personal or project access
	// token used for authentication.
	AccessToken string
	// RemoveSourceBranch asks GitLab to delete the
	// publish branch when the merge request is
	// merged. Useful when each publish run pushes a
	// throwaway branch.
	RemoveSourceBranch bool
}

// Provider opens merge requests for pushed publish
// branches on GitLab.
//
// Pattern: Strategy -- implements git.Provider.
type Provider struct {
	client       *gl.Client
	repo         string
	removeSource bool
}

// NewProvider validates cfg and returns a Provider
// ready to open merge requests.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	if cfg.Repo == "" {
		return nil, fmt.Errorf(
			"%s: repo must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = "https://gitlab.com"
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{
		client:       client,
		repo:         cfg.Repo,
		removeSource: cfg.RemoveSourceBranch,
	}, nil
}

// OpenReview opens a merge request from the publish
// branch "head" into branch "base". The body becomes
// the merge request description. If a MR already exists
// (HTTP 409) the error is suppressed.
func (p *Provider) OpenReview(
	ctx context.Context,
	head string,
	base string,
	title string,
	body string,
) error {
	const errCtx = "opening gitlab merge request"

	opts := newMergeRequestOptions(
		head, base, title, body, p.removeSource,
	)

	created, resp, err := p.client.MergeRequests.CreateMergeRequest(
		p.repo, opts, gl.WithContext(ctx),
	)
	if err == nil {
		slog.Info(
			"opened merge request",
			"url", created.WebURL,
		)

		return nil
	}

	// HTTP 409: MR already exists for this source
	// branch.
	if resp != nil &&
		resp.StatusCode == http.StatusConflict {
		slog.Info(
			"reusing existing merge request",
		)

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
				"gitlab response",
				"body", string(rb),
			)
		}
	}

	return fmt.Errorf("%s: %w", errCtx, err)
}

// newMergeRequestOptions builds the create payload. An
// empty body leaves the description unset.
func newMergeRequestOptions(
	head string,
	base string,
	title string,
	body string,
	removeSource bool,
) *gl.CreateMergeRequestOptions {
	opts := &gl.CreateMergeRequestOptions{
		Title:        &title,
		SourceBranch: &head,
		TargetBranch: &base,
	}

	if body != "" {
		opts.Description = &body
	}

	if removeSource {
		opts.RemoveSourceBranch = &removeSource
	}

	return opts
}
