// Package git provides working-tree operations for the publish pipeline and
// a strategy interface for creating pull requests on git hosting platforms.
//
// Repo wraps an existing local repository with the read-only guards and the
// stage/commit/push operations the pipeline needs. Open anchors a Repo at
// the repository root so that scope pathspecs are unambiguous. Every command
// goes through an exec.Runner, so callers can substitute fakes.
//
// The Provider interface abstracts PR creation for the optional review flow.
// Implementations exist for GitHub and GitLab in sub-packages. ProviderFunc
// is a convenience adapter that lets plain functions satisfy the interface.
package git
