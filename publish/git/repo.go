package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/byte4ever/site_publisher/publish/exec"
)

// Repo is an existing local working tree. Create with
// Open, which anchors all commands at the repository
// root.
type Repo struct {
	// Dir is the repository root.
	Dir string
	// Runner invokes the git tool.
	Runner exec.Runner
}

// Scope selects which paths are diffed and staged.
type Scope struct {
	// All selects the whole repository.
	All bool
	// OutputDir is the generated tree staged when All
	// is false, relative to the repository root.
	OutputDir string
	// EnvDir is the disposable environment directory,
	// excluded from whole-repository staging. Relative
	// to the repository root, empty to exclude
	// nothing.
	EnvDir string
}

// pathspec returns the git pathspec for the scope. The
// environment directory is a build artifact and is never
// part of a whole-repository stage.
func (s Scope) pathspec() []string {
	if !s.All {
		return []string{s.OutputDir}
	}

	specs := []string{"."}
	if s.EnvDir != "" {
		specs = append(specs, ":(exclude)"+s.EnvDir)
	}

	return specs
}

// Available reports whether the git tool is invocable.
func Available(r exec.Runner) error {
	const errCtx = "checking for git"

	if _, err := r.Look("git"); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Open locates the repository root containing dir and
// returns a Repo anchored there. Pathspecs passed to
// the returned Repo must be relative to that root.
func Open(
	ctx context.Context,
	r exec.Runner,
	dir string,
) (*Repo, error) {
	const errCtx = "opening repository"

	out, err := r.Run(
		ctx, dir, "git",
		"rev-parse", "--show-toplevel",
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &Repo{
		Dir:    strings.TrimSpace(out),
		Runner: r,
	}, nil
}

// ConfigValue returns the value of a git configuration
// key, or empty string when the key is unset. Read-only.
func (r *Repo) ConfigValue(
	ctx context.Context,
	key string,
) string {
	out, err := r.Runner.Run(
		ctx, r.Dir, "git", "config", key,
	)
	if err != nil {
		return ""
	}

	return strings.TrimSpace(out)
}

// BranchExists reports whether branch exists locally.
func (r *Repo) BranchExists(
	ctx context.Context,
	branch string,
) bool {
	_, err := r.Runner.Run(
		ctx, r.Dir, "git",
		"rev-parse", "--verify", "--quiet",
		"refs/heads/"+branch,
	)

	return err == nil
}

// RemoteHasBranch reports whether the remote advertises
// the branch.
func (r *Repo) RemoteHasBranch(
	ctx context.Context,
	remote string,
	branch string,
) (bool, error) {
	const errCtx = "listing remote branches"

	out, err := r.Runner.Run(
		ctx, r.Dir, "git",
		"ls-remote", "--heads", remote, branch,
	)
	if err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return strings.Contains(
		out, "refs/heads/"+branch,
	), nil
}

// HasChanges reports whether the scope differs from the
// current branch tip (staged, unstaged, or untracked).
func (r *Repo) HasChanges(
	ctx context.Context,
	scope Scope,
) (bool, error) {
	const errCtx = "checking for changes"

	args := append(
		[]string{"status", "--porcelain", "--"},
		scope.pathspec()...,
	)

	out, err := r.Runner.Run(
		ctx, r.Dir, "git", args...,
	)
	if err != nil {
		return false, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return strings.TrimSpace(out) != "", nil
}

// ChangedPaths returns the paths within scope that
// differ from the branch tip, one per status line.
func (r *Repo) ChangedPaths(
	ctx context.Context,
	scope Scope,
) ([]string, error) {
	const errCtx = "listing changed paths"

	args := append(
		[]string{"status", "--porcelain", "--"},
		scope.pathspec()...,
	)

	out, err := r.Runner.Run(
		ctx, r.Dir, "git", args...,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	var paths []string

	for _, line := range strings.Split(out, "\n") {
		// Porcelain lines are "XY path".
		if len(line) > 3 {
			paths = append(paths, line[3:])
		}
	}

	return paths, nil
}

// Stage adds all changes within scope to the index.
func (r *Repo) Stage(
	ctx context.Context,
	scope Scope,
) error {
	const errCtx = "staging changes"

	args := append(
		[]string{"add", "-A", "--"},
		scope.pathspec()...,
	)

	if _, err := r.Runner.Run(
		ctx, r.Dir, "git", args...,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Commit records the staged changes with a one-shot
// author identity. The identity override never touches
// the repository or global configuration. Empty commit
// messages are allowed.
func (r *Repo) Commit(
	ctx context.Context,
	message string,
	authorName string,
	authorEmail string,
) error {
	const errCtx = "committing changes"

	if _, err := r.Runner.Run(
		ctx, r.Dir, "git",
		"-c", "user.name="+authorName,
		"-c", "user.email="+authorEmail,
		"commit",
		"--allow-empty-message",
		"-m", message,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Push publishes branch to remote. Exactly one refspec,
// never forced.
func (r *Repo) Push(
	ctx context.Context,
	remote string,
	branch string,
) error {
	const errCtx = "pushing branch"

	if _, err := r.Runner.Run(
		ctx, r.Dir, "git",
		"push", remote, branch+":"+branch,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// LastCommitMessage returns the most recent commit
// message on the current branch. Returns empty string
// on error.
func (r *Repo) LastCommitMessage(
	ctx context.Context,
) string {
	msg, err := r.Runner.Run(
		ctx, r.Dir, "git",
		"log", "-1", "--pretty=%B",
	)
	if err != nil {
		return ""
	}

	return msg
}
