package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/byte4ever/site_publisher/publish/commitmsg"
	"github.com/byte4ever/site_publisher/publish/config"
	"github.com/byte4ever/site_publisher/publish/exec"
	"github.com/byte4ever/site_publisher/publish/git"
	"github.com/byte4ever/site_publisher/publish/pyenv"
)

// ErrNoChanges reports that the generation step left
// the configured scope identical to the branch tip.
// This is a normal outcome, but it is still surfaced as
// a non-zero exit so automation can tell "nothing to
// do" from "pushed".
var ErrNoChanges = errors.New("no changes to publish")

// Config holds all settings for one publish run. Use a
// Config struct instead of many arguments.
type Config struct {
	// Settings is the resolved run configuration.
	Settings config.Config

	// WorkDir is the directory the run was started
	// from; relative paths in Settings are anchored
	// here. Empty means the current directory.
	WorkDir string

	// KeepEnv reuses an existing environment when the
	// requirements have not changed.
	KeepEnv bool

	// CleanOutput deletes the output directory before
	// the generation step, so files the generator no
	// longer produces cannot linger and be published
	// as stale content.
	CleanOutput bool

	// DryRun stops before staging and reports what
	// would be published.
	DryRun bool

	// Review pushes as usual and then opens a review
	// (pull or merge request) into ReviewBase via
	// Provider.
	Review bool

	// ReviewBase is the branch a review targets.
	ReviewBase string

	// ReviewTitle is the title for opened reviews.
	ReviewTitle string

	// ReviewBody is the body for opened reviews.
	ReviewBody string

	// Provider opens reviews on a git hosting
	// platform. Required only when Review is set.
	Provider git.Provider

	// Runner executes external tools. Defaults to
	// the real system runner.
	Runner exec.Runner
}

// Run executes the full publish workflow: precondition
// checks, environment provisioning, generation, change
// and reachability guards, stage/commit/push, optional
// review, and environment cleanup.
func Run(ctx context.Context, cfg Config) error {
	const errCtx = "running publish"

	runner := cfg.Runner
	if runner == nil {
		runner = exec.System{}
	}

	st := cfg.Settings

	// Canonicalize the working directory so relative
	// scope paths agree with the repository root git
	// reports.
	workDir := cfg.WorkDir
	if workDir != "" {
		if resolved, err := filepath.EvalSymlinks(
			workDir,
		); err == nil {
			workDir = resolved
		}
	}

	// Step 1: Preconditions. Fail before any state
	// changes.
	if err := git.Available(runner); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	interpreter, err := pyenv.ResolveInterpreter(
		runner, st.Python,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	st.Echo()

	// Step 2: Locate the repository and anchor the
	// scope paths at its root.
	repo, err := git.Open(ctx, runner, workDir)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	scope, envDir, err := resolveScope(
		repo.Dir, workDir, st,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 3: Provision the environment and run the
	// generation step. A failing generation aborts
	// the run; the environment is left behind then.
	en := pyenv.New(runner, envDir)

	requirements := anchor(
		workDir, st.Requirements,
	)

	if err := provision(
		ctx, cfg, en, interpreter, requirements,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Drop the previous output before regenerating,
	// so files the generator no longer produces do
	// not survive into the commit. resolveScope has
	// already rejected output dirs outside the repo.
	if cfg.CleanOutput {
		outDir := anchor(workDir, st.OutputDir)

		slog.Info("clearing output", "dir", outDir)

		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf(
				"%s: clear output: %w", errCtx, err,
			)
		}
	}

	if err := en.RunScript(
		ctx, workDir, st.Script,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	// Step 4: Guards. All of them run before the
	// commit is created, so a failed guard leaves no
	// partial state.
	if !repo.BranchExists(ctx, st.Branch) {
		return fmt.Errorf(
			"%s: branch %q does not exist locally",
			errCtx, st.Branch,
		)
	}

	dirty, err := repo.HasChanges(ctx, scope)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if !dirty {
		slog.Info(
			"nothing to publish",
			"branch", st.Branch,
		)

		return ErrNoChanges
	}

	reachable, err := repo.RemoteHasBranch(
		ctx, st.Remote, st.Branch,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if !reachable {
		return fmt.Errorf(
			"%s: remote %q does not advertise "+
				"branch %q",
			errCtx, st.Remote, st.Branch,
		)
	}

	// What the previous publish commit carried, for
	// the audit trail.
	if prev := commitmsg.ExtractPaths(
		repo.LastCommitMessage(ctx),
	); len(prev) > 0 {
		slog.Info(
			"previous publish",
			"paths", len(prev),
		)
	}

	// The per-file list feeds the commit body and the
	// dry-run report; the guard above only needed a
	// yes/no answer.
	changed, err := repo.ChangedPaths(ctx, scope)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if cfg.DryRun {
		slog.Info(
			"dry run: skipping stage, commit, "+
				"and push",
			"paths", changed,
		)

		cleanup(en)

		return nil
	}

	// Step 5: Stage, commit, push.
	if err := repo.Stage(ctx, scope); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	msg := commitmsg.Compose(
		commitmsg.Subject(
			st.Message, messageVars(st, scope),
		),
		changed,
	)

	if err := repo.Commit(
		ctx, msg, st.AuthorName, st.AuthorEmail,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := repo.Push(
		ctx, st.Remote, st.Branch,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info(
		"published",
		"remote", st.Remote,
		"branch", st.Branch,
		"paths", len(changed),
	)

	// Step 6: Optional review flow.
	if cfg.Review {
		if cfg.Provider == nil {
			return fmt.Errorf(
				"%s: review requested but no "+
					"provider configured", errCtx,
			)
		}

		if err := cfg.Provider.OpenReview(
			ctx,
			st.Branch,
			cfg.ReviewBase,
			cfg.ReviewTitle,
			cfg.ReviewBody,
		); err != nil {
			return fmt.Errorf(
				"%s: open review: %w", errCtx, err,
			)
		}
	}

	// Step 7: Remove the environment. Failure is a
	// warning, not an error: the leftover directory
	// is excluded from staging either way.
	cleanup(en)

	return nil
}

// provision creates and installs the environment, or
// reuses an up-to-date one when allowed.
func provision(
	ctx context.Context,
	cfg Config,
	en *pyenv.Env,
	interpreter string,
	requirements string,
) error {
	const errCtx = "provisioning environment"

	if cfg.KeepEnv && en.UpToDate(requirements) {
		slog.Info(
			"reusing environment",
			"dir", en.Dir,
		)

		return nil
	}

	if err := en.Create(ctx, interpreter); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := en.Install(
		ctx, requirements,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	pkgs, err := en.Inventory(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("installed packages", "count", len(pkgs))

	for _, pkg := range pkgs {
		slog.Debug(
			"installed",
			"name", pkg.Name,
			"version", pkg.Version,
		)
	}

	return nil
}

// cleanup removes the environment, degrading to a
// warning when the directory cannot be deleted.
func cleanup(en *pyenv.Env) {
	if err := en.Remove(); err != nil {
		slog.Warn(
			"environment left behind",
			"dir", en.Dir,
			"error", err,
		)
	}
}

// resolveScope anchors the configured env and output
// directories at the repository root and builds the
// commit scope. Returns the scope and the absolute
// environment directory.
func resolveScope(
	repoDir string,
	workDir string,
	st config.Config,
) (git.Scope, string, error) {
	const errCtx = "resolving scope"

	envDir := anchor(workDir, st.EnvDir)

	relEnv, err := repoRel(repoDir, envDir)
	if err != nil {
		return git.Scope{}, "", fmt.Errorf(
			"%s: env dir: %w", errCtx, err,
		)
	}

	outDir := anchor(workDir, st.OutputDir)

	relOut, err := repoRel(repoDir, outDir)
	if err != nil {
		return git.Scope{}, "", fmt.Errorf(
			"%s: output dir: %w", errCtx, err,
		)
	}

	return git.Scope{
		All:       st.CommitAll,
		OutputDir: relOut,
		EnvDir:    relEnv,
	}, envDir, nil
}

// anchor resolves path against dir unless it is already
// absolute.
func anchor(dir string, path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	return filepath.Join(dir, path)
}

// repoRel converts an absolute or working-directory
// relative path to a repository-root relative one,
// rejecting paths that escape the repository.
func repoRel(
	repoDir string,
	path string,
) (string, error) {
	const errCtx = "relativizing path"

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	absRepo, err := filepath.Abs(repoDir)
	if err != nil {
		return "", fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	rel, err := filepath.Rel(absRepo, abs)
	if err != nil {
		return "", fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if rel == ".." || strings.HasPrefix(
		rel, ".."+string(filepath.Separator),
	) {
		return "", fmt.Errorf(
			"%s: %s is outside the repository",
			errCtx, path,
		)
	}

	return rel, nil
}

// messageVars builds the placeholder context for the
// commit subject.
func messageVars(
	st config.Config,
	scope git.Scope,
) map[string]interface{} {
	sc := scope.OutputDir
	if scope.All {
		sc = "repository"
	}

	return map[string]interface{}{
		"BRANCH": st.Branch,
		"SCOPE":  sc,
		"DATE": time.Now().
			Format("2006-01-02"),
	}
}
