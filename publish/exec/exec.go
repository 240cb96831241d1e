// Package exec runs external tools on behalf of the
// publish pipeline.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	oe "os/exec"
	"strings"
)

// Runner is the capability to invoke external tools.
// The pipeline never touches os/exec directly so that
// orchestration logic can be tested with fakes.
type Runner interface {
	// Run executes name with arg in dir (empty dir
	// means the current working directory) and
	// returns combined stdout+stderr output.
	Run(
		ctx context.Context,
		dir string,
		name string,
		arg ...string,
	) (string, error)

	// Look resolves name to an executable path,
	// failing if the tool is not invocable.
	Look(name string) (string, error)
}

// System is the os/exec backed Runner used outside of
// tests.
type System struct{}

// Run executes the named command and returns combined
// stdout+stderr output. Every invocation and its output
// are logged.
func (System) Run(
	ctx context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	const errCtx = "executing command"

	slog.Info(
		"executing",
		"cmd", name,
		"args", strings.Join(arg, " "),
	)

	cmd := oe.CommandContext(ctx, name, arg...)
	if dir != "" {
		cmd.Dir = dir
	}

	by, err := cmd.CombinedOutput()

	slog.Info("output", "result", string(by))

	if err != nil {
		return string(by), fmt.Errorf(
			"%s: %s %s: %w",
			errCtx, name, strings.Join(arg, " "), err,
		)
	}

	return string(by), nil
}

// Look resolves name on PATH.
func (System) Look(name string) (string, error) {
	const errCtx = "looking up executable"

	path, err := oe.LookPath(name)
	if err != nil {
		return "", fmt.Errorf(
			"%s: %s: %w", errCtx, name, err,
		)
	}

	return path, nil
}

// Must runs the command via r and panics on failure.
// Reserved for callers that cannot continue past a
// failed invocation, such as test fixtures.
func Must(
	ctx context.Context,
	r Runner,
	dir string,
	name string,
	arg ...string,
) string {
	out, err := r.Run(ctx, dir, name, arg...)
	if err != nil {
		panic(fmt.Sprintf("command failed: %v", err))
	}

	return out
}
