package pyenv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/site_publisher/publish/exec"
)

// Env is a disposable Python environment. Create with
// New, provision with Create, and call Remove when
// done. Every install and run step goes through the
// environment's own interpreter, never the session
// PATH.
type Env struct {
	// Dir is the environment directory.
	Dir string
	// Python is the interpreter inside the
	// environment.
	Python string
	// Runner invokes external tools.
	Runner exec.Runner
}

// Package is one installed distribution as reported by
// pip.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ResolveInterpreter validates that the configured
// interpreter is invocable and returns its resolved
// path. Accepts both bare names ("python3") and
// explicit paths.
func ResolveInterpreter(
	r exec.Runner,
	python string,
) (string, error) {
	const errCtx = "resolving interpreter"

	path, err := r.Look(python)
	if err != nil {
		return "", fmt.Errorf(
			"%s: %s: %w", errCtx, python, err,
		)
	}

	return path, nil
}

// New returns an Env rooted at dir. The environment may
// or may not exist on disk yet.
func New(r exec.Runner, dir string) *Env {
	return &Env{
		Dir:    dir,
		Python: filepath.Join(dir, "bin", "python"),
		Runner: r,
	}
}

// Exists reports whether the environment's interpreter
// is present on disk.
func (e *Env) Exists() bool {
	_, err := os.Stat(e.Python)

	return err == nil
}

// Create provisions the environment at e.Dir using the
// given interpreter, replacing any previous content.
func (e *Env) Create(
	ctx context.Context,
	interpreter string,
) error {
	const errCtx = "creating environment"

	if err := os.RemoveAll(e.Dir); err != nil {
		return fmt.Errorf(
			"%s: remove dir: %w", errCtx, err,
		)
	}

	if _, err := e.Runner.Run(
		ctx, "", interpreter, "-m", "venv", e.Dir,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Install installs the dependencies declared in the
// requirements file and records its digest so that a
// later run can detect whether the environment is
// reusable.
func (e *Env) Install(
	ctx context.Context,
	requirements string,
) error {
	const errCtx = "installing dependencies"

	if _, err := e.Runner.Run(
		ctx, "", e.Python,
		"-m", "pip", "install", "-r", requirements,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := e.saveDigest(requirements); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Inventory returns the packages installed in the
// environment, for audit logging.
func (e *Env) Inventory(
	ctx context.Context,
) ([]Package, error) {
	const errCtx = "listing installed packages"

	out, err := e.Runner.Run(
		ctx, "", e.Python,
		"-m", "pip", "list", "--format=json",
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	var pkgs []Package
	if err := json.Unmarshal(
		[]byte(out), &pkgs,
	); err != nil {
		return nil, fmt.Errorf(
			"%s: parse json: %w", errCtx, err,
		)
	}

	return pkgs, nil
}

// RunScript executes the generation script with the
// environment's interpreter in dir. A failing script
// aborts the whole run; the environment is deliberately
// left in place in that case.
func (e *Env) RunScript(
	ctx context.Context,
	dir string,
	script string,
	arg ...string,
) error {
	const errCtx = "running generation script"

	args := append([]string{script}, arg...)

	if _, err := e.Runner.Run(
		ctx, dir, e.Python, args...,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// Remove deletes the environment directory. Callers
// treat a failure as a warning, not a fatal error: the
// leftover directory is never staged anyway.
func (e *Env) Remove() error {
	const errCtx = "removing environment"

	if err := os.RemoveAll(e.Dir); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}
