package pyenv_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/site_publisher/publish/pyenv"
)

// fakeRunner records invocations and plays back canned
// output.
type fakeRunner struct {
	calls   []fakeCall
	out     string
	err     error
	lookErr error
}

type fakeCall struct {
	dir  string
	name string
	args []string
}

func (f *fakeRunner) Run(
	_ context.Context,
	dir string,
	name string,
	arg ...string,
) (string, error) {
	f.calls = append(f.calls, fakeCall{
		dir:  dir,
		name: name,
		args: arg,
	})

	return f.out, f.err
}

func (f *fakeRunner) Look(name string) (string, error) {
	if f.lookErr != nil {
		return "", f.lookErr
	}

	return "/usr/bin/" + name, nil
}

func TestResolveInterpreter(t *testing.T) {
	t.Parallel()

	path, err := pyenv.ResolveInterpreter(
		&fakeRunner{}, "python3",
	)

	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/python3", path)
}

func TestResolveInterpreter_missing(t *testing.T) {
	t.Parallel()

	_, err := pyenv.ResolveInterpreter(
		&fakeRunner{
			lookErr: errors.New("not found"),
		},
		"python3",
	)

	assert.ErrorContains(t, err, "python3")
}

func TestNew_records_interpreter_path(t *testing.T) {
	t.Parallel()

	en := pyenv.New(&fakeRunner{}, "/work/venv")

	assert.Equal(t, "/work/venv", en.Dir)
	assert.Equal(
		t, "/work/venv/bin/python", en.Python,
	)
}

func TestEnv_Exists(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "venv")
	en := pyenv.New(&fakeRunner{}, dir)

	assert.False(t, en.Exists())

	writeEnvInterpreter(t, dir)

	assert.True(t, en.Exists())
}

func TestEnv_Create_invokes_venv_module(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "venv")
	fr := &fakeRunner{}
	en := pyenv.New(fr, dir)

	err := en.Create(
		context.Background(), "/usr/bin/python3",
	)

	require.NoError(t, err)
	require.Len(t, fr.calls, 1)
	assert.Equal(t, "/usr/bin/python3", fr.calls[0].name)
	assert.Equal(
		t,
		[]string{"-m", "venv", dir},
		fr.calls[0].args,
	)
}

func TestEnv_Create_replaces_previous_content(
	t *testing.T,
) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "venv")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	stale := filepath.Join(dir, "stale.txt")
	err := os.WriteFile(stale, []byte("x"), 0o600)
	require.NoError(t, err)

	en := pyenv.New(&fakeRunner{}, dir)

	err = en.Create(
		context.Background(), "/usr/bin/python3",
	)
	require.NoError(t, err)

	_, statErr := os.Stat(stale)
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnv_Install_uses_env_interpreter(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "venv")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	req := filepath.Join(t.TempDir(), "requirements.txt")
	err := os.WriteFile(
		req, []byte("feedgen==1.0\n"), 0o600,
	)
	require.NoError(t, err)

	fr := &fakeRunner{}
	en := pyenv.New(fr, dir)

	err = en.Install(context.Background(), req)

	require.NoError(t, err)
	require.Len(t, fr.calls, 1)
	assert.Equal(t, en.Python, fr.calls[0].name)
	assert.Equal(
		t,
		[]string{"-m", "pip", "install", "-r", req},
		fr.calls[0].args,
	)
}

func TestEnv_UpToDate(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "venv")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	req := filepath.Join(t.TempDir(), "requirements.txt")
	err := os.WriteFile(
		req, []byte("feedgen==1.0\n"), 0o600,
	)
	require.NoError(t, err)

	en := pyenv.New(&fakeRunner{}, dir)

	// No interpreter on disk yet.
	assert.False(t, en.UpToDate(req))

	writeEnvInterpreter(t, dir)

	// Interpreter exists but no digest recorded.
	assert.False(t, en.UpToDate(req))

	require.NoError(
		t, en.Install(context.Background(), req),
	)
	assert.True(t, en.UpToDate(req))

	// Changing the requirements invalidates the
	// environment.
	err = os.WriteFile(
		req, []byte("feedgen==2.0\n"), 0o600,
	)
	require.NoError(t, err)
	assert.False(t, en.UpToDate(req))
}

func TestEnv_Inventory_parses_pip_json(t *testing.T) {
	t.Parallel()

	fr := &fakeRunner{
		out: `[
			{"name": "feedgen", "version": "1.0.0"},
			{"name": "jinja2", "version": "3.1.4"}
		]`,
	}
	en := pyenv.New(fr, "/work/venv")

	pkgs, err := en.Inventory(context.Background())

	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	assert.Equal(t, "feedgen", pkgs[0].Name)
	assert.Equal(t, "1.0.0", pkgs[0].Version)

	require.Len(t, fr.calls, 1)
	assert.Equal(
		t,
		[]string{"-m", "pip", "list", "--format=json"},
		fr.calls[0].args,
	)
}

func TestEnv_Inventory_bad_json(t *testing.T) {
	t.Parallel()

	fr := &fakeRunner{out: "not json"}
	en := pyenv.New(fr, "/work/venv")

	_, err := en.Inventory(context.Background())

	assert.ErrorContains(t, err, "parse json")
}

func TestEnv_RunScript(t *testing.T) {
	t.Parallel()

	fr := &fakeRunner{}
	en := pyenv.New(fr, "/work/venv")

	err := en.RunScript(
		context.Background(),
		"/work/scripts",
		"generate.py",
	)

	require.NoError(t, err)
	require.Len(t, fr.calls, 1)
	assert.Equal(t, "/work/scripts", fr.calls[0].dir)
	assert.Equal(t, en.Python, fr.calls[0].name)
	assert.Equal(
		t, []string{"generate.py"}, fr.calls[0].args,
	)
}

func TestEnv_RunScript_failure_propagates(t *testing.T) {
	t.Parallel()

	fr := &fakeRunner{err: errors.New("boom")}
	en := pyenv.New(fr, "/work/venv")

	err := en.RunScript(
		context.Background(), "", "generate.py",
	)

	assert.ErrorContains(t, err, "generation script")
}

func TestEnv_Remove(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "venv")
	require.NoError(t, os.MkdirAll(dir, 0o750))

	en := pyenv.New(&fakeRunner{}, dir)

	require.NoError(t, en.Remove())

	_, statErr := os.Stat(dir)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCalculateDigest_missing_file(t *testing.T) {
	t.Parallel()

	digest, err := pyenv.CalculateDigestForTest(
		filepath.Join(t.TempDir(), "nope.txt"),
	)

	require.NoError(t, err)
	assert.Empty(t, digest)
}

func TestCalculateDigest_stable(t *testing.T) {
	t.Parallel()

	fp := filepath.Join(t.TempDir(), "req.txt")
	err := os.WriteFile(fp, []byte("a==1\n"), 0o600)
	require.NoError(t, err)

	first, err := pyenv.CalculateDigestForTest(fp)
	require.NoError(t, err)

	second, err := pyenv.CalculateDigestForTest(fp)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

// writeEnvInterpreter fakes the venv layout well enough
// for Exists checks.
func writeEnvInterpreter(tb testing.TB, dir string) {
	tb.Helper()

	bin := filepath.Join(dir, "bin")
	require.NoError(tb, os.MkdirAll(bin, 0o750))

	err := os.WriteFile(
		filepath.Join(bin, "python"),
		[]byte("#!/bin/sh\n"),
		0o700, //nolint:gosec // fake interpreter
	)
	require.NoError(tb, err)
}
