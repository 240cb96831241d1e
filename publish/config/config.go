package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
)

// Hard defaults, used when no other source provides a
// value.
const (
	DefaultPython       = "python3"
	DefaultRemote       = "origin"
	DefaultBranch       = "master"
	DefaultAuthorName   = "site publisher"
	DefaultAuthorEmail  = "<>"
	DefaultMessage      = "regenerate site"
	DefaultEnvDir       = "venv"
	DefaultRequirements = "requirements.txt"
	DefaultScript       = "generate.py"
	DefaultOutputDir    = "../site"
)

// Environment variable names recognised as overrides.
const (
	EnvPython       = "PUBLISH_PYTHON"
	EnvRemote       = "PUBLISH_REMOTE"
	EnvBranch       = "PUBLISH_BRANCH"
	EnvAuthorName   = "PUBLISH_AUTHOR_NAME"
	EnvAuthorEmail  = "PUBLISH_AUTHOR_EMAIL"
	EnvMessage      = "PUBLISH_MESSAGE"
	EnvCommitAll    = "PUBLISH_COMMIT_ALL"
	EnvEnvDir       = "PUBLISH_ENV_DIR"
	EnvRequirements = "PUBLISH_REQUIREMENTS"
	EnvScript       = "PUBLISH_SCRIPT"
	EnvOutputDir    = "PUBLISH_OUTPUT_DIR"
)

// Config is the fully resolved configuration for one
// publish run. It is populated once at startup and
// passed through the pipeline; no step reads the
// environment afterwards.
type Config struct {
	// Python is the interpreter used to provision
	// the environment.
	Python string

	// Remote is the git remote pushed to.
	Remote string

	// Branch is the branch committed to and pushed.
	Branch string

	// AuthorName is the commit author name.
	AuthorName string

	// AuthorEmail is the commit author email.
	AuthorEmail string

	// Message is the commit subject. {VAR}
	// placeholders are expanded at commit time.
	Message string

	// CommitAll selects the whole repository as the
	// commit scope; false restricts to OutputDir.
	CommitAll bool

	// EnvDir is where the disposable environment
	// lives, relative to the working directory.
	EnvDir string

	// Requirements is the dependency declarations
	// file installed into the environment.
	Requirements string

	// Script is the generation entry point.
	Script string

	// OutputDir is the generated content tree,
	// relative to the working directory.
	OutputDir string
}

// Overrides carries explicit values from flags or
// environment variables. These beat every other source.
// Empty strings mean unset; CommitAll holds the raw
// "true"/"false" text so that unset and false are
// distinguishable.
type Overrides struct {
	Python       string
	Remote       string
	Branch       string
	AuthorName   string
	AuthorEmail  string
	Message      string
	CommitAll    string
	EnvDir       string
	Requirements string
	Script       string
	OutputDir    string
}

// File is the optional publish.yaml configuration
// layer, consulted after explicit overrides and before
// git configuration and defaults.
type File struct {
	Python       string `yaml:"python"`
	Remote       string `yaml:"remote"`
	Branch       string `yaml:"branch"`
	AuthorName   string `yaml:"author_name"`
	AuthorEmail  string `yaml:"author_email"`
	Message      string `yaml:"message"`
	CommitAll    *bool  `yaml:"commit_all"`
	EnvDir       string `yaml:"env_dir"`
	Requirements string `yaml:"requirements"`
	Script       string `yaml:"script"`
	OutputDir    string `yaml:"output_dir"`
}

// FromEnv reads the PUBLISH_* override variables using
// the given lookup. Read-only and deterministic.
func FromEnv(getenv func(string) string) Overrides {
	return Overrides{
		Python:       getenv(EnvPython),
		Remote:       getenv(EnvRemote),
		Branch:       getenv(EnvBranch),
		AuthorName:   getenv(EnvAuthorName),
		AuthorEmail:  getenv(EnvAuthorEmail),
		Message:      getenv(EnvMessage),
		CommitAll:    getenv(EnvCommitAll),
		EnvDir:       getenv(EnvEnvDir),
		Requirements: getenv(EnvRequirements),
		Script:       getenv(EnvScript),
		OutputDir:    getenv(EnvOutputDir),
	}
}

// LoadFile reads a publish.yaml configuration file. A
// missing file is not an error and yields an empty
// layer.
func LoadFile(path string) (File, error) {
	const errCtx = "loading config file"

	var fl File

	data, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if errors.Is(err, os.ErrNotExist) {
		return fl, nil
	}

	if err != nil {
		return fl, fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	if err := yaml.Unmarshal(data, &fl); err != nil {
		return fl, fmt.Errorf(
			"%s: parse %s: %w", errCtx, path, err,
		)
	}

	return fl, nil
}

// Resolve merges the sources into a Config. Per value
// the order is: explicit override, config file, git
// configuration (identity only), hard default.
// gitConfig must be a read-only lookup returning empty
// for unset keys; pass a stub in tests.
func Resolve(
	ov Overrides,
	fl File,
	gitConfig func(key string) string,
) (Config, error) {
	const errCtx = "resolving configuration"

	pick := func(vals ...string) string {
		for _, v := range vals {
			if v != "" {
				return v
			}
		}

		return ""
	}

	commitAll := true

	switch {
	case ov.CommitAll != "":
		parsed, err := strconv.ParseBool(ov.CommitAll)
		if err != nil {
			return Config{}, fmt.Errorf(
				"%s: commit_all must be a boolean, "+
					"got %q: %w",
				errCtx, ov.CommitAll, err,
			)
		}

		commitAll = parsed
	case fl.CommitAll != nil:
		commitAll = *fl.CommitAll
	}

	return Config{
		Python: pick(
			ov.Python, fl.Python, DefaultPython,
		),
		Remote: pick(
			ov.Remote, fl.Remote, DefaultRemote,
		),
		Branch: pick(
			ov.Branch, fl.Branch, DefaultBranch,
		),
		AuthorName: pick(
			ov.AuthorName,
			fl.AuthorName,
			gitConfig("user.name"),
			DefaultAuthorName,
		),
		AuthorEmail: pick(
			ov.AuthorEmail,
			fl.AuthorEmail,
			gitConfig("user.email"),
			DefaultAuthorEmail,
		),
		Message: pick(
			ov.Message, fl.Message, DefaultMessage,
		),
		CommitAll: commitAll,
		EnvDir: pick(
			ov.EnvDir, fl.EnvDir, DefaultEnvDir,
		),
		Requirements: pick(
			ov.Requirements,
			fl.Requirements,
			DefaultRequirements,
		),
		Script: pick(
			ov.Script, fl.Script, DefaultScript,
		),
		OutputDir: pick(
			ov.OutputDir,
			fl.OutputDir,
			DefaultOutputDir,
		),
	}, nil
}

// Echo logs every resolved value. Called once before
// any mutating action so that runs are auditable.
func (c Config) Echo() {
	slog.Info(
		"resolved configuration",
		"python", c.Python,
		"remote", c.Remote,
		"branch", c.Branch,
		"author_name", c.AuthorName,
		"author_email", c.AuthorEmail,
		"message", c.Message,
		"commit_all", c.CommitAll,
		"env_dir", c.EnvDir,
		"requirements", c.Requirements,
		"script", c.Script,
		"output_dir", c.OutputDir,
	)
}
