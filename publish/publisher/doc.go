// Package publisher orchestrates the site publish workflow. Run verifies
// preconditions, provisions a disposable Python environment, runs the
// generation script inside it, and commits and pushes the regenerated
// content to the configured remote branch — guarded so that no commit is
// created unless the scope actually changed and the remote advertises the
// branch. An optional review flow opens a pull or merge request via a
// git.Provider after the push.
//
// The main entry point is Run, which accepts a Config struct with all
// parameters for the workflow. A run with nothing to publish returns
// ErrNoChanges.
package publisher
