package pyenv

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// digestFile is the sidecar inside the environment
// directory that records which requirements file
// content the environment was installed from.
const digestFile = "requirements.digest"

// UpToDate reports whether the environment exists and
// was installed from the current content of the
// requirements file.
func (e *Env) UpToDate(requirements string) bool {
	if !e.Exists() {
		return false
	}

	calc, err := calculateDigest(requirements)
	if err != nil || calc == "" {
		return false
	}

	stored, err := e.storedDigest()
	if err != nil || stored == "" {
		return false
	}

	return calc == stored
}

// saveDigest records the requirements digest in the
// environment directory.
func (e *Env) saveDigest(requirements string) error {
	const errCtx = "saving requirements digest"

	digest, err := calculateDigest(requirements)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	dp := filepath.Join(e.Dir, digestFile)

	if err := os.WriteFile(
		dp, []byte(digest), 0o600,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// storedDigest reads the recorded digest. Returns empty
// string with no error if the sidecar file does not
// exist.
func (e *Env) storedDigest() (string, error) {
	const errCtx = "reading stored digest"

	dp := filepath.Join(e.Dir, digestFile)

	if _, err := os.Stat(dp); errors.Is(
		err, os.ErrNotExist,
	) {
		return "", nil
	}

	digest, err := os.ReadFile(dp) //nolint:gosec // path is env-owned
	if err != nil {
		return "", fmt.Errorf(
			"%s: %w", errCtx, err,
		)
	}

	return string(digest), nil
}

// calculateDigest computes the SHA256 hex digest of the
// file at path. Returns empty string with no error if
// the file does not exist.
func calculateDigest(
	path string,
) (result string, retErr error) {
	const errCtx = "calculating digest"

	if _, err := os.Stat(path); errors.Is(
		err, os.ErrNotExist,
	) {
		return "", nil
	}

	fi, err := os.Open(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	defer func() {
		if closeErr := fi.Close(); closeErr != nil && retErr == nil {
			retErr = fmt.Errorf("%s: %w", errCtx, closeErr)
		}
	}()

	ha := sha256.New()

	if _, err := io.Copy(ha, fi); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return hex.EncodeToString(ha.Sum(nil)), nil
}
