package pyenv

// Exported hooks for testing internals from the
// pyenv_test package.

// CalculateDigestForTest exposes calculateDigest.
var CalculateDigestForTest = calculateDigest
