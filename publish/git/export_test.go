package git

// Exported hooks for testing internals from the
// git_test package.

// PathspecForTest exposes Scope.pathspec.
func (s Scope) PathspecForTest() []string {
	return s.pathspec()
}
