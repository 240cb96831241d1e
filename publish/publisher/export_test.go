package publisher

// Exported aliases for testing internal functions from
// the publisher_test package.

// AnchorForTest exposes anchor.
var AnchorForTest = anchor

// RepoRelForTest exposes repoRel.
var RepoRelForTest = repoRel

// MessageVarsForTest exposes messageVars.
var MessageVarsForTest = messageVars

// ResolveScopeForTest exposes resolveScope.
var ResolveScopeForTest = resolveScope
