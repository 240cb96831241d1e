// Package config resolves the publish run configuration once at startup.
// Each value falls back through the same chain: explicit override (flag or
// PUBLISH_* environment variable), then the optional publish.yaml file, then
// pre-existing git configuration for the author identity, then a hard
// default. Resolution is deterministic and side-effect-free; the resolved
// values are echoed before any mutating action happens.
package config
