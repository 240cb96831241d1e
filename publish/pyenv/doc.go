// Package pyenv manages the disposable Python environment the generation
// step runs in. The environment records its own interpreter path, so every
// install and script invocation is explicit about which Python it uses —
// there is no activation state. A requirements digest sidecar lets callers
// detect whether an existing environment can be reused instead of being
// rebuilt from scratch.
package pyenv
