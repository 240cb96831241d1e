package commitmsg_test

import (
	"testing"

	"github.com/byte4ever/site_publisher/publish/commitmsg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject_expands_placeholders(t *testing.T) {
	t.Parallel()

	got := commitmsg.Subject(
		"regenerate {SCOPE} on {BRANCH}",
		map[string]interface{}{
			"BRANCH": "master",
			"SCOPE":  "site",
		},
	)

	assert.Equal(t, "regenerate site on master", got)
}

func TestSubject_preserves_unknown_vars(t *testing.T) {
	t.Parallel()

	got := commitmsg.Subject(
		"update {UNKNOWN}",
		map[string]interface{}{},
	)

	assert.Equal(t, "update {UNKNOWN}", got)
}

func TestSubject_plain_message(t *testing.T) {
	t.Parallel()

	got := commitmsg.Subject(
		"regenerate site",
		map[string]interface{}{"BRANCH": "master"},
	)

	assert.Equal(t, "regenerate site", got)
}

func TestCompose_produces_markers(t *testing.T) {
	t.Parallel()

	paths := []string{"site/index.html", "site/feed.xml"}
	msg := commitmsg.Compose("regenerate site", paths)

	assert.Contains(t, msg, "regenerate site")
	assert.Contains(t, msg, "--- published paths begin ---")
	assert.Contains(t, msg, "--- published paths end ---")
	assert.Contains(t, msg, "site/index.html")
	assert.Contains(t, msg, "site/feed.xml")
}

func TestExtractPaths_roundtrip(t *testing.T) {
	t.Parallel()

	paths := []string{"a.html", "b.html"}
	msg := commitmsg.Compose("publish", paths)
	got := commitmsg.ExtractPaths(msg)

	require.Equal(t, paths, got)
}

func TestExtractPaths_no_markers(t *testing.T) {
	t.Parallel()

	got := commitmsg.ExtractPaths(
		"just a regular commit message",
	)

	assert.Empty(t, got)
}

func TestExtractPaths_missing_end_marker(t *testing.T) {
	t.Parallel()

	msg := "--- published paths begin ---\na.html\n"
	got := commitmsg.ExtractPaths(msg)

	assert.Empty(t, got)
}
