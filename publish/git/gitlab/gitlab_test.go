package gitlab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	glprov "github.com/byte4ever/site_publisher/publish/git/gitlab"
)

func TestNewProvider_valid(t *testing.T) {
	t.Parallel()

	pv, err := glprov.NewProvider(glprov.Config{
		Repo:        "org/site",
		AccessToken: "tok",
	})

	require.NoError(t, err)
	assert.NotNil(t, pv)
}

func TestNewProvider_custom_host(t *testing.T) {
	t.Parallel()

	pv, err := glprov.NewProvider(glprov.Config{
		Host:        "https://gl.corp.example.com",
		Repo:        "org/site",
		AccessToken: "tok",
	})

	require.NoError(t, err)
	assert.NotNil(t, pv)
}

func TestNewProvider_missing_token(t *testing.T) {
	t.Parallel()

	pv, err := glprov.NewProvider(glprov.Config{
		Repo: "org/site",
	})

	assert.Nil(t, pv)
	assert.ErrorContains(t, err, "access token")
}

func TestNewProvider_missing_repo(t *testing.T) {
	t.Parallel()

	pv, err := glprov.NewProvider(glprov.Config{
		AccessToken: "tok",
	})

	assert.Nil(t, pv)
	assert.ErrorContains(t, err, "repo must be set")
}

func TestNewMergeRequestOptions_body_becomes_description(
	t *testing.T,
) {
	t.Parallel()

	opts := glprov.NewMergeRequestOptionsForTest(
		"publish", "master",
		"site update", "published 3 files",
		true,
	)

	require.NotNil(t, opts.SourceBranch)
	assert.Equal(t, "publish", *opts.SourceBranch)
	require.NotNil(t, opts.TargetBranch)
	assert.Equal(t, "master", *opts.TargetBranch)
	require.NotNil(t, opts.Title)
	assert.Equal(t, "site update", *opts.Title)
	require.NotNil(t, opts.Description)
	assert.Equal(
		t, "published 3 files", *opts.Description,
	)
	require.NotNil(t, opts.RemoveSourceBranch)
	assert.True(t, *opts.RemoveSourceBranch)
}

func TestNewMergeRequestOptions_empty_body_unset(
	t *testing.T,
) {
	t.Parallel()

	opts := glprov.NewMergeRequestOptionsForTest(
		"publish", "master", "site update", "",
		false,
	)

	assert.Nil(t, opts.Description)
	assert.Nil(t, opts.RemoveSourceBranch)
}
