// Package github implements a git.Provider that opens pull requests on
// GitHub (cloud or enterprise) after a publish branch has been pushed.
// Configure with a Config containing the repository owner, name, and
// personal access token. Set EnterpriseHost for GitHub Enterprise
// installations.
package github
