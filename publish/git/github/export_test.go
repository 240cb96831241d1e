package github

var NewPullRequestForTest = newPullRequest
