package commands

// ParseRemoteURL exports parseRemoteURL for testing.
var ParseRemoteURL = parseRemoteURL //nolint:gochecknoglobals // test export

// CommitMessage exports commitMessage for testing.
var CommitMessage = commitMessage //nolint:gochecknoglobals // test export

// PullRequestBody exports pullRequestBody for testing.
var PullRequestBody = pullRequestBody //nolint:gochecknoglobals // test export
