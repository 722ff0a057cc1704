package entities

// PullRequest is the subset of forge pull-request fields consumed by the
// update flow.
type PullRequest struct {
	Number     int64
	State      string
	Title      string
	Body       string
	HeadBranch string
	BaseBranch string
	URL        string
}

// PullRequestInput contains the data needed to open a pull request.
type PullRequestInput struct {
	HeadBranch string
	BaseBranch string
	Title      string
	Body       string
	AutoMerge  bool
}
