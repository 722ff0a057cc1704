package gitea

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/update-flake-inputs/internal/domain/entities"
	"github.com/rios0rios0/update-flake-inputs/internal/domain/repositories"
)

const (
	apiPrefix      = "/api/v1"
	requestTimeout = 30 * time.Second

	mergeMaxRetries = 5
	mergeRetryDelay = 2 * time.Second

	// mergeNotReadyMessage is the body the forge answers with while the
	// pull request cannot be scheduled for merging yet.
	mergeNotReadyMessage = "Please try again later"
)

// GiteaForgeRepository implements repositories.ForgeRepository against the
// Gitea REST API, scoped to a single repository.
type GiteaForgeRepository struct {
	baseURL    string
	token      string
	repo       entities.Repository
	httpClient *http.Client
	retryDelay time.Duration
}

// NewGiteaForgeRepository creates a Gitea client for one repository. The
// server URL may be given with or without a trailing slash.
func NewGiteaForgeRepository(
	giteaURL, token string,
	repo entities.Repository,
) repositories.ForgeRepository {
	return &GiteaForgeRepository{
		baseURL: strings.TrimSuffix(giteaURL, "/"),
		token:   token,
		repo:    repo,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		retryDelay: mergeRetryDelay,
	}
}

type giteaUser struct {
	Login string `json:"login"`
}

type giteaPermissions struct {
	Admin bool `json:"admin"`
	Push  bool `json:"push"`
	Pull  bool `json:"pull"`
}

type giteaRepository struct {
	FullName    string           `json:"full_name"`
	Permissions giteaPermissions `json:"permissions"`
}

type giteaBranch struct {
	Name   string `json:"name"`
	Commit struct {
		ID string `json:"id"`
	} `json:"commit"`
}

type giteaRef struct {
	Ref string `json:"ref"`
}

type giteaPullRequest struct {
	Number  int64    `json:"number"`
	State   string   `json:"state"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	HTMLURL string   `json:"html_url"`
	Head    giteaRef `json:"head"`
	Base    giteaRef `json:"base"`
}

func (p giteaPullRequest) toEntity() entities.PullRequest {
	return entities.PullRequest{
		Number:     p.Number,
		State:      p.State,
		Title:      p.Title,
		Body:       p.Body,
		HeadBranch: p.Head.Ref,
		BaseBranch: p.Base.Ref,
		URL:        p.HTMLURL,
	}
}

type createBranchRequest struct {
	NewBranchName string `json:"new_branch_name"`
	OldBranchName string `json:"old_branch_name"`
}

type createPullRequestRequest struct {
	Base  string `json:"base"`
	Head  string `json:"head"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

type mergeRequest struct {
	Do                     string `json:"Do"`
	MergeWhenChecksSucceed bool   `json:"merge_when_checks_succeed"`
	DeleteBranchAfterMerge bool   `json:"delete_branch_after_merge"`
}

// VerifyAuth resolves the authenticated user via GET /user. A rejected
// credential propagates; the follow-up repository-permission lookup is a
// diagnostic only and its failure is logged, not returned.
func (r *GiteaForgeRepository) VerifyAuth(ctx context.Context) (*entities.User, error) {
	body, err := r.doRequest(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	var user giteaUser
	if unmarshalErr := json.Unmarshal(body, &user); unmarshalErr != nil {
		return nil, &entities.APIError{
			Message: fmt.Sprintf("malformed user response: %v", unmarshalErr),
			Err:     unmarshalErr,
		}
	}

	logger.Infof("Authenticated as user: %s", user.Login)
	r.logRepositoryPermissions(ctx)

	return &entities.User{Login: user.Login}, nil
}

func (r *GiteaForgeRepository) logRepositoryPermissions(ctx context.Context) {
	endpoint := fmt.Sprintf("/repos/%s/%s", r.repo.Owner, r.repo.Name)

	body, err := r.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		logger.Warnf("Failed to check repository access for %s: %v", r.repo.FullName(), err)
		return
	}

	var info giteaRepository
	if unmarshalErr := json.Unmarshal(body, &info); unmarshalErr != nil {
		logger.Warnf("Malformed repository response for %s: %v", r.repo.FullName(), unmarshalErr)
		return
	}

	logger.Infof(
		"Repository %s - permissions: admin=%t push=%t pull=%t",
		r.repo.FullName(),
		info.Permissions.Admin, info.Permissions.Push, info.Permissions.Pull,
	)
}

// GetBranch fetches one branch. 404 means the branch is simply absent and
// yields (nil, nil); every other failure surfaces.
func (r *GiteaForgeRepository) GetBranch(
	ctx context.Context,
	name string,
) (*entities.Branch, error) {
	endpoint := fmt.Sprintf(
		"/repos/%s/%s/branches/%s",
		r.repo.Owner, r.repo.Name, url.PathEscape(name),
	)

	body, err := r.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		var apiErr *entities.APIError
		if errors.As(err, &apiErr) && apiErr.IsNotFound() {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get branch %s: %w", name, err)
	}

	var branch giteaBranch
	if unmarshalErr := json.Unmarshal(body, &branch); unmarshalErr != nil {
		return nil, &entities.APIError{
			Message: fmt.Sprintf("malformed branch response: %v", unmarshalErr),
			Err:     unmarshalErr,
		}
	}

	return &entities.Branch{Name: branch.Name, SHA: branch.Commit.ID}, nil
}

// CreateBranch creates name from base's current head. The branch is queried
// fresh immediately before use; an existing one is deleted first, with a
// deletion failure logged rather than propagated.
func (r *GiteaForgeRepository) CreateBranch(ctx context.Context, name, base string) error {
	existing, err := r.GetBranch(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to check branch %s: %w", name, err)
	}
	if existing != nil {
		logger.Infof("Branch %s already exists, recreating it from %s", name, base)
		if deleteErr := r.DeleteBranch(ctx, name); deleteErr != nil {
			logger.Warnf("Failed to delete existing branch %s: %v", name, deleteErr)
		}
	}

	endpoint := fmt.Sprintf("/repos/%s/%s/branches", r.repo.Owner, r.repo.Name)
	payload := createBranchRequest{NewBranchName: name, OldBranchName: base}

	if _, createErr := r.doRequest(ctx, http.MethodPost, endpoint, payload); createErr != nil {
		return fmt.Errorf("failed to create branch %s from %s: %w", name, base, createErr)
	}

	logger.Infof("Created branch %s from %s", name, base)
	return nil
}

// DeleteBranch removes a remote branch.
func (r *GiteaForgeRepository) DeleteBranch(ctx context.Context, name string) error {
	endpoint := fmt.Sprintf(
		"/repos/%s/%s/branches/%s",
		r.repo.Owner, r.repo.Name, url.PathEscape(name),
	)

	if _, err := r.doRequest(ctx, http.MethodDelete, endpoint, nil); err != nil {
		return fmt.Errorf("failed to delete branch %s: %w", name, err)
	}
	return nil
}

// FindOpenPullRequest lists the open pull requests and returns the one for
// the head/base pair, or (nil, nil) when there is none.
func (r *GiteaForgeRepository) FindOpenPullRequest(
	ctx context.Context,
	head, base string,
) (*entities.PullRequest, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/pulls?state=open", r.repo.Owner, r.repo.Name)

	body, err := r.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list open pull requests: %w", err)
	}

	var pulls []giteaPullRequest
	if unmarshalErr := json.Unmarshal(body, &pulls); unmarshalErr != nil {
		return nil, &entities.APIError{
			Message: fmt.Sprintf("malformed pull request list: %v", unmarshalErr),
			Err:     unmarshalErr,
		}
	}

	for _, pull := range pulls {
		if pull.Head.Ref == head && pull.Base.Ref == base {
			pr := pull.toEntity()
			return &pr, nil
		}
	}

	return nil, nil
}

// CreatePullRequest opens a pull request idempotently: an open request for
// the same head/base pair short-circuits, and a 409 from creation is treated
// as success. With AutoMerge set, a successful creation schedules the merge;
// an auto-merge failure is logged because the request itself was created.
func (r *GiteaForgeRepository) CreatePullRequest(
	ctx context.Context,
	input entities.PullRequestInput,
) error {
	existing, err := r.FindOpenPullRequest(ctx, input.HeadBranch, input.BaseBranch)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.Infof(
			"Pull request already exists for branch: %s (#%d)",
			input.HeadBranch, existing.Number,
		)
		return nil
	}

	endpoint := fmt.Sprintf("/repos/%s/%s/pulls", r.repo.Owner, r.repo.Name)
	payload := createPullRequestRequest{
		Base:  input.BaseBranch,
		Head:  input.HeadBranch,
		Title: input.Title,
		Body:  input.Body,
	}

	body, createErr := r.doRequest(ctx, http.MethodPost, endpoint, payload)
	if createErr != nil {
		var apiErr *entities.APIError
		if errors.As(createErr, &apiErr) && apiErr.IsConflict() {
			logger.Infof("Pull request already exists for branch: %s", input.HeadBranch)
			return nil
		}
		return fmt.Errorf("failed to create pull request for %s: %w", input.HeadBranch, createErr)
	}

	var pr giteaPullRequest
	if unmarshalErr := json.Unmarshal(body, &pr); unmarshalErr != nil {
		return &entities.APIError{
			Message: fmt.Sprintf("malformed pull request response: %v", unmarshalErr),
			Err:     unmarshalErr,
		}
	}

	logger.Infof("Created pull request #%d: %s", pr.Number, pr.HTMLURL)

	if input.AutoMerge {
		if mergeErr := r.MergeWhenChecksSucceed(ctx, pr.Number); mergeErr != nil {
			logger.Errorf("Failed to auto-merge pull request #%d: %v", pr.Number, mergeErr)
		}
	}

	return nil
}

// MergeWhenChecksSucceed schedules a merge that the forge performs once the
// required checks pass, deleting the branch afterwards. "Not ready yet"
// answers and API errors are retried on a fixed backoff; exhausting the
// budget surfaces the failure.
func (r *GiteaForgeRepository) MergeWhenChecksSucceed(ctx context.Context, prNumber int64) error {
	endpoint := fmt.Sprintf("/repos/%s/%s/pulls/%d/merge", r.repo.Owner, r.repo.Name, prNumber)
	payload := mergeRequest{
		Do:                     "merge",
		MergeWhenChecksSucceed: true,
		DeleteBranchAfterMerge: true,
	}

	var lastErr error
	for attempt := 0; attempt < mergeMaxRetries; attempt++ {
		body, err := r.doRequest(ctx, http.MethodPost, endpoint, payload)
		if err != nil {
			lastErr = err
			if attempt == mergeMaxRetries-1 {
				return fmt.Errorf("failed to merge pull request #%d: %w", prNumber, err)
			}
			logger.Info("Merge request failed, retrying...")
			r.sleep(ctx)
			continue
		}

		if mergeNotReady(body) {
			if attempt < mergeMaxRetries-1 {
				logger.Infof("Merge not ready, retrying in %s...", r.retryDelay)
				r.sleep(ctx)
				continue
			}
			return &entities.ForgeError{Message: "max retries reached for merge", Err: lastErr}
		}

		logger.Infof("Pull request #%d merge initiated", prNumber)
		return nil
	}

	return &entities.ForgeError{Message: "max retries reached for merge", Err: lastErr}
}

// mergeNotReady reports whether the merge endpoint answered with the
// transient "not ready" message instead of accepting the request.
func mergeNotReady(body []byte) bool {
	if len(body) == 0 {
		return false
	}

	var response struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return false
	}
	return response.Message == mergeNotReadyMessage
}

func (r *GiteaForgeRepository) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(r.retryDelay):
	}
}

func (r *GiteaForgeRepository) doRequest(
	ctx context.Context,
	method, endpoint string,
	body interface{},
) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	requestURL := r.baseURL + apiPrefix + endpoint
	req, err := http.NewRequestWithContext(ctx, method, requestURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "token "+r.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, &entities.APIError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &entities.APIError{
			Message: fmt.Sprintf("failed to read response: %v", err),
			Err:     err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &entities.APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(respBody)),
		}
	}

	return respBody, nil
}
