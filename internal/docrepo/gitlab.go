package docrepo

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	gitlab "github.com/xanzy/go-gitlab"

	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/retry"
)

// GitLabClient opens merge requests via the GitLab REST API.
type GitLabClient struct {
	client *gitlab.Client
	policy retry.Policy
	host   string
	token  string
	log    *logrus.Logger
}

// NewGitLabClient creates a GitLabClient. An empty apiURL targets
// gitlab.com; an empty host defaults to "gitlab.com". A missing token is
// tolerated here and rejected at request time so server startup never fails
// on an optional credential.
func NewGitLabClient(token, apiURL, host string, policy retry.Policy, log *logrus.Logger) (*GitLabClient, error) {
	if host == "" {
		host = "gitlab.com"
	}
	if log == nil {
		log = logrus.New()
	}

	var opts []gitlab.ClientOptionFunc
	if apiURL != "" {
		opts = append(opts, gitlab.WithBaseURL(apiURL))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindConfiguration, "invalid GitLab API URL")
	}

	return &GitLabClient{
		client: client,
		policy: policy,
		host:   host,
		token:  token,
		log:    log,
	}, nil
}

// Supports reports whether the remote URL points at this client's host.
func (c *GitLabClient) Supports(remoteURL string) bool {
	return parseForgeRepo(remoteURL, c.host) != nil
}

// OpenPullRequest creates a merge request from branch into base.
func (c *GitLabClient) OpenPullRequest(ctx context.Context, remoteURL, branch, base, title, description string) (string, int, error) {
	if c.token == "" {
		return "", 0, errors.APIError(errors.KindAPIAuthFailed,
			"GitLab token not configured",
			"Set GITLAB_TOKEN to enable merge request creation")
	}

	repo := parseForgeRepo(remoteURL, c.host)
	if repo == nil {
		return "", 0, errors.APIError(errors.KindAPIRequestFailed,
			fmt.Sprintf("Cannot parse GitLab remote URL: %s", remoteURL), "")
	}
	projectID := repo.Owner + "/" + repo.Name

	var mr *gitlab.MergeRequest
	op := func() error {
		created, _, err := c.client.MergeRequests.CreateMergeRequest(projectID, &gitlab.CreateMergeRequestOptions{
			Title:        gitlab.Ptr(title),
			Description:  gitlab.Ptr(description),
			SourceBranch: gitlab.Ptr(branch),
			TargetBranch: gitlab.Ptr(base),
		}, gitlab.WithContext(ctx))
		if err != nil {
			return classifyGitLabError(err)
		}
		mr = created
		return nil
	}

	err := retry.Do(ctx, c.policy, c.log, op, func(err error) bool {
		kind := errors.GetKind(err)
		return kind == errors.KindAPIRateLimit || kind == errors.KindAPITimeout
	})
	if err != nil {
		return "", 0, err
	}

	return mr.WebURL, mr.IID, nil
}

func classifyGitLabError(err error) error {
	var errResp *gitlab.ErrorResponse
	if stderrors.As(err, &errResp) && errResp.Response != nil {
		switch status := errResp.Response.StatusCode; {
		case status == http.StatusUnauthorized:
			return errors.APIError(errors.KindAPIAuthFailed,
				"GitLab authentication failed", "Check that GITLAB_TOKEN is valid")
		case status == http.StatusTooManyRequests:
			return errors.APIError(errors.KindAPIRateLimit,
				"GitLab rate limit exceeded", errResp.Message)
		case status >= 500:
			return errors.APIError(errors.KindAPITimeout,
				fmt.Sprintf("GitLab server error (%d)", status), errResp.Message)
		default:
			return errors.APIError(errors.KindAPIRequestFailed,
				fmt.Sprintf("GitLab request failed (%d)", status), errResp.Message)
		}
	}
	return errors.APIError(errors.KindAPIRequestFailed,
		"GitLab request failed", err.Error())
}
