package docrepo

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/retry"
)

// GitHubClient opens pull requests via the GitHub REST API.
type GitHubClient struct {
	client  *github.Client
	limiter *rate.Limiter
	policy  retry.Policy
	host    string
	token   string
	log     *logrus.Logger
}

// NewGitHubClient creates a GitHubClient. An empty apiURL targets
// github.com; otherwise the client is pointed at an enterprise instance.
// An empty host defaults to "github.com".
func NewGitHubClient(token, apiURL, host string, rateLimit int, policy retry.Policy, log *logrus.Logger) (*GitHubClient, error) {
	if host == "" {
		host = "github.com"
	}
	if rateLimit <= 0 {
		rateLimit = 10
	}
	if log == nil {
		log = logrus.New()
	}

	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if apiURL != "" {
		enterprise, err := client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return nil, errors.Wrap(err, errors.KindConfiguration, "invalid GitHub API URL")
		}
		client = enterprise
	}

	return &GitHubClient{
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		policy:  policy,
		host:    host,
		token:   token,
		log:     log,
	}, nil
}

// Supports reports whether the remote URL points at this client's host.
func (c *GitHubClient) Supports(remoteURL string) bool {
	return parseForgeRepo(remoteURL, c.host) != nil
}

// OpenPullRequest creates a pull request from branch into base. Transient
// failures (rate limits, 5xx) are retried with backoff.
func (c *GitHubClient) OpenPullRequest(ctx context.Context, remoteURL, branch, base, title, description string) (string, int, error) {
	if c.token == "" {
		return "", 0, errors.APIError(errors.KindAPIAuthFailed,
			"GitHub token not configured",
			"Set GITHUB_TOKEN to enable pull request creation")
	}

	repo := parseForgeRepo(remoteURL, c.host)
	if repo == nil {
		return "", 0, errors.APIError(errors.KindAPIRequestFailed,
			fmt.Sprintf("Cannot parse GitHub remote URL: %s", remoteURL), "")
	}

	var pr *github.PullRequest
	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		created, _, err := c.client.PullRequests.Create(ctx, repo.Owner, repo.Name, &github.NewPullRequest{
			Title: github.String(title),
			Body:  github.String(description),
			Head:  github.String(branch),
			Base:  github.String(base),
		})
		if err != nil {
			return classifyGitHubError(err)
		}
		pr = created
		return nil
	}

	err := retry.Do(ctx, c.policy, c.log, op, func(err error) bool {
		kind := errors.GetKind(err)
		return kind == errors.KindAPIRateLimit || kind == errors.KindAPITimeout
	})
	if err != nil {
		return "", 0, err
	}

	return pr.GetHTMLURL(), pr.GetNumber(), nil
}

// classifyGitHubError maps API failures onto the error kinds callers branch
// on for retry decisions.
func classifyGitHubError(err error) error {
	var errResp *github.ErrorResponse
	if stderrors.As(err, &errResp) && errResp.Response != nil {
		switch status := errResp.Response.StatusCode; {
		case status == http.StatusUnauthorized:
			return errors.APIError(errors.KindAPIAuthFailed,
				"GitHub authentication failed", "Check that GITHUB_TOKEN is valid")
		case status == http.StatusForbidden || status == http.StatusTooManyRequests:
			return errors.APIError(errors.KindAPIRateLimit,
				"GitHub rate limit exceeded", errResp.Message)
		case status >= 500:
			return errors.APIError(errors.KindAPITimeout,
				fmt.Sprintf("GitHub server error (%d)", status), errResp.Message)
		default:
			return errors.APIError(errors.KindAPIRequestFailed,
				fmt.Sprintf("GitHub request failed (%d)", status), errResp.Message)
		}
	}
	var rateErr *github.RateLimitError
	if stderrors.As(err, &rateErr) {
		return errors.APIError(errors.KindAPIRateLimit,
			"GitHub rate limit exceeded", rateErr.Message)
	}
	return errors.APIError(errors.KindAPIRequestFailed,
		"GitHub request failed", err.Error())
}

// forgeRepo is an owner/name pair parsed from a remote URL.
type forgeRepo struct {
	Owner string
	Name  string
}

// parseForgeRepo extracts owner and repository name from SSH
// (git@host:owner/repo.git) and HTTPS (https://host/owner/repo.git) remote
// URLs for the given host. Remotes with nested groups or missing segments
// return nil.
func parseForgeRepo(remoteURL, host string) *forgeRepo {
	remoteURL = strings.TrimSpace(remoteURL)

	var path string
	switch {
	case strings.HasPrefix(remoteURL, "git@"+host+":"):
		path = strings.TrimPrefix(remoteURL, "git@"+host+":")
	case strings.HasPrefix(remoteURL, "https://"+host+"/"):
		path = strings.TrimPrefix(remoteURL, "https://"+host+"/")
	case strings.HasPrefix(remoteURL, "http://"+host+"/"):
		path = strings.TrimPrefix(remoteURL, "http://"+host+"/")
	case strings.HasPrefix(remoteURL, "ssh://git@"+host+"/"):
		path = strings.TrimPrefix(remoteURL, "ssh://git@"+host+"/")
	default:
		return nil
	}

	path = strings.TrimSuffix(path, ".git")
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil
	}
	return &forgeRepo{Owner: parts[0], Name: parts[1]}
}
