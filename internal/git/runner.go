// Package git executes the git binary as a subprocess and exposes thin typed
// wrappers over the plumbing commands the tool servers need. No call retries
// internally; timeouts and non-zero exits surface as the same error kind.
package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docscopilot/docscopilot/internal/errors"
)

// DefaultTimeout bounds each git subprocess.
const DefaultTimeout = 30 * time.Second

// CommitRecord holds the parsed output of git show for one commit.
type CommitRecord struct {
	Hash    string `json:"hash"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Runner executes git commands against repositories under a workspace root.
type Runner struct {
	workspaceRoot string
	binary        string
	timeout       time.Duration
	log           *logrus.Logger
}

// NewRunner creates a Runner. An empty binary defaults to "git"; a zero
// timeout defaults to DefaultTimeout.
func NewRunner(workspaceRoot, binary string, timeout time.Duration, log *logrus.Logger) *Runner {
	if binary == "" {
		binary = "git"
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.New()
	}
	return &Runner{
		workspaceRoot: workspaceRoot,
		binary:        binary,
		timeout:       timeout,
		log:           log,
	}
}

// WorkspaceRoot returns the root directory repositories are resolved under.
func (r *Runner) WorkspaceRoot() string {
	return r.workspaceRoot
}

// Run executes a git command in repoPath and returns trimmed stdout.
func (r *Runner) Run(ctx context.Context, repoPath string, args ...string) (string, error) {
	if _, err := os.Stat(repoPath); err != nil {
		return "", errors.RepositoryNotFoundError(
			fmt.Sprintf("Repository not found: %s", repoPath),
			fmt.Sprintf("Ensure the repository exists in workspace: %s", r.workspaceRoot))
	}

	// A .git directory in the path or its parent marks a working tree.
	gitDir := filepath.Join(repoPath, ".git")
	parentGitDir := filepath.Join(filepath.Dir(repoPath), ".git")
	if _, err := os.Stat(gitDir); err != nil {
		if _, err := os.Stat(parentGitDir); err != nil {
			return "", errors.RepositoryNotFoundError(
				fmt.Sprintf("Not a git repository: %s", repoPath),
				"Path does not contain a .git directory")
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = repoPath

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.log.WithFields(logrus.Fields{"repo": repoPath, "args": args}).Debug("running git command")

	err := cmd.Run()
	if err != nil {
		// Timeout and non-zero exit share one kind; callers do not
		// distinguish them for retry purposes.
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.GitCommandError(
				fmt.Sprintf("Git command timed out: %s %s", r.binary, strings.Join(args, " ")),
				fmt.Sprintf("Command exceeded %s timeout", r.timeout))
		}
		return "", errors.GitCommandError(
			fmt.Sprintf("Git command failed: %s %s", r.binary, strings.Join(args, " ")),
			fmt.Sprintf("Error: %v, Stderr: %s", err, strings.TrimSpace(stderr.String())))
	}

	return strings.TrimSpace(stdout.String()), nil
}

// LogGrep returns the hashes of all commits whose message matches pattern.
// Callers are expected to sanitize pattern first.
func (r *Runner) LogGrep(ctx context.Context, repoPath, pattern string) ([]string, error) {
	out, err := r.Run(ctx, repoPath, "log", "--grep", pattern, "--format=%H", "--all")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// CommitInfo returns hash, subject and body for one commit.
func (r *Runner) CommitInfo(ctx context.Context, repoPath, commitHash string) (CommitRecord, error) {
	out, err := r.Run(ctx, repoPath, "show", "-s", "--format=%H|%s|%b", commitHash)
	if err != nil {
		return CommitRecord{}, err
	}

	record := CommitRecord{Hash: commitHash}
	parts := strings.SplitN(out, "|", 3)
	if len(parts) > 0 {
		record.Hash = parts[0]
	}
	if len(parts) > 1 {
		record.Subject = parts[1]
	}
	if len(parts) > 2 {
		record.Body = parts[2]
	}
	return record, nil
}

// BranchesContaining lists branches containing a commit, with current-branch
// markers and remotes/ prefixes stripped.
func (r *Runner) BranchesContaining(ctx context.Context, repoPath, commitHash string) ([]string, error) {
	out, err := r.Run(ctx, repoPath, "branch", "-a", "--contains", commitHash)
	if err != nil {
		return nil, err
	}
	var branches []string
	for _, line := range nonEmptyLines(out) {
		line = strings.Replace(line, "* ", "", 1)
		line = strings.Replace(line, "remotes/", "", 1)
		branches = append(branches, line)
	}
	return branches, nil
}

// TagsContaining lists tags containing a commit.
func (r *Runner) TagsContaining(ctx context.Context, repoPath, commitHash string) ([]string, error) {
	out, err := r.Run(ctx, repoPath, "tag", "--contains", commitHash)
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// DiffFiles returns the paths changed between base and head.
func (r *Runner) DiffFiles(ctx context.Context, repoPath, base, head string) ([]string, error) {
	out, err := r.Run(ctx, repoPath, "diff", "--name-only", base+".."+head)
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// Diff returns the unified diff between base and head.
func (r *Runner) Diff(ctx context.Context, repoPath, base, head string) (string, error) {
	return r.Run(ctx, repoPath, "diff", base+".."+head)
}

// LogFiles returns the union of files touched by commits whose message
// matches pattern, sorted and deduplicated.
func (r *Runner) LogFiles(ctx context.Context, repoPath, pattern string) ([]string, error) {
	out, err := r.Run(ctx, repoPath,
		"log", "--grep", pattern, "--oneline", "--name-only", "--format=", "--all")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, line := range nonEmptyLines(out) {
		if strings.HasPrefix(line, "commit") {
			continue
		}
		seen[line] = true
	}
	return sortedKeys(seen), nil
}

// LsFiles lists tracked files matching a glob, relative to the repo root.
func (r *Runner) LsFiles(ctx context.Context, repoPath, pattern string) ([]string, error) {
	out, err := r.Run(ctx, repoPath, "ls-files", pattern)
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// RemoteURL returns the URL of the origin remote.
func (r *Runner) RemoteURL(ctx context.Context, repoPath string) (string, error) {
	return r.Run(ctx, repoPath, "config", "--get", "remote.origin.url")
}

// AllBranches lists local and remote branch names.
func (r *Runner) AllBranches(ctx context.Context, repoPath string) ([]string, error) {
	out, err := r.Run(ctx, repoPath, "branch", "-a", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	return nonEmptyLines(out), nil
}

// CreateBranch creates and checks out a new branch.
func (r *Runner) CreateBranch(ctx context.Context, repoPath, branchName string) error {
	_, err := r.Run(ctx, repoPath, "checkout", "-b", branchName)
	return err
}

// Add stages a single path.
func (r *Runner) Add(ctx context.Context, repoPath, path string) error {
	_, err := r.Run(ctx, repoPath, "add", path)
	return err
}

// AddAll stages everything.
func (r *Runner) AddAll(ctx context.Context, repoPath string) error {
	_, err := r.Run(ctx, repoPath, "add", ".")
	return err
}

// Commit records staged changes with the given message.
func (r *Runner) Commit(ctx context.Context, repoPath, message string) error {
	_, err := r.Run(ctx, repoPath, "commit", "-m", message)
	return err
}

// Push pushes a branch to origin, setting the upstream.
func (r *Runner) Push(ctx context.Context, repoPath, branchName string) error {
	_, err := r.Run(ctx, repoPath, "push", "-u", "origin", branchName)
	return err
}

func nonEmptyLines(out string) []string {
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
