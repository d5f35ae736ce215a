// Package docrepo manages the documentation repository: suggesting file
// locations, writing documents, and opening pull requests on a forge.
package docrepo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/docscopilot/docscopilot/internal/git"
	"github.com/docscopilot/docscopilot/internal/security"
)

// MaxBranchNameLength is git's practical ref-name limit.
const MaxBranchNameLength = 255

// generatedNameLimit caps the sanitized portion of a generated branch name
// before the docs/ prefix is applied.
const generatedNameLimit = 200

// docTypeDirs maps documentation types to their directory under the docs
// tree. Unknown types fall back to a directory named after the type itself.
var docTypeDirs = map[string]string{
	"concept":                 "concepts",
	"task":                    "tasks",
	"api_reference":           "api",
	"release_notes":           "releases",
	"feature_overview":        "features",
	"configuration_reference": "configuration",
}

var (
	branchSeparatorRuns = regexp.MustCompile(`[\s_/]+`)
	branchDisallowed    = regexp.MustCompile(`[^a-z0-9\-]`)
	branchHyphenRuns    = regexp.MustCompile(`-+`)
)

// Location is a suggested documentation file placement.
type Location struct {
	Path    string `json:"path"`
	DocType string `json:"doc_type"`
	Reason  string `json:"reason"`
}

// WriteResult reports the outcome of writing a document.
type WriteResult struct {
	Path    string `json:"path"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PRResult reports the outcome of an open-PR orchestration.
type PRResult struct {
	PRURL    string `json:"pr_url"`
	Branch   string `json:"branch"`
	PRNumber int    `json:"pr_number"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// ForgeClient opens a pull/merge request against a hosted repository.
// Success is reported in the result, not as an error; only unexpected
// conditions produce errors.
type ForgeClient interface {
	// Supports reports whether this client can handle the remote URL.
	Supports(remoteURL string) bool
	// OpenPullRequest creates a PR/MR from branch into base.
	OpenPullRequest(ctx context.Context, remoteURL, branch, base, title, description string) (url string, number int, err error)
}

// Manager implements the docs-repo operations over a git runner and a set
// of forge clients tried in order.
type Manager struct {
	runner         *git.Runner
	forges         []ForgeClient
	docsDir        string
	defaultDocType string
	defaultBase    string
	log            *logrus.Logger
}

// NewManager creates a Manager. Forge clients are consulted in the order
// given; the first that supports the remote wins.
func NewManager(runner *git.Runner, forges []ForgeClient, docsDir, defaultDocType, defaultBase string, log *logrus.Logger) *Manager {
	if docsDir == "" {
		docsDir = "docs"
	}
	if defaultDocType == "" {
		defaultDocType = "feature_overview"
	}
	if defaultBase == "" {
		defaultBase = "main"
	}
	if log == nil {
		log = logrus.New()
	}
	return &Manager{
		runner:         runner,
		forges:         forges,
		docsDir:        docsDir,
		defaultDocType: defaultDocType,
		defaultBase:    defaultBase,
		log:            log,
	}
}

// SuggestLocation proposes a path for a new document. The path is relative
// to the workspace root and is not created.
func (m *Manager) SuggestLocation(featureID, docType string) (*Location, error) {
	featureID, err := security.ValidateFeatureID(featureID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(docType) == "" {
		docType = m.defaultDocType
	}
	docType, err = security.ValidateDocType(docType)
	if err != nil {
		return nil, err
	}

	safeID := strings.ToLower(featureID)
	safeID = strings.ReplaceAll(safeID, " ", "_")
	safeID = strings.ReplaceAll(safeID, "/", "_")

	dir, ok := docTypeDirs[docType]
	if !ok {
		dir = docType
	}

	return &Location{
		Path:    filepath.ToSlash(filepath.Join(m.docsDir, dir, safeID+".md")),
		DocType: docType,
		Reason:  fmt.Sprintf("Suggested location for %s", featureID),
	}, nil
}

// WriteDoc writes content to path inside the workspace, creating parent
// directories. Validation failures return an error; I/O failures are
// reported in the result so the caller still gets a structured outcome.
func (m *Manager) WriteDoc(path, content string) (*WriteResult, error) {
	resolved, err := security.ValidatePath(path, m.runner.WorkspaceRoot())
	if err != nil {
		return nil, err
	}

	relPath, relErr := filepath.Rel(m.runner.WorkspaceRoot(), resolved)
	if relErr != nil {
		relPath = resolved
	}
	relPath = filepath.ToSlash(relPath)

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return &WriteResult{
			Path:    relPath,
			Success: false,
			Message: fmt.Sprintf("Failed to create directory: %v", err),
		}, nil
	}
	if err := os.WriteFile(resolved, []byte(content), 0o644); err != nil {
		return &WriteResult{
			Path:    relPath,
			Success: false,
			Message: fmt.Sprintf("Failed to write file: %v", err),
		}, nil
	}

	return &WriteResult{
		Path:    relPath,
		Success: true,
		Message: fmt.Sprintf("Wrote %d bytes", len(content)),
	}, nil
}

// GenerateBranchName derives a unique, ref-legal branch name from a feature
// identifier or PR title. The feature identifier wins when both are given.
func (m *Manager) GenerateBranchName(ctx context.Context, repoPath, featureID, title string) string {
	seed := featureID
	if strings.TrimSpace(seed) == "" {
		seed = title
	}

	name := sanitizeBranchSeed(seed)
	if name == "" {
		name = fmt.Sprintf("%d", time.Now().Unix())
	}

	branch := legalizeBranchName("docs/" + name)

	existing, err := m.runner.AllBranches(ctx, repoPath)
	if err != nil {
		// Cannot check uniqueness; let git reject a collision later.
		return branch
	}
	taken := make(map[string]bool, len(existing))
	for _, b := range existing {
		taken[b] = true
	}
	if !taken[branch] {
		return branch
	}
	for i := 1; i <= 1000; i++ {
		candidate := legalizeBranchName(fmt.Sprintf("%s-%d", branch, i))
		if !taken[candidate] {
			return candidate
		}
	}
	return legalizeBranchName(fmt.Sprintf("%s-%d", branch, time.Now().Unix()))
}

// sanitizeBranchSeed lowercases the seed, folds whitespace, underscores and
// slashes into hyphens, drops everything else, and truncates.
func sanitizeBranchSeed(seed string) string {
	name := strings.ToLower(strings.TrimSpace(seed))
	name = branchSeparatorRuns.ReplaceAllString(name, "-")
	name = branchDisallowed.ReplaceAllString(name, "")
	name = branchHyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if len(name) > generatedNameLimit {
		name = strings.Trim(name[:generatedNameLimit], "-")
	}
	return name
}

// legalizeBranchName enforces git ref-name rules on an assembled name.
func legalizeBranchName(branch string) string {
	branch = strings.Trim(branch, ".")
	branch = strings.TrimSuffix(branch, ".lock")
	branch = strings.ReplaceAll(branch, "..", "-")
	branch = strings.ReplaceAll(branch, "@", "-")
	branch = strings.ReplaceAll(branch, "{", "-")
	if len(branch) > MaxBranchNameLength {
		branch = branch[:MaxBranchNameLength]
		branch = strings.Trim(branch, ".")
		branch = strings.TrimSuffix(branch, ".lock")
	}
	return branch
}

// CreateBranch creates and checks out branchName.
func (m *Manager) CreateBranch(ctx context.Context, repoPath, branchName string) bool {
	if err := m.runner.CreateBranch(ctx, repoPath, branchName); err != nil {
		m.log.WithField("branch", branchName).WithError(err).Error("branch creation failed")
		return false
	}
	return true
}

// CommitChanges stages the given files (or everything, when none are named)
// and commits with the title and description joined by a blank line.
func (m *Manager) CommitChanges(ctx context.Context, repoPath string, files []string, title, description string) bool {
	if len(files) == 0 {
		if err := m.runner.AddAll(ctx, repoPath); err != nil {
			m.log.WithError(err).Error("staging failed")
			return false
		}
	} else {
		for _, file := range files {
			if err := m.runner.Add(ctx, repoPath, file); err != nil {
				m.log.WithField("file", file).WithError(err).Error("staging failed")
				return false
			}
		}
	}

	message := title
	if description != "" {
		message = title + "\n\n" + description
	}
	if err := m.runner.Commit(ctx, repoPath, message); err != nil {
		m.log.WithError(err).Error("commit failed")
		return false
	}
	return true
}

// PushBranch pushes branchName to origin with upstream tracking.
func (m *Manager) PushBranch(ctx context.Context, repoPath, branchName string) bool {
	if err := m.runner.Push(ctx, repoPath, branchName); err != nil {
		m.log.WithField("branch", branchName).WithError(err).Error("push failed")
		return false
	}
	return true
}

// OpenPR runs the full orchestration: branch, commit, push, then the first
// forge client that supports the remote. An empty branch means one is
// generated from the feature identifier or title. Each stage short-circuits
// on failure; nothing is rolled back.
func (m *Manager) OpenPR(ctx context.Context, repoPath, featureID, title, description, baseBranch, branch string, files []string) *PRResult {
	if baseBranch == "" {
		baseBranch = m.defaultBase
	}

	if branch == "" {
		branch = m.GenerateBranchName(ctx, repoPath, featureID, title)
	}

	if !m.CreateBranch(ctx, repoPath, branch) {
		return &PRResult{Branch: branch, Message: "Failed to create branch"}
	}
	if !m.CommitChanges(ctx, repoPath, files, title, description) {
		return &PRResult{Branch: branch, Message: "Failed to commit changes"}
	}
	if !m.PushBranch(ctx, repoPath, branch) {
		return &PRResult{Branch: branch, Message: "Failed to push branch"}
	}

	remoteURL, err := m.runner.RemoteURL(ctx, repoPath)
	if err != nil || remoteURL == "" {
		return &PRResult{Branch: branch, Message: "No origin remote configured"}
	}

	for _, forge := range m.forges {
		if !forge.Supports(remoteURL) {
			continue
		}
		url, number, err := forge.OpenPullRequest(ctx, remoteURL, branch, baseBranch, title, description)
		if err != nil {
			m.log.WithError(err).Error("pull request creation failed")
			return &PRResult{Branch: branch, Message: fmt.Sprintf("Failed to create pull request: %v", err)}
		}
		return &PRResult{
			PRURL:    url,
			Branch:   branch,
			PRNumber: number,
			Success:  true,
			Message:  "Pull request created",
		}
	}

	return &PRResult{Branch: branch, Message: fmt.Sprintf("No supported forge for remote: %s", remoteURL)}
}
