// Package metadata aggregates git history into per-feature metadata records.
package metadata

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/git"
	"github.com/docscopilot/docscopilot/internal/security"
)

// maxDescriptionParts caps how many commit message fragments feed the
// feature description.
const maxDescriptionParts = 3

var issueRefPattern = regexp.MustCompile(`(?i)(?:fixes?|closes?|resolves?)\s+#?(\d+)|(?:#|GH-|GL-)(\d+)`)

// FeatureMetadata is the aggregate produced for one feature identifier.
// All list-valued fields are deduplicated and lexicographically sorted.
type FeatureMetadata struct {
	FeatureID     string             `json:"feature_id"`
	Commits       []git.CommitRecord `json:"commits"`
	Branches      []string           `json:"branches"`
	Tags          []string           `json:"tags"`
	CodePaths     []string           `json:"code_paths"`
	TestPaths     []string           `json:"test_paths"`
	Description   string             `json:"description,omitempty"`
	RelatedIssues []string           `json:"related_issues"`
}

// Resolver gathers feature metadata from a git repository.
type Resolver struct {
	runner *git.Runner
	log    *logrus.Logger
}

// NewResolver creates a Resolver.
func NewResolver(runner *git.Runner, log *logrus.Logger) *Resolver {
	if log == nil {
		log = logrus.New()
	}
	return &Resolver{runner: runner, log: log}
}

// Resolve searches commit history for featureID and aggregates commits,
// branches, tags, changed files and heuristically matched test files.
// Per-commit git failures are skipped; the call fails only when no commit
// matches at all.
func (r *Resolver) Resolve(ctx context.Context, featureID, repoPath string) (*FeatureMetadata, error) {
	pattern, err := security.SanitizeGitPattern(featureID)
	if err != nil {
		return nil, err
	}

	if repoPath == "" {
		repoPath = r.runner.WorkspaceRoot()
	}

	hashes, err := r.runner.LogGrep(ctx, repoPath, pattern)
	if err != nil {
		if errors.GetKind(err) == errors.KindRepositoryNotFound {
			return nil, err
		}
		hashes = nil
	}
	if len(hashes) == 0 {
		return nil, errors.FeatureNotFoundError(
			fmt.Sprintf("Feature '%s' not found in repository", pattern),
			fmt.Sprintf("No commits found matching pattern: %s", pattern))
	}

	var commits []git.CommitRecord
	var descriptions []string
	branches := make(map[string]bool)
	tags := make(map[string]bool)
	issues := make(map[string]bool)

	for _, hash := range hashes {
		record, err := r.runner.CommitInfo(ctx, repoPath, hash)
		if err != nil {
			r.log.WithField("commit", hash).WithError(err).Warn("skipping commit")
			continue
		}
		commits = append(commits, record)

		if record.Subject != "" {
			descriptions = append(descriptions, record.Subject)
		}
		if record.Body != "" {
			descriptions = append(descriptions, record.Body)
		}

		for _, match := range issueRefPattern.FindAllStringSubmatch(record.Body, -1) {
			issueID := match[1]
			if issueID == "" {
				issueID = match[2]
			}
			if issueID != "" {
				issues[issueID] = true
			}
		}

		// Branch/tag enrichment is best effort; a failure here still
		// leaves a usable record.
		if branchList, err := r.runner.BranchesContaining(ctx, repoPath, hash); err == nil {
			for _, b := range branchList {
				branches[b] = true
			}
		}
		if tagList, err := r.runner.TagsContaining(ctx, repoPath, hash); err == nil {
			for _, t := range tagList {
				tags[t] = true
			}
		}
	}

	codePaths := make(map[string]bool)
	if files, err := r.runner.LogFiles(ctx, repoPath, pattern); err == nil {
		for _, f := range files {
			codePaths[f] = true
		}
	}

	var testPaths []string
	for _, codePath := range sortedSet(codePaths) {
		if testPath := r.findTestFile(ctx, repoPath, codePath); testPath != "" {
			testPaths = append(testPaths, testPath)
		}
	}

	description := ""
	if len(descriptions) > 0 {
		n := len(descriptions)
		if n > maxDescriptionParts {
			n = maxDescriptionParts
		}
		description = strings.Join(descriptions[:n], " ")
	}

	return &FeatureMetadata{
		FeatureID:     pattern,
		Commits:       commits,
		Branches:      sortedSet(branches),
		Tags:          sortedSet(tags),
		CodePaths:     sortedSet(codePaths),
		TestPaths:     sortedUnique(testPaths),
		Description:   description,
		RelatedIssues: sortedSet(issues),
	}, nil
}

// findTestFile probes the four common test naming conventions and returns
// the first tracked match.
func (r *Resolver) findTestFile(ctx context.Context, repoPath, codePath string) string {
	stem := strings.TrimSuffix(filepath.Base(codePath), filepath.Ext(codePath))

	candidates := []string{
		fmt.Sprintf("test_%s.py", stem),
		fmt.Sprintf("%s_test.py", stem),
		fmt.Sprintf("tests/test_%s.py", stem),
		fmt.Sprintf("tests/%s_test.py", stem),
	}

	for _, candidate := range candidates {
		matches, err := r.runner.LsFiles(ctx, repoPath, candidate)
		if err == nil && len(matches) > 0 {
			return matches[0]
		}
	}
	return ""
}

func sortedSet(set map[string]bool) []string {
	items := make([]string, 0, len(set))
	for item := range set {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

func sortedUnique(items []string) []string {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return sortedSet(set)
}
