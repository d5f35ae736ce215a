// Package security validates and sanitizes untrusted tool inputs before they
// reach git, the filesystem, or a forge API. All checks are pure functions:
// allow-list patterns, anchored and length-bounded.
package security

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/docscopilot/docscopilot/internal/errors"
)

const (
	// FeatureIDMaxLength bounds feature identifiers to prevent oversized
	// strings reaching git or the regex engine
	FeatureIDMaxLength = 200
	// BranchNameMaxLength matches git's practical ref-name limit
	BranchNameMaxLength = 255
	// ProductNameMaxLength bounds product names for style guide lookups
	ProductNameMaxLength = 100
)

var (
	featureIDPattern   = regexp.MustCompile(`^[a-zA-Z0-9_\-/]+$`)
	branchNamePattern  = regexp.MustCompile(`^[a-zA-Z0-9_\-/]+$`)
	productNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_\-]+$`)
	commitHashPattern  = regexp.MustCompile(`^[a-fA-F0-9]{7,40}$`)
)

// AllowedDocTypes is the fixed set of documentation artifact types.
var AllowedDocTypes = map[string]bool{
	"concept":                 true,
	"task":                    true,
	"api_reference":           true,
	"release_notes":           true,
	"feature_overview":        true,
	"configuration_reference": true,
}

// ValidateFeatureID validates a feature identifier and returns it trimmed.
func ValidateFeatureID(featureID string) (string, error) {
	featureID = strings.TrimSpace(featureID)

	if featureID == "" {
		return "", errors.SecurityError("Empty feature_id", "feature_id cannot be empty")
	}
	if len(featureID) > FeatureIDMaxLength {
		return "", errors.SecurityError(
			fmt.Sprintf("Feature ID too long (max %d characters)", FeatureIDMaxLength),
			fmt.Sprintf("Received %d characters", len(featureID)))
	}
	if !featureIDPattern.MatchString(featureID) {
		return "", errors.SecurityError("Invalid feature_id format",
			"feature_id can only contain alphanumeric characters, hyphens, underscores, and forward slashes")
	}

	// The pattern above already excludes most of these; kept as an
	// independent second check on the git/filesystem boundary.
	for _, dangerous := range []string{"..", "\x00", "\n", "\r", "\t"} {
		if strings.Contains(featureID, dangerous) {
			return "", errors.SecurityError("Invalid feature_id contains dangerous characters",
				fmt.Sprintf("feature_id cannot contain: %q", dangerous))
		}
	}

	return featureID, nil
}

// ValidateBranchName validates a git branch name against ref-name rules.
func ValidateBranchName(branchName string) (string, error) {
	branchName = strings.TrimSpace(branchName)

	if branchName == "" {
		return "", errors.SecurityError("Empty branch_name", "branch_name cannot be empty")
	}
	if len(branchName) > BranchNameMaxLength {
		return "", errors.SecurityError(
			fmt.Sprintf("Branch name too long (max %d characters)", BranchNameMaxLength),
			fmt.Sprintf("Received %d characters", len(branchName)))
	}
	if strings.HasPrefix(branchName, ".") || strings.HasSuffix(branchName, ".") {
		return "", errors.SecurityError("Invalid branch name",
			"Branch name cannot start or end with a dot")
	}
	if strings.HasSuffix(branchName, ".lock") {
		return "", errors.SecurityError("Invalid branch name",
			"Branch name cannot end with .lock")
	}
	if strings.Contains(branchName, "..") || strings.Contains(branchName, "@{") {
		return "", errors.SecurityError("Invalid branch name",
			"Branch name cannot contain '..' or '@{'")
	}
	if !branchNamePattern.MatchString(branchName) {
		return "", errors.SecurityError("Invalid branch_name format",
			"branch_name can only contain alphanumeric characters, hyphens, underscores, and forward slashes")
	}

	return branchName, nil
}

// ValidateProductName validates an optional product name. An empty or
// whitespace-only name normalizes to "".
func ValidateProductName(productName string) (string, error) {
	productName = strings.TrimSpace(productName)
	if productName == "" {
		return "", nil
	}
	if len(productName) > ProductNameMaxLength {
		return "", errors.SecurityError(
			fmt.Sprintf("Product name too long (max %d characters)", ProductNameMaxLength),
			fmt.Sprintf("Received %d characters", len(productName)))
	}
	if !productNamePattern.MatchString(productName) {
		return "", errors.SecurityError("Invalid product_name format",
			"product_name can only contain alphanumeric characters, hyphens, and underscores")
	}
	return productName, nil
}

// ValidateDocType validates a documentation type against the fixed set.
func ValidateDocType(docType string) (string, error) {
	docType = strings.ToLower(strings.TrimSpace(docType))
	if !AllowedDocTypes[docType] {
		return "", errors.SecurityError(
			fmt.Sprintf("Invalid doc_type: %s", docType),
			fmt.Sprintf("Allowed types are: %s", strings.Join(sortedDocTypes(), ", ")))
	}
	return docType, nil
}

// ValidatePath resolves a path against workspaceRoot and certifies that the
// result stays inside it. Relative paths resolve against the root; absolute
// paths must already point inside it. Returns the resolved absolute path.
func ValidatePath(path string, workspaceRoot string) (string, error) {
	path = strings.TrimSpace(path)

	if path == "" {
		return "", errors.SecurityError("Empty path", "path cannot be empty")
	}
	for _, dangerous := range []string{"\x00", "\n", "\r"} {
		if strings.Contains(path, dangerous) {
			return "", errors.SecurityError("Invalid path contains dangerous characters",
				fmt.Sprintf("path cannot contain: %q", dangerous))
		}
	}

	root, err := filepath.Abs(workspaceRoot)
	if err != nil {
		return "", errors.SecurityError("Invalid workspace root", err.Error())
	}
	// Resolve symlinks on the root so comparisons hold even when the
	// workspace itself lives behind a link (macOS /tmp, for one).
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}

	var resolved string
	if filepath.IsAbs(path) {
		resolved = filepath.Clean(path)
		if evaluated, err := filepath.EvalSymlinks(resolved); err == nil {
			resolved = evaluated
		}
		if !within(resolved, root) {
			return "", errors.SecurityError(
				fmt.Sprintf("Path outside workspace: %s", path),
				fmt.Sprintf("File must be within workspace: %s", workspaceRoot))
		}
	} else {
		resolved = filepath.Clean(filepath.Join(root, path))
		if evaluated, err := filepath.EvalSymlinks(resolved); err == nil {
			resolved = evaluated
		}
		if !within(resolved, root) {
			return "", errors.SecurityError(
				fmt.Sprintf("Path outside workspace: %s", path),
				fmt.Sprintf("Resolved path %s is outside workspace: %s", resolved, workspaceRoot))
		}
	}

	// Post-resolution traversal double check.
	rel, err := filepath.Rel(root, resolved)
	if err != nil || strings.Contains(rel, "..") {
		return "", errors.SecurityError(
			fmt.Sprintf("Invalid path contains '..': %s", path),
			"Path traversal is not allowed")
	}

	return resolved, nil
}

// within reports whether path is root itself or lies underneath it.
func within(path, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// SanitizeGitPattern rejects shell metacharacters in a pattern destined for
// git's --grep argument.
func SanitizeGitPattern(pattern string) (string, error) {
	pattern = strings.TrimSpace(pattern)

	if pattern == "" {
		return "", errors.SecurityError("Empty pattern", "pattern cannot be empty")
	}
	for _, dangerous := range []string{";", "&", "|", "`", "$", "(", ")", "<", ">", "\n", "\r"} {
		if strings.Contains(pattern, dangerous) {
			return "", errors.SecurityError("Invalid pattern contains dangerous characters",
				fmt.Sprintf("pattern cannot contain: %q", dangerous))
		}
	}
	return pattern, nil
}

// SanitizeCommitHash accepts exactly 7-40 hex characters.
func SanitizeCommitHash(commitHash string) (string, error) {
	commitHash = strings.TrimSpace(commitHash)

	if commitHash == "" {
		return "", errors.SecurityError("Empty commit_hash", "commit_hash cannot be empty")
	}
	if !commitHashPattern.MatchString(commitHash) {
		return "", errors.SecurityError("Invalid commit hash format",
			"commit_hash must be a valid git commit hash (7-40 hex characters)")
	}
	return commitHash, nil
}

func sortedDocTypes() []string {
	return []string{
		"api_reference",
		"concept",
		"configuration_reference",
		"feature_overview",
		"release_notes",
		"task",
	}
}
