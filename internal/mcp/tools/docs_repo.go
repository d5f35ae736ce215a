package tools

import (
	"context"
	"fmt"

	"github.com/docscopilot/docscopilot/internal/docrepo"
	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/security"
)

const (
	// MaxTitleLength bounds PR titles.
	MaxTitleLength = 200
	// MaxDescriptionLength bounds PR descriptions.
	MaxDescriptionLength = 10000
)

// SuggestDocLocationTool implements the suggest_doc_location tool.
type SuggestDocLocationTool struct {
	manager *docrepo.Manager
}

// NewSuggestDocLocationTool creates a SuggestDocLocationTool.
func NewSuggestDocLocationTool(manager *docrepo.Manager) *SuggestDocLocationTool {
	return &SuggestDocLocationTool{manager: manager}
}

// Execute proposes a documentation file path for a feature.
func (t *SuggestDocLocationTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.manager.SuggestLocation(stringArg(args, "feature_id"), stringArg(args, "doc_type"))
}

// GetSchema returns the tool's input schema.
func (t *SuggestDocLocationTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"feature_id": map[string]interface{}{
				"type":        "string",
				"description": "Feature identifier the document covers",
			},
			"doc_type": map[string]interface{}{
				"type":        "string",
				"description": "Documentation type (concept, task, api_reference, release_notes, feature_overview, configuration_reference)",
			},
		},
		"required": []string{"feature_id"},
	}
}

// WriteDocTool implements the write_doc tool.
type WriteDocTool struct {
	manager *docrepo.Manager
}

// NewWriteDocTool creates a WriteDocTool.
func NewWriteDocTool(manager *docrepo.Manager) *WriteDocTool {
	return &WriteDocTool{manager: manager}
}

// Execute writes document content inside the workspace.
func (t *WriteDocTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	path := stringArg(args, "path")
	if path == "" {
		return nil, errors.ValidationError("path is required", "")
	}
	content, ok := args["content"].(string)
	if !ok {
		return nil, errors.ValidationError("content is required", "")
	}
	return t.manager.WriteDoc(path, content)
}

// GetSchema returns the tool's input schema.
func (t *WriteDocTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Destination path relative to the workspace root",
			},
			"content": map[string]interface{}{
				"type":        "string",
				"description": "UTF-8 document content",
			},
		},
		"required": []string{"path", "content"},
	}
}

// OpenPRTool implements the open_pr tool.
type OpenPRTool struct {
	manager       *docrepo.Manager
	workspaceRoot string
}

// NewOpenPRTool creates an OpenPRTool.
func NewOpenPRTool(manager *docrepo.Manager, workspaceRoot string) *OpenPRTool {
	return &OpenPRTool{manager: manager, workspaceRoot: workspaceRoot}
}

// Execute runs the branch, commit, push, pull-request orchestration.
func (t *OpenPRTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	title := stringArg(args, "title")
	if title == "" {
		return nil, errors.ValidationError("title is required", "")
	}
	if len(title) > MaxTitleLength {
		return nil, errors.ValidationError(
			fmt.Sprintf("Title too long (max %d characters)", MaxTitleLength),
			fmt.Sprintf("Received %d characters", len(title)))
	}

	description := stringArg(args, "description")
	if description == "" {
		return nil, errors.ValidationError("description is required", "")
	}
	if len(description) > MaxDescriptionLength {
		return nil, errors.ValidationError(
			fmt.Sprintf("Description too long (max %d characters)", MaxDescriptionLength),
			fmt.Sprintf("Received %d characters", len(description)))
	}

	featureID := stringArg(args, "feature_id")
	if featureID != "" {
		var err error
		featureID, err = security.ValidateFeatureID(featureID)
		if err != nil {
			return nil, err
		}
	}

	repoPath := t.workspaceRoot
	if raw := stringArg(args, "repo_path"); raw != "" {
		var err error
		repoPath, err = security.ValidatePath(raw, t.workspaceRoot)
		if err != nil {
			return nil, err
		}
	}

	baseBranch := stringArg(args, "base_branch")
	if baseBranch != "" {
		var err error
		baseBranch, err = security.ValidateBranchName(baseBranch)
		if err != nil {
			return nil, err
		}
	}

	branch := stringArg(args, "branch")
	if branch != "" {
		var err error
		branch, err = security.ValidateBranchName(branch)
		if err != nil {
			return nil, err
		}
	}

	files := stringListArg(args, "files")
	for i, file := range files {
		resolved, err := security.ValidatePath(file, t.workspaceRoot)
		if err != nil {
			return nil, err
		}
		files[i] = resolved
	}

	return t.manager.OpenPR(ctx, repoPath, featureID, title, description, baseBranch, branch, files), nil
}

// GetSchema returns the tool's input schema.
func (t *OpenPRTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"title": map[string]interface{}{
				"type":        "string",
				"description": "Pull request title (max 200 characters)",
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "Pull request description (max 10000 characters)",
			},
			"feature_id": map[string]interface{}{
				"type":        "string",
				"description": "Feature identifier used to derive the branch name",
			},
			"repo_path": map[string]interface{}{
				"type":        "string",
				"description": "Repository path inside the workspace (defaults to the workspace root)",
			},
			"base_branch": map[string]interface{}{
				"type":        "string",
				"description": "Branch to merge into (defaults to the configured base branch)",
			},
			"branch": map[string]interface{}{
				"type":        "string",
				"description": "Branch to create the changes on; generated from the feature identifier or title when omitted",
			},
			"files": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Files to stage; everything is staged when omitted",
			},
		},
		"required": []string{"title", "description"},
	}
}
