// Package tools implements the tool handlers exposed by the three servers.
// Each tool validates its own arguments; domain failures are returned as
// typed errors that the handler serializes into structured payloads.
package tools

import (
	"context"

	"github.com/docscopilot/docscopilot/internal/diffscan"
	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/git"
	"github.com/docscopilot/docscopilot/internal/metadata"
	"github.com/docscopilot/docscopilot/internal/security"
	"github.com/docscopilot/docscopilot/internal/spans"
)

// GetFeatureMetadataTool implements the get_feature_metadata tool.
type GetFeatureMetadataTool struct {
	resolver      *metadata.Resolver
	workspaceRoot string
}

// NewGetFeatureMetadataTool creates a GetFeatureMetadataTool.
func NewGetFeatureMetadataTool(resolver *metadata.Resolver, workspaceRoot string) *GetFeatureMetadataTool {
	return &GetFeatureMetadataTool{resolver: resolver, workspaceRoot: workspaceRoot}
}

// Execute aggregates git history for a feature identifier.
func (t *GetFeatureMetadataTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	featureID, err := security.ValidateFeatureID(stringArg(args, "feature_id"))
	if err != nil {
		return nil, err
	}

	repoPath := ""
	if raw := stringArg(args, "repo_path"); raw != "" {
		repoPath, err = security.ValidatePath(raw, t.workspaceRoot)
		if err != nil {
			return nil, err
		}
	}

	return t.resolver.Resolve(ctx, featureID, repoPath)
}

// GetSchema returns the tool's input schema.
func (t *GetFeatureMetadataTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"feature_id": map[string]interface{}{
				"type":        "string",
				"description": "Feature identifier to search commit history for",
			},
			"repo_path": map[string]interface{}{
				"type":        "string",
				"description": "Repository path inside the workspace (defaults to the workspace root)",
			},
		},
		"required": []string{"feature_id"},
	}
}

// GetCodeExamplesTool implements the get_code_examples tool.
type GetCodeExamplesTool struct {
	extractor     *spans.Extractor
	workspaceRoot string
}

// NewGetCodeExamplesTool creates a GetCodeExamplesTool.
func NewGetCodeExamplesTool(extractor *spans.Extractor, workspaceRoot string) *GetCodeExamplesTool {
	return &GetCodeExamplesTool{extractor: extractor, workspaceRoot: workspaceRoot}
}

// Execute extracts function and class spans from a source file.
func (t *GetCodeExamplesTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	rawPath := stringArg(args, "path")
	if rawPath == "" {
		return nil, errors.ValidationError("path is required", "")
	}

	resolved, err := security.ValidatePath(rawPath, t.workspaceRoot)
	if err != nil {
		return nil, err
	}

	examples, err := t.extractor.Extract(resolved)
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"path":     rawPath,
		"examples": examples,
	}, nil
}

// GetSchema returns the tool's input schema.
func (t *GetCodeExamplesTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Source file to extract code examples from, relative to the workspace",
			},
		},
		"required": []string{"path"},
	}
}

// GetChangedEndpointsTool implements the get_changed_endpoints tool.
type GetChangedEndpointsTool struct {
	runner        *git.Runner
	scanner       *diffscan.Scanner
	workspaceRoot string
}

// NewGetChangedEndpointsTool creates a GetChangedEndpointsTool.
func NewGetChangedEndpointsTool(runner *git.Runner, scanner *diffscan.Scanner, workspaceRoot string) *GetChangedEndpointsTool {
	return &GetChangedEndpointsTool{runner: runner, scanner: scanner, workspaceRoot: workspaceRoot}
}

// Execute reports added or deleted HTTP endpoints. Diff text supplied by
// the caller is scanned directly; otherwise repo_path, base, and head must
// all be present and the diff is computed from the repository. Missing
// arguments and git diff failures both yield an empty endpoint list, not an
// error.
func (t *GetChangedEndpointsTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	if diffText := stringArg(args, "diff"); diffText != "" {
		return endpointsResult(t.scanner.Scan(diffText)), nil
	}

	repoPath := stringArg(args, "repo_path")
	base := stringArg(args, "base")
	head := stringArg(args, "head")
	if repoPath == "" || base == "" || head == "" {
		return endpointsResult(nil), nil
	}

	base, err := security.SanitizeCommitHash(base)
	if err != nil {
		return nil, err
	}
	head, err = security.SanitizeCommitHash(head)
	if err != nil {
		return nil, err
	}
	repoPath, err = security.ValidatePath(repoPath, t.workspaceRoot)
	if err != nil {
		return nil, err
	}

	diffText, err := t.runner.Diff(ctx, repoPath, base, head)
	if err != nil {
		return endpointsResult(nil), nil
	}

	return endpointsResult(t.scanner.Scan(diffText)), nil
}

func endpointsResult(endpoints []diffscan.EndpointChange) map[string]interface{} {
	if endpoints == nil {
		endpoints = []diffscan.EndpointChange{}
	}
	return map[string]interface{}{
		"endpoints": endpoints,
	}
}

// GetSchema returns the tool's input schema.
func (t *GetChangedEndpointsTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"diff": map[string]interface{}{
				"type":        "string",
				"description": "Unified diff text to scan directly; when set the repository is not consulted",
			},
			"repo_path": map[string]interface{}{
				"type":        "string",
				"description": "Repository path inside the workspace",
			},
			"base": map[string]interface{}{
				"type":        "string",
				"description": "Base commit hash (7-40 hex characters)",
			},
			"head": map[string]interface{}{
				"type":        "string",
				"description": "Head commit hash",
			},
		},
	}
}
