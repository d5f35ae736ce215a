package tools

import (
	"context"

	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/templates"
)

// GetTemplateTool implements the get_template tool.
type GetTemplateTool struct {
	resolver *templates.Resolver
}

// NewGetTemplateTool creates a GetTemplateTool.
func NewGetTemplateTool(resolver *templates.Resolver) *GetTemplateTool {
	return &GetTemplateTool{resolver: resolver}
}

// Execute resolves the template for a documentation type.
func (t *GetTemplateTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	docType := stringArg(args, "doc_type")
	if docType == "" {
		return nil, errors.ValidationError("doc_type is required", "")
	}
	return t.resolver.GetTemplate(docType)
}

// GetSchema returns the tool's input schema.
func (t *GetTemplateTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"doc_type": map[string]interface{}{
				"type":        "string",
				"description": "Documentation type to fetch the template for",
			},
		},
		"required": []string{"doc_type"},
	}
}

// GetStyleGuideTool implements the get_style_guide tool.
type GetStyleGuideTool struct {
	resolver *templates.Resolver
}

// NewGetStyleGuideTool creates a GetStyleGuideTool.
func NewGetStyleGuideTool(resolver *templates.Resolver) *GetStyleGuideTool {
	return &GetStyleGuideTool{resolver: resolver}
}

// Execute resolves the style guide for a product, falling back to the
// default guide.
func (t *GetStyleGuideTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.resolver.GetStyleGuide(stringArg(args, "product"))
}

// GetSchema returns the tool's input schema.
func (t *GetStyleGuideTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product": map[string]interface{}{
				"type":        "string",
				"description": "Product name; omit for the default style guide",
			},
		},
	}
}

// GetGlossaryTool implements the get_glossary tool.
type GetGlossaryTool struct {
	resolver *templates.Resolver
}

// NewGetGlossaryTool creates a GetGlossaryTool.
func NewGetGlossaryTool(resolver *templates.Resolver) *GetGlossaryTool {
	return &GetGlossaryTool{resolver: resolver}
}

// Execute returns the terminology glossary.
func (t *GetGlossaryTool) Execute(ctx context.Context, args map[string]interface{}) (interface{}, error) {
	return t.resolver.GetGlossary()
}

// GetSchema returns the tool's input schema.
func (t *GetGlossaryTool) GetSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}
