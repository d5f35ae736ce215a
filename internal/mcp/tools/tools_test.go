package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docscopilot/docscopilot/internal/diffscan"
	"github.com/docscopilot/docscopilot/internal/docrepo"
	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/git"
	"github.com/docscopilot/docscopilot/internal/spans"
	"github.com/docscopilot/docscopilot/internal/templates"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestManager(t *testing.T) (*docrepo.Manager, string) {
	t.Helper()
	root := t.TempDir()
	runner := git.NewRunner(root, "git", 0, testLogger())
	return docrepo.NewManager(runner, nil, "docs", "feature_overview", "main", testLogger()), root
}

func newEndpointsTool(t *testing.T) (*GetChangedEndpointsTool, string) {
	t.Helper()
	root := t.TempDir()
	return NewGetChangedEndpointsTool(
		git.NewRunner(root, "git", 0, testLogger()),
		diffscan.NewScanner(""),
		root), root
}

func TestGetChangedEndpointsScansSuppliedDiff(t *testing.T) {
	tool, _ := newEndpointsTool(t)

	diff := `diff --git a/app/api.py b/app/api.py
--- a/app/api.py
+++ b/app/api.py
@@ -10,0 +11,3 @@
+@app.get("/users")
+def list_users():
+    return []
`
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"diff": diff,
	})
	require.NoError(t, err)

	endpoints := result.(map[string]interface{})["endpoints"].([]diffscan.EndpointChange)
	require.Len(t, endpoints, 1)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "/users", endpoints[0].Path)
	assert.Equal(t, "new", endpoints[0].Status)
	assert.Equal(t, "app/api.py", endpoints[0].File)
}

func TestGetChangedEndpointsMissingArgsYieldsEmptyList(t *testing.T) {
	tool, _ := newEndpointsTool(t)

	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"no args", map[string]interface{}{}},
		{"no repo_path", map[string]interface{}{"base": "abc1234", "head": "def5678"}},
		{"no head", map[string]interface{}{"repo_path": ".", "base": "abc1234"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tool.Execute(context.Background(), tt.args)
			require.NoError(t, err)
			assert.Empty(t, result.(map[string]interface{})["endpoints"])
		})
	}
}

func TestGetChangedEndpointsGitFailureYieldsEmptyList(t *testing.T) {
	tool, _ := newEndpointsTool(t)

	// The workspace root is not a git repository, so the diff fails.
	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"repo_path": ".",
		"base":      "abc1234",
		"head":      "def5678",
	})
	require.NoError(t, err)
	assert.Empty(t, result.(map[string]interface{})["endpoints"])
}

func TestGetChangedEndpointsRejectsBadHash(t *testing.T) {
	tool, _ := newEndpointsTool(t)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"repo_path": ".",
		"base":      "abc1234",
		"head":      "HEAD; rm -rf /",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindSecurity, errors.GetKind(err))
}

func TestGetCodeExamplesRequiresPath(t *testing.T) {
	tool := NewGetCodeExamplesTool(spans.NewExtractor(nil), t.TempDir())

	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestGetCodeExamplesAcceptsPathArg(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "api.py"), []byte("def ping():\n    return \"pong\"\n"), 0o644))
	tool := NewGetCodeExamplesTool(spans.NewExtractor(nil), root)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"path": "api.py",
	})
	require.NoError(t, err)

	payload := result.(map[string]interface{})
	assert.Equal(t, "api.py", payload["path"])
	examples := payload["examples"].([]spans.Span)
	require.NotEmpty(t, examples)
	assert.Equal(t, "ping", examples[0].Name)
}

func TestGetCodeExamplesRejectsEscape(t *testing.T) {
	tool := NewGetCodeExamplesTool(spans.NewExtractor(nil), t.TempDir())

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path": "../../etc/passwd",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindSecurity, errors.GetKind(err))
}

func TestGetFeatureMetadataRequiresFeatureID(t *testing.T) {
	tool := NewGetFeatureMetadataTool(nil, t.TempDir())

	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err)
	assert.Equal(t, errors.KindSecurity, errors.GetKind(err))
}

func TestWriteDocRequiresContent(t *testing.T) {
	mgr, _ := newTestManager(t)
	tool := NewWriteDocTool(mgr)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"path": "docs/x.md",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestWriteDocWritesFile(t *testing.T) {
	mgr, _ := newTestManager(t)
	tool := NewWriteDocTool(mgr)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"path":    "docs/features/x.md",
		"content": "# X\n",
	})
	require.NoError(t, err)

	writeResult := result.(*docrepo.WriteResult)
	assert.True(t, writeResult.Success)
	assert.Equal(t, "docs/features/x.md", writeResult.Path)
}

func TestSuggestDocLocation(t *testing.T) {
	mgr, _ := newTestManager(t)
	tool := NewSuggestDocLocationTool(mgr)

	result, err := tool.Execute(context.Background(), map[string]interface{}{
		"feature_id": "auth-retry",
		"doc_type":   "concept",
	})
	require.NoError(t, err)

	loc := result.(*docrepo.Location)
	assert.Equal(t, "docs/concepts/auth-retry.md", loc.Path)
	assert.Equal(t, "concept", loc.DocType)
}

func TestOpenPRValidatesTitle(t *testing.T) {
	mgr, root := newTestManager(t)
	tool := NewOpenPRTool(mgr, root)

	_, err := tool.Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err, "title is required")

	_, err = tool.Execute(context.Background(), map[string]interface{}{
		"title": strings.Repeat("t", MaxTitleLength+1),
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestOpenPRRequiresDescription(t *testing.T) {
	mgr, root := newTestManager(t)
	tool := NewOpenPRTool(mgr, root)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"title": "ok",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestOpenPRValidatesDescriptionLength(t *testing.T) {
	mgr, root := newTestManager(t)
	tool := NewOpenPRTool(mgr, root)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"title":       "ok",
		"description": strings.Repeat("d", MaxDescriptionLength+1),
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.GetKind(err))
}

func TestOpenPRValidatesBaseBranch(t *testing.T) {
	mgr, root := newTestManager(t)
	tool := NewOpenPRTool(mgr, root)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"title":       "ok",
		"description": "details",
		"base_branch": "bad..branch",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindSecurity, errors.GetKind(err))
}

func TestOpenPRValidatesBranch(t *testing.T) {
	mgr, root := newTestManager(t)
	tool := NewOpenPRTool(mgr, root)

	_, err := tool.Execute(context.Background(), map[string]interface{}{
		"title":       "ok",
		"description": "details",
		"branch":      "bad..name",
	})
	require.Error(t, err)
	assert.Equal(t, errors.KindSecurity, errors.GetKind(err))
}

func TestTemplateTools(t *testing.T) {
	resolver := templates.NewResolver("", "", testLogger())

	result, err := NewGetTemplateTool(resolver).Execute(context.Background(), map[string]interface{}{
		"doc_type": "concept",
	})
	require.NoError(t, err)
	tmpl := result.(*templates.Template)
	assert.Equal(t, "concept", tmpl.DocType)
	assert.NotEmpty(t, tmpl.Content)

	_, err = NewGetTemplateTool(resolver).Execute(context.Background(), map[string]interface{}{})
	require.Error(t, err, "doc_type is required")

	result, err = NewGetStyleGuideTool(resolver).Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	guide := result.(*templates.StyleGuide)
	assert.Equal(t, templates.SourceDefault, guide.Source)

	result, err = NewGetGlossaryTool(resolver).Execute(context.Background(), map[string]interface{}{})
	require.NoError(t, err)
	glossary := result.(*templates.Glossary)
	assert.NotEmpty(t, glossary.Terms)
}
