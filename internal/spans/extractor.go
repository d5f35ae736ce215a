// Package spans extracts function and class spans from source files using a
// tree-sitter parse, falling back to a single whole-file span when the
// language is unsupported or the file fails to parse.
package spans

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/docscopilot/docscopilot/internal/errors"
)

// Span is one extracted syntactic unit. A "file" span is the degenerate
// fallback covering the entire file.
type Span struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Docstring   string `json:"docstring,omitempty"`
	LineNumbers [2]int `json:"line_numbers"`
}

// Extractor parses source files for a configurable set of languages.
// Only Python has a grammar wired; everything else takes the generic path.
type Extractor struct {
	supportedLanguages map[string]bool
}

// NewExtractor creates an Extractor. A nil language list defaults to Python.
func NewExtractor(supportedLanguages []string) *Extractor {
	if len(supportedLanguages) == 0 {
		supportedLanguages = []string{"python"}
	}
	supported := make(map[string]bool, len(supportedLanguages))
	for _, lang := range supportedLanguages {
		supported[strings.ToLower(strings.TrimSpace(lang))] = true
	}
	return &Extractor{supportedLanguages: supported}
}

// Extract parses filePath and returns one Span per function/class
// definition. Nested definitions are emitted as separate spans alongside
// their enclosing scope's span; consumers rely on this, do not deduplicate.
func (e *Extractor) Extract(filePath string) ([]Span, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.FileNotFoundError(
			fmt.Sprintf("File not found: %s", filePath),
			"Ensure the file exists and is accessible")
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	if ext == ".py" && e.supportedLanguages["python"] {
		return extractPython(filePath, content), nil
	}
	return []Span{fileSpan(filePath, content)}, nil
}

func extractPython(filePath string, content []byte) []Span {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())

	tree := parser.Parse(nil, content)
	if tree == nil {
		return []Span{fileSpan(filePath, content)}
	}

	root := tree.RootNode()
	if root.HasError() {
		// Syntax error: whole file as one opaque span, matching the
		// unsupported-language path.
		return []Span{fileSpan(filePath, content)}
	}

	lines := strings.Split(string(content), "\n")
	var spans []Span
	walk(root, func(node *sitter.Node) {
		switch node.Type() {
		case "function_definition":
			if span, ok := definitionSpan(node, content, lines, "function"); ok {
				spans = append(spans, span)
			}
		case "class_definition":
			if span, ok := definitionSpan(node, content, lines, "class"); ok {
				spans = append(spans, span)
			}
		}
	})
	return spans
}

// walk visits every node in the tree, including children of matched
// definitions, so nested functions and methods produce their own spans.
func walk(node *sitter.Node, visit func(*sitter.Node)) {
	if node == nil {
		return
	}
	visit(node)
	for i := 0; i < int(node.ChildCount()); i++ {
		walk(node.Child(i), visit)
	}
}

func definitionSpan(node *sitter.Node, content []byte, lines []string, kind string) (Span, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Span{}, false
	}

	startLine := int(node.StartPoint().Row)
	endLine := int(node.EndPoint().Row)
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}

	return Span{
		Type:        kind,
		Name:        nodeText(nameNode, content),
		Code:        strings.Join(lines[startLine:endLine+1], "\n"),
		Docstring:   docstring(node, content),
		LineNumbers: [2]int{startLine + 1, endLine + 1},
	}, true
}

// docstring returns the leading string literal of a definition body, with
// quote delimiters stripped, or "" when there is none.
func docstring(node *sitter.Node, content []byte) string {
	body := node.ChildByFieldName("body")
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first == nil || first.Type() != "expression_statement" || first.NamedChildCount() == 0 {
		return ""
	}
	literal := first.NamedChild(0)
	if literal == nil || literal.Type() != "string" {
		return ""
	}
	return stripQuotes(nodeText(literal, content))
}

func stripQuotes(s string) string {
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}

func nodeText(node *sitter.Node, content []byte) string {
	return string(content[node.StartByte():node.EndByte()])
}

func fileSpan(filePath string, content []byte) Span {
	text := string(content)
	return Span{
		Type:        "file",
		Name:        filepath.Base(filePath),
		Code:        text,
		LineNumbers: [2]int{1, len(strings.Split(text, "\n"))},
	}
}
