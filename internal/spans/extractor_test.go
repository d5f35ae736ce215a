package spans

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docscopilot/docscopilot/internal/errors"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func spanByName(spans []Span, name string) *Span {
	for i := range spans {
		if spans[i].Name == name {
			return &spans[i]
		}
	}
	return nil
}

func TestExtractFunctions(t *testing.T) {
	src := `def add(a, b):
    """Add two numbers."""
    return a + b


def sub(a, b):
    return a - b
`
	spans, err := NewExtractor(nil).Extract(writeFixture(t, "math.py", src))
	require.NoError(t, err)
	require.Len(t, spans, 2)

	add := spanByName(spans, "add")
	require.NotNil(t, add)
	assert.Equal(t, "function", add.Type)
	assert.Equal(t, "Add two numbers.", add.Docstring)
	assert.Equal(t, [2]int{1, 3}, add.LineNumbers)
	assert.Contains(t, add.Code, "return a + b")

	sub := spanByName(spans, "sub")
	require.NotNil(t, sub)
	assert.Empty(t, sub.Docstring)
}

func TestExtractClassWithNestedMethods(t *testing.T) {
	src := `class Greeter:
    """Says hello."""

    def greet(self, name):
        """Greet by name."""
        return "hi " + name
`
	spans, err := NewExtractor(nil).Extract(writeFixture(t, "greet.py", src))
	require.NoError(t, err)

	// The class and its method each get a span; the method's code is
	// also part of the class span.
	require.Len(t, spans, 2)

	class := spanByName(spans, "Greeter")
	require.NotNil(t, class)
	assert.Equal(t, "class", class.Type)
	assert.Equal(t, "Says hello.", class.Docstring)
	assert.Contains(t, class.Code, "def greet")

	method := spanByName(spans, "greet")
	require.NotNil(t, method)
	assert.Equal(t, "function", method.Type)
	assert.Equal(t, "Greet by name.", method.Docstring)
}

func TestExtractNestedFunctions(t *testing.T) {
	src := `def outer():
    def inner():
        return 1
    return inner
`
	spans, err := NewExtractor(nil).Extract(writeFixture(t, "nested.py", src))
	require.NoError(t, err)
	require.Len(t, spans, 2)
	assert.NotNil(t, spanByName(spans, "outer"))
	assert.NotNil(t, spanByName(spans, "inner"))
}

func TestExtractUnsupportedLanguageFallsBackToFileSpan(t *testing.T) {
	src := "package main\n\nfunc main() {}\n"
	spans, err := NewExtractor(nil).Extract(writeFixture(t, "main.go", src))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "file", spans[0].Type)
	assert.Equal(t, "main.go", spans[0].Name)
	assert.Equal(t, src, spans[0].Code)
	assert.Equal(t, 1, spans[0].LineNumbers[0])
}

func TestExtractSyntaxErrorFallsBackToFileSpan(t *testing.T) {
	src := "def broken(:\n    pass\n"
	spans, err := NewExtractor(nil).Extract(writeFixture(t, "broken.py", src))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "file", spans[0].Type)
}

func TestExtractMissingFile(t *testing.T) {
	_, err := NewExtractor(nil).Extract(filepath.Join(t.TempDir(), "absent.py"))
	require.Error(t, err)
	assert.Equal(t, errors.KindFileNotFound, errors.GetKind(err))
}

func TestExtractDisabledLanguage(t *testing.T) {
	src := "def f():\n    pass\n"
	spans, err := NewExtractor([]string{"ruby"}).Extract(writeFixture(t, "f.py", src))
	require.NoError(t, err)
	require.Len(t, spans, 1)
	assert.Equal(t, "file", spans[0].Type, "python disabled means the generic path")
}

func TestStripQuotes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"""triple double"""`, "triple double"},
		{`'''triple single'''`, "triple single"},
		{`"plain"`, "plain"},
		{`'plain'`, "plain"},
		{`unquoted`, "unquoted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripQuotes(tt.in))
	}
}
