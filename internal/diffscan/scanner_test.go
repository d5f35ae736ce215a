package diffscan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanAddedEndpoint(t *testing.T) {
	diff := `diff --git a/app/routes.py b/app/routes.py
+++ b/app/routes.py
@@ -10,6 +10,9 @@
 import os
+@app.get("/users")
+def get_users():
+    return []
`
	scanner := NewScanner("")
	endpoints := scanner.Scan(diff)

	require.Len(t, endpoints, 1)
	assert.Equal(t, "GET", endpoints[0].Method)
	assert.Equal(t, "/users", endpoints[0].Path)
	assert.Equal(t, "app/routes.py", endpoints[0].File)
	assert.Equal(t, "new", endpoints[0].Status)
	assert.Equal(t, [2]int{11, 11}, endpoints[0].LineNumbers)
}

func TestScanDecoratorShapes(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		wantMethod string
		wantPath   string
	}{
		{"app get", `+@app.get("/users")`, "GET", "/users"},
		{"app post single quotes", `+@app.post('/users')`, "POST", "/users"},
		{"router delete", `+@router.delete("/items/{id}")`, "DELETE", "/items/{id}"},
		{"router verb case insensitive", `+@ROUTER.PUT("/items")`, "PUT", "/items"},
		{"flask route with methods", `+@bp.route("/login", methods=["POST"])`, "POST", "/login"},
		{"app route with methods", `+@app.route('/health', methods=['GET'])`, "GET", "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := "+++ b/svc.py\n@@ -1,2 +1,3 @@\n" + tt.line + "\n"
			endpoints := NewScanner("").Scan(diff)
			require.Len(t, endpoints, 1)
			assert.Equal(t, tt.wantMethod, endpoints[0].Method)
			assert.Equal(t, tt.wantPath, endpoints[0].Path)
		})
	}
}

func TestScanDeletedEndpoint(t *testing.T) {
	diff := `+++ b/app/routes.py
@@ -5,4 +5,1 @@
-@app.delete("/users")
-def delete_users():
 pass
`
	endpoints := NewScanner("").Scan(diff)

	require.Len(t, endpoints, 1)
	assert.Equal(t, "DELETE", endpoints[0].Method)
	assert.Equal(t, "deleted", endpoints[0].Status)
	// The deletion is attributed to the line the counter was at.
	assert.Equal(t, [2]int{5, 5}, endpoints[0].LineNumbers)
}

func TestScanIgnoresNonSourceFiles(t *testing.T) {
	diff := `+++ b/README.md
@@ -1,1 +1,2 @@
+@app.get("/users")
`
	assert.Empty(t, NewScanner("").Scan(diff))
}

func TestScanNoFileContext(t *testing.T) {
	// Matches before any +++ marker have no file and are dropped.
	diff := `@@ -1,1 +1,2 @@
+@app.get("/users")
`
	assert.Empty(t, NewScanner("").Scan(diff))
}

func TestScanFileContextCarriesAcrossHunks(t *testing.T) {
	diff := `+++ b/api.py
@@ -1,1 +1,2 @@
+@app.get("/a")
@@ -10,1 +20,2 @@
+@app.get("/b")
`
	endpoints := NewScanner("").Scan(diff)

	require.Len(t, endpoints, 2)
	assert.Equal(t, "api.py", endpoints[0].File)
	assert.Equal(t, "api.py", endpoints[1].File)
	assert.Equal(t, 1, endpoints[0].LineNumbers[0])
	assert.Equal(t, 20, endpoints[1].LineNumbers[0])
}

func TestScanLineCounting(t *testing.T) {
	diff := `+++ b/api.py
@@ -1,3 +7,4 @@
 import os
 import sys
+@app.get("/late")
`
	endpoints := NewScanner("").Scan(diff)

	require.Len(t, endpoints, 1)
	// Two context lines advance the counter from 7 to 9.
	assert.Equal(t, [2]int{9, 9}, endpoints[0].LineNumbers)
}

func TestScanFunctionNameDefaultsToUnknown(t *testing.T) {
	diff := `+++ b/api.py
@@ -1,1 +1,2 @@
+@app.get("/users")
`
	endpoints := NewScanner("").Scan(diff)

	require.Len(t, endpoints, 1)
	assert.Equal(t, "unknown", endpoints[0].Function)
}

func TestScanEmptyDiff(t *testing.T) {
	endpoints := NewScanner("").Scan("")
	assert.NotNil(t, endpoints)
	assert.Empty(t, endpoints)
}

func TestScanCustomSuffix(t *testing.T) {
	diff := `+++ b/api.rb
@@ -1,1 +1,2 @@
+@app.get("/users")
`
	assert.Empty(t, NewScanner(".py").Scan(diff))
	assert.Len(t, NewScanner(".rb").Scan(diff), 1)
}
