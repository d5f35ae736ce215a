// Package diffscan pattern-matches unified-diff text for route-decorator
// lines and reports added or deleted HTTP endpoints.
package diffscan

import (
	"regexp"
	"strconv"
	"strings"
)

// EndpointChange describes one route decorator added to or removed from a
// diff.
type EndpointChange struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Function    string `json:"function"`
	File        string `json:"file"`
	Signature   string `json:"signature,omitempty"`
	Status      string `json:"status"`
	LineNumbers [2]int `json:"line_numbers"`
}

var (
	hunkHeaderPattern = regexp.MustCompile(`\+(\d+)`)
	funcDefPattern    = regexp.MustCompile(`def\s+(\w+)\s*\(`)

	// Decorator shapes, matched in order: app-verb, router-verb, and the
	// route-with-methods-list variant where the path comes first.
	appVerbPattern    = regexp.MustCompile(`(?i)@app\.(get|post|put|delete|patch|head|options)\s*\(["']([^"']+)["']`)
	routerVerbPattern = regexp.MustCompile(`(?i)@router\.(get|post|put|delete|patch|head|options)\s*\(["']([^"']+)["']`)
	routeListPattern  = regexp.MustCompile(`(?i)@.*\.route\s*\(["']([^"']+)["']\s*,\s*methods\s*=\s*\[["'](\w+)["']`)
)

// Scanner walks diff text line by line, tracking the current file and
// new-file line number as it goes.
type Scanner struct {
	sourceSuffix string
}

// NewScanner creates a Scanner that only inspects files with the given
// source suffix (".py" when empty).
func NewScanner(sourceSuffix string) *Scanner {
	if sourceSuffix == "" {
		sourceSuffix = ".py"
	}
	return &Scanner{sourceSuffix: sourceSuffix}
}

// Scan extracts endpoint changes from unified-diff text.
//
// The file context carries over between hunks exactly as the markers
// dictate: a hunk with no +++ line keeps attributing matches to the
// previous file. Downstream consumers depend on that, so it stays.
func (s *Scanner) Scan(diffText string) []EndpointChange {
	endpoints := []EndpointChange{}
	currentFile := ""
	currentLine := 0

	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "diff --git") || strings.HasPrefix(line, "+++ b/") {
			if strings.HasPrefix(line, "+++ b/") {
				currentFile = strings.TrimSpace(line[6:])
			}
			continue
		}
		if strings.HasPrefix(line, "new file mode") {
			continue
		}
		if strings.HasPrefix(line, "@@") {
			if m := hunkHeaderPattern.FindStringSubmatch(line); m != nil {
				currentLine, _ = strconv.Atoi(m[1])
			}
			continue
		}

		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++"):
			if ep, ok := s.parseEndpointLine(line[1:], currentFile, currentLine, "new"); ok {
				endpoints = append(endpoints, ep)
			}
			currentLine++
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "---"):
			// Deleted lines do not exist in the new file; the
			// counter stays put.
			if ep, ok := s.parseEndpointLine(line[1:], currentFile, currentLine, "deleted"); ok {
				endpoints = append(endpoints, ep)
			}
		case !strings.HasPrefix(line, "-"):
			currentLine++
		}
	}

	return endpoints
}

func (s *Scanner) parseEndpointLine(line, filePath string, lineNum int, status string) (EndpointChange, bool) {
	if filePath == "" || !strings.HasSuffix(filePath, s.sourceSuffix) {
		return EndpointChange{}, false
	}

	var method, path string
	if m := appVerbPattern.FindStringSubmatch(line); m != nil {
		method, path = strings.ToUpper(m[1]), m[2]
	} else if m := routerVerbPattern.FindStringSubmatch(line); m != nil {
		method, path = strings.ToUpper(m[1]), m[2]
	} else if m := routeListPattern.FindStringSubmatch(line); m != nil {
		path, method = m[1], strings.ToUpper(m[2])
	} else {
		return EndpointChange{}, false
	}

	function := "unknown"
	if m := funcDefPattern.FindStringSubmatch(line); m != nil {
		function = m[1]
	}

	return EndpointChange{
		Method:      method,
		Path:        path,
		Function:    function,
		File:        filePath,
		Status:      status,
		LineNumbers: [2]int{lineNum, lineNum},
	}, true
}
