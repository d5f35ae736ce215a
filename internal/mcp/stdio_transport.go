package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/docscopilot/docscopilot/internal/mcp/tools"
)

// StdioTransport reads newline-delimited JSON-RPC requests and writes one
// response line per request.
type StdioTransport struct {
	in      *bufio.Scanner
	out     io.Writer
	handler *Handler
	log     *logrus.Logger
}

// NewStdioTransport creates a transport over the given reader and writer.
func NewStdioTransport(handler *Handler, in io.Reader, out io.Writer, log *logrus.Logger) *StdioTransport {
	if log == nil {
		log = logrus.New()
	}
	scanner := bufio.NewScanner(in)
	// Tool arguments can carry whole documents; the default 64KB line
	// limit is too small.
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	return &StdioTransport{
		in:      scanner,
		out:     out,
		handler: handler,
		log:     log,
	}
}

// Start processes requests until the input stream closes or ctx is
// cancelled.
func (t *StdioTransport) Start(ctx context.Context) error {
	for t.in.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := t.in.Text()
		if line == "" {
			continue
		}

		var req tools.JSONRPCRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			t.sendError(nil, -32700, "Parse error")
			continue
		}

		t.send(t.handler.Handle(ctx, &req))
	}
	return t.in.Err()
}

func (t *StdioTransport) send(response *tools.JSONRPCResponse) {
	respJSON, err := json.Marshal(response)
	if err != nil {
		t.log.WithError(err).Error("failed to marshal response")
		return
	}
	fmt.Fprintln(t.out, string(respJSON))
}

func (t *StdioTransport) sendError(id interface{}, code int, message string) {
	t.send(&tools.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &tools.JSONRPCError{
			Code:    code,
			Message: message,
		},
	})
}
