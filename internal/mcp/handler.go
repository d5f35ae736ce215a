// Package mcp implements a JSON-RPC 2.0 tool server over stdio.
//
// Tool results and domain failures both travel as transport-level
// successes: a failed tool call returns a structured error payload in the
// result, and JSON-RPC errors are reserved for protocol problems (unknown
// method, bad params, malformed JSON).
package mcp

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/docscopilot/docscopilot/internal/errors"
	"github.com/docscopilot/docscopilot/internal/mcp/tools"
)

// Tool is one callable tool exposed by a server.
type Tool interface {
	Execute(ctx context.Context, args map[string]interface{}) (interface{}, error)
	GetSchema() map[string]interface{}
}

// Handler routes JSON-RPC requests to registered tools.
type Handler struct {
	serverName string
	version    string
	tools      map[string]Tool
	order      []string
	log        *logrus.Logger
}

// NewHandler creates a Handler identifying itself with the given server
// name and version.
func NewHandler(serverName, version string, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{
		serverName: serverName,
		version:    version,
		tools:      make(map[string]Tool),
		log:        log,
	}
}

// RegisterTool registers a tool under name. Registration order is the
// order tools/list reports.
func (h *Handler) RegisterTool(name string, tool Tool) {
	if _, exists := h.tools[name]; !exists {
		h.order = append(h.order, name)
	}
	h.tools[name] = tool
}

// Handle processes one JSON-RPC request.
func (h *Handler) Handle(ctx context.Context, req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(req)
	case "tools/list":
		return h.handleToolsList(req)
	case "tools/call":
		return h.handleToolCall(ctx, req)
	default:
		return &tools.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &tools.JSONRPCError{
				Code:    -32601,
				Message: "Method not found",
			},
		}
	}
}

func (h *Handler) handleInitialize(req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	return &tools.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "1.0",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]string{
				"name":    h.serverName,
				"version": h.version,
			},
		},
	}
}

func (h *Handler) handleToolsList(req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	toolsList := []map[string]interface{}{}
	for _, name := range h.order {
		toolsList = append(toolsList, map[string]interface{}{
			"name":        name,
			"inputSchema": h.tools[name].GetSchema(),
		})
	}

	return &tools.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": toolsList,
		},
	}
}

func (h *Handler) handleToolCall(ctx context.Context, req *tools.JSONRPCRequest) *tools.JSONRPCResponse {
	toolName, ok := req.Params["name"].(string)
	if !ok {
		return &tools.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &tools.JSONRPCError{
				Code:    -32602,
				Message: "Invalid params: 'name' is required",
			},
		}
	}

	tool, exists := h.tools[toolName]
	if !exists {
		return &tools.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &tools.JSONRPCError{
				Code:    -32602,
				Message: "Tool not found: " + toolName,
			},
		}
	}

	args, ok := req.Params["arguments"].(map[string]interface{})
	if !ok {
		args = make(map[string]interface{})
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		h.log.WithFields(logrus.Fields{
			"tool":  toolName,
			"error": err.Error(),
		}).Warn("tool call failed")
		return &tools.JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  textContent(errors.ToPayload(err)),
		}
	}

	return &tools.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  textContent(result),
	}
}

// textContent wraps a value as a single JSON text content block.
func textContent(v interface{}) map[string]interface{} {
	encoded, err := json.Marshal(v)
	if err != nil {
		encoded, _ = json.Marshal(errors.ToPayload(err))
	}
	return map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": string(encoded)},
		},
	}
}
