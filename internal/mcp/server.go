/*
Package mcp exposes the dispatch service as an MCP server over stdio.

The server speaks newline-delimited JSON-RPC 2.0 and exposes 3 tools:
  - dispatch_execute: Resolve and run the function for a prompt
  - dispatch_functions: List the registered functions
  - dispatch_history: Show a session's prompt history
*/
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/khanglvm/prompt-dispatch/internal/dispatch"
	"github.com/khanglvm/prompt-dispatch/internal/registry"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
)

// maxLineSize bounds one JSON-RPC message.
const maxLineSize = 1 << 20

// Dispatcher is the service behind the tools.
type Dispatcher interface {
	Execute(ctx context.Context, req dispatch.Request) (*dispatch.Result, error)
	History(ctx context.Context, sessionID string) ([]string, error)
}

// Catalog lists the registered functions.
type Catalog interface {
	Entries() []registry.Entry
}

// Server represents the prompt-dispatch MCP server.
type Server struct {
	dispatcher Dispatcher
	catalog    Catalog
	version    string
	logger     *slog.Logger

	outMu sync.Mutex
	out   io.Writer
}

// NewServer creates a new MCP server writing responses to out.
func NewServer(d Dispatcher, c Catalog, version string, out io.Writer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		dispatcher: d,
		catalog:    c,
		version:    version,
		logger:     logger,
		out:        out,
	}
}

// Run reads requests from in until it is exhausted or ctx is canceled.
func (s *Server) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		response, err := s.handleRequest(ctx, line)
		if err != nil {
			s.sendError(err)
			continue
		}

		if response != nil {
			s.sendResponse(response)
		}
	}

	return scanner.Err()
}

// MCPRequest represents an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleRequest processes an incoming MCP request. Notifications get no
// response.
func (s *Server) handleRequest(ctx context.Context, data []byte) (*MCPResponse, error) {
	var req MCPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC request: %w", err)
	}

	if req.ID == nil && strings.HasPrefix(req.Method, "notifications/") {
		s.logger.Debug("mcp notification", "method", req.Method)
		return nil, nil
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req), nil
	case "ping":
		return &MCPResponse{JSONRPC: "2.0", ID: req.ID, Result: map[string]interface{}{}}, nil
	case "tools/list":
		return s.handleToolsList(&req), nil
	case "tools/call":
		return s.handleToolsCall(ctx, &req), nil
	default:
		return errorResponse(req.ID, codeMethodNotFound, "Method not found"), nil
	}
}

// handleInitialize handles the MCP initialize request.
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "prompt-dispatch",
				"version": s.version,
			},
		},
	}
}

// handleToolsList returns the tool definitions.
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	tools := []map[string]interface{}{
		{
			"name": "dispatch_execute",
			"description": fmt.Sprintf(`Run the automation function that best matches a natural-language prompt.

The prompt is matched against the function descriptions by embedding similarity.
Returns the function name, its output and a Python script that calls it.

AVAILABLE FUNCTIONS:
%s`, s.functionCatalog()),
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"prompt": map[string]interface{}{
						"type":        "string",
						"description": "What the user wants to do, e.g. \"Open Chrome\"",
					},
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Session key; prompts are appended to its history",
					},
					"params": map[string]interface{}{
						"type":                 "object",
						"description":          "Optional string arguments, e.g. {\"directory\": \"/tmp\"} for list_files",
						"additionalProperties": map[string]interface{}{"type": "string"},
					},
				},
				"required": []string{"prompt", "session_id"},
			},
		},
		{
			"name":        "dispatch_functions",
			"description": "List every registered automation function with its description.",
			"inputSchema": map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			"name":        "dispatch_history",
			"description": "Show the prompts sent in a session, oldest first.",
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"session_id": map[string]interface{}{
						"type":        "string",
						"description": "Session key",
					},
				},
				"required": []string{"session_id"},
			},
		},
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": tools,
		},
	}
}

// functionCatalog formats the registered functions for tool descriptions.
func (s *Server) functionCatalog() string {
	var b strings.Builder
	for _, e := range s.catalog.Entries() {
		fmt.Fprintf(&b, "  • %s: %s\n", e.ID, e.Description)
	}
	return b.String()
}

// handleToolsCall handles tool execution requests.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("invalid params: %v", err))
	}

	var (
		text    string
		isError bool
		err     error
	)

	switch params.Name {
	case "dispatch_execute":
		text, isError, err = s.execDispatch(ctx, params.Arguments)
	case "dispatch_functions":
		text = s.execFunctions()
	case "dispatch_history":
		text, err = s.execHistory(ctx, params.Arguments)
	default:
		return errorResponse(req.ID, codeInvalidParams, fmt.Sprintf("Unknown tool: %s", params.Name))
	}

	if err != nil {
		code := codeServerError
		if errors.Is(err, dispatch.ErrInvalidRequest) {
			code = codeInvalidParams
		}
		return errorResponse(req.ID, code, err.Error())
	}

	result := map[string]interface{}{
		"content": []map[string]interface{}{
			{
				"type": "text",
				"text": text,
			},
		},
	}
	if isError {
		result["isError"] = true
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
	}
}

// execDispatch runs dispatch_execute. A failed handler is reported as a
// tool error rather than a protocol error.
func (s *Server) execDispatch(ctx context.Context, raw json.RawMessage) (string, bool, error) {
	var args struct {
		Prompt    string            `json:"prompt"`
		SessionID string            `json:"session_id"`
		Params    map[string]string `json:"params"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", false, fmt.Errorf("%w: %v", dispatch.ErrInvalidRequest, err)
		}
	}

	res, err := s.dispatcher.Execute(ctx, dispatch.Request{
		Prompt:    args.Prompt,
		SessionID: args.SessionID,
		Params:    args.Params,
	})
	if err != nil {
		return "", false, err
	}

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", false, err
	}
	return string(data), res.Err != nil, nil
}

// execFunctions runs dispatch_functions.
func (s *Server) execFunctions() string {
	entries := s.catalog.Entries()
	if len(entries) == 0 {
		return "No functions registered."
	}
	return fmt.Sprintf("Registered functions (%d):\n%s", len(entries), s.functionCatalog())
}

// execHistory runs dispatch_history.
func (s *Server) execHistory(ctx context.Context, raw json.RawMessage) (string, error) {
	var args struct {
		SessionID string `json:"session_id"`
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", fmt.Errorf("%w: %v", dispatch.ErrInvalidRequest, err)
		}
	}

	history, err := s.dispatcher.History(ctx, args.SessionID)
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return fmt.Sprintf("Session '%s' has no prompts.", args.SessionID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Session '%s' (%d prompts):\n", args.SessionID, len(history))
	for i, p := range history {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return b.String(), nil
}

func errorResponse(id interface{}, code int, msg string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &MCPError{Code: code, Message: msg},
	}
}

// sendResponse writes a JSON-RPC response as one line.
func (s *Server) sendResponse(resp *MCPResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("failed to encode response", "error", err)
		return
	}

	s.outMu.Lock()
	defer s.outMu.Unlock()
	if _, err := fmt.Fprintln(s.out, string(data)); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// sendError writes a parse error response.
func (s *Server) sendError(err error) {
	s.sendResponse(errorResponse(nil, codeParseError, err.Error()))
}
