// ABOUTME: MCP dispatcher translating tools/list and tools/call onto the MODX client
// ABOUTME: Generates one tool per discovered processor plus a fixed session-info tool

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/azernov/modx-proxy/internal/modx"
	"github.com/azernov/modx-proxy/internal/tools"
)

// latestProtocolVersion is the version we advertise in initialize responses
const latestProtocolVersion = "2024-11-05"

// JSON-RPC 2.0 types

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// MCP-specific types

// ListToolsResult is the result for tools/list.
type ListToolsResult struct {
	Tools []tools.Tool `json:"tools"`
}

// CallToolParams are the params for tools/call.
type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// CallToolResult is the result for tools/call.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content represents content in a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// failurePayload is the structured body of an errored tool call. The
// dispatcher never lets an error escape across the transport boundary; it is
// always folded into this shape instead.
type failurePayload struct {
	Error     string         `json:"error"`
	Tool      string         `json:"tool"`
	Arguments map[string]any `json:"arguments"`
}

// CallRecord describes one completed tool invocation for auditing.
type CallRecord struct {
	RequestID string
	Tool      string
	Duration  time.Duration
	IsError   bool
}

// AuditSink receives completed call records. Implementations must tolerate
// being called concurrently.
type AuditSink interface {
	RecordCall(ctx context.Context, rec CallRecord) error
}

// Config holds configuration for the dispatcher.
type Config struct {
	Client *modx.Client
	Logger *slog.Logger
	Audit  AuditSink // optional
}

// Server dispatches MCP requests onto the MODX session client. Tool
// descriptors are derived on demand from the client's discovery cache.
type Server struct {
	client *modx.Client
	logger *slog.Logger
	audit  AuditSink
}

// NewServer creates a dispatcher backed by the given session client.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Client == nil {
		return nil, errors.New("modx client is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		client: cfg.Client,
		logger: logger.With("component", "mcp"),
		audit:  cfg.Audit,
	}, nil
}

// Handle processes one JSON-RPC request and returns the response to send, or
// nil for notifications, which get no response.
func (s *Server) Handle(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	isNotification := len(req.ID) == 0 || string(req.ID) == "null"

	if req.JSONRPC != "2.0" {
		if isNotification {
			return nil
		}
		return errorResponse(req.ID, JSONRPCInvalidRequest, "invalid JSON-RPC version")
	}

	if isNotification {
		if strings.HasPrefix(req.Method, "notifications/") {
			s.logger.Debug("accepted notification", "method", req.Method)
		} else {
			s.logger.Warn("received notification for non-notification method", "method", req.Method)
		}
		return nil
	}

	s.logger.Debug("MCP request", "method", req.Method)

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "ping":
		return resultResponse(req.ID, map[string]any{})
	case "tools/list":
		return s.handleToolsList(ctx, req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	default:
		return errorResponse(req.ID, JSONRPCMethodNotFound, "method not found")
	}
}

// handleInitialize answers the MCP initialize handshake.
func (s *Server) handleInitialize(req *JSONRPCRequest) *JSONRPCResponse {
	result := map[string]any{
		"protocolVersion": latestProtocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "modx-proxy",
			"version": Version,
		},
	}
	return resultResponse(req.ID, result)
}

// handleToolsList returns the fixed session-info tool plus one generated tool
// per cached processor. Without a session only the fixed tool exists, and no
// remote call is attempted. With a session but an empty cache, one discovery
// call happens here; if it fails the listing degrades to the fixed tool
// rather than failing outright.
func (s *Server) handleToolsList(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	result := ListToolsResult{
		Tools: []tools.Tool{tools.SessionInfoTool()},
	}

	if !s.client.Authenticated() {
		return resultResponse(req.ID, result)
	}

	list, err := s.client.ListProcessors(ctx, false)
	if err != nil {
		s.logger.Warn("processor discovery failed, listing session tool only", "error", err)
		return resultResponse(req.ID, result)
	}

	for _, p := range list.Processors {
		result.Tools = append(result.Tools, tools.Descriptor(p))
	}

	s.logger.Debug("tools/list", "count", len(result.Tools))

	return resultResponse(req.ID, result)
}

// handleToolsCall routes a call either to the fixed session-info tool or to
// the processor backing a generated tool. Every error raised along the way is
// folded into a structured failure payload; none propagate.
func (s *Server) handleToolsCall(ctx context.Context, req *JSONRPCRequest) *JSONRPCResponse {
	var params CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, JSONRPCInvalidParams, "invalid params")
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, JSONRPCInvalidParams, "tool name is required")
	}

	var args map[string]any
	if len(params.Arguments) > 0 && string(params.Arguments) != "null" {
		if err := json.Unmarshal(params.Arguments, &args); err != nil {
			return errorResponse(req.ID, JSONRPCInvalidParams, "arguments must be an object")
		}
	}

	requestID := uuid.New().String()
	start := time.Now()

	result := s.callTool(ctx, params.Name, args)

	s.recordCall(ctx, CallRecord{
		RequestID: requestID,
		Tool:      params.Name,
		Duration:  time.Since(start),
		IsError:   result.IsError,
	})

	s.logger.Debug("tools/call complete",
		"tool_name", params.Name,
		"request_id", requestID,
		"is_error", result.IsError,
	)

	return resultResponse(req.ID, result)
}

// callTool executes one tool invocation and normalizes the outcome.
func (s *Server) callTool(ctx context.Context, name string, args map[string]any) CallToolResult {
	if name == tools.SessionInfoToolName {
		return textResult(s.client.SessionInfo())
	}

	if !strings.HasPrefix(name, tools.Prefix) {
		return failureResult("unknown tool: "+name, name, args)
	}

	proc, ok := tools.Resolve(name, s.client.CachedProcessors())
	if !ok {
		return failureResult("unknown tool: "+name, name, args)
	}

	result, err := s.client.CallProcessor(ctx, proc.Namespace, proc.Path, args)
	if err != nil {
		return failureResult(errorMessage(err), name, args)
	}

	return textResult(result)
}

// errorMessage maps client errors onto the messages surfaced to the agent.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, modx.ErrUnauthenticated):
		return "not authenticated: call has no MODX session"
	case errors.Is(err, modx.ErrSessionExpired):
		return "MODX session expired: re-authentication required"
	default:
		return err.Error()
	}
}

func (s *Server) recordCall(ctx context.Context, rec CallRecord) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordCall(ctx, rec); err != nil {
		s.logger.Warn("audit record failed", "tool_name", rec.Tool, "error", err)
	}
}

// textResult serializes a value as the single text content of a successful
// tool result.
func textResult(v any) CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		// Everything we serialize here is built from decoded JSON; this
		// should be unreachable.
		return CallToolResult{
			Content: []Content{{Type: "text", Text: `{"error":"result serialization failed"}`}},
			IsError: true,
		}
	}
	return CallToolResult{
		Content: []Content{{Type: "text", Text: string(data)}},
	}
}

// failureResult builds the structured failure payload for an errored call.
func failureResult(message, tool string, args map[string]any) CallToolResult {
	if args == nil {
		args = map[string]any{}
	}
	data, _ := json.Marshal(failurePayload{
		Error:     message,
		Tool:      tool,
		Arguments: args,
	})
	return CallToolResult{
		Content: []Content{{Type: "text", Text: string(data)}},
		IsError: true,
	}
}

func resultResponse(id json.RawMessage, result any) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

func errorResponse(id json.RawMessage, code int, message string) *JSONRPCResponse {
	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &JSONRPCError{
			Code:    code,
			Message: message,
		},
	}
}
