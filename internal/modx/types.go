// ABOUTME: Data model for the MODX session client
// ABOUTME: Processor descriptors, session snapshots, and tagged call results

package modx

import "time"

// ParamType is the closed set of parameter types the modx-mcp discovery
// connector reports. Anything it does not recognize is ParamString.
type ParamType string

const (
	ParamInteger ParamType = "integer"
	ParamBoolean ParamType = "boolean"
	ParamString  ParamType = "string"
	ParamArray   ParamType = "array"
	ParamObject  ParamType = "object"
)

// Parameter describes one input of a remote processor.
type Parameter struct {
	Name        string
	Type        ParamType
	Required    bool
	Description string
	// Default is nil when the remote metadata declares no default.
	Default any
}

// Processor describes one remote-invokable action, identified by its
// namespace and path. The path may itself contain slashes
// (e.g. "resource/getlist").
type Processor struct {
	Namespace   string
	Path        string
	Description string
	Parameters  []Parameter
}

// ProcessorList is one immutable discovery snapshot. It is replaced whole on
// refresh, never patched.
type ProcessorList struct {
	Processors  []Processor
	Total       int
	GeneratedAt string
}

// SessionInfo is a read-only snapshot of the client's session state.
type SessionInfo struct {
	BaseURL         string         `json:"baseUrl"`
	IsAuthenticated bool           `json:"isAuthenticated"`
	User            map[string]any `json:"user,omitempty"`
	LoginTime       *time.Time     `json:"loginTime,omitempty"`
	LastActivity    *time.Time     `json:"lastActivity,omitempty"`
	ProcessorCount  int            `json:"processorCount"`
}

// LoginResult is the tagged outcome of a login attempt. Login never fails
// with a Go error: rejected credentials, transport failures, and malformed
// responses all come back as Success == false with a message.
type LoginResult struct {
	Success     bool           `json:"success"`
	Message     string         `json:"message,omitempty"`
	User        map[string]any `json:"user,omitempty"`
	SessionInfo SessionInfo    `json:"sessionInfo"`
}

// LogoutResult is the outcome of a logout. Success is always true: remote
// logout failures are swallowed and local state is reset regardless.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// CallResult is the normalized outcome of a generic processor invocation.
type CallResult struct {
	// Success mirrors the remote "success" field. A response without an
	// explicit success field counts as successful.
	Success bool `json:"success"`
	// Data is the first populated of the remote "data", "object", and
	// "results" fields, or nil if none were present. For a non-JSON response
	// body it is the raw body string.
	Data any `json:"data,omitempty"`
	// Raw carries every field of the remote JSON envelope for callers that
	// need something Data did not surface. Nil for non-JSON responses.
	Raw map[string]any `json:"raw,omitempty"`
}
