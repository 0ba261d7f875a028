// ABOUTME: Generation of MCP tool descriptors from MODX processor metadata
// ABOUTME: Builds JSON Schema input shapes from the heterogeneous parameter list

package tools

import (
	"github.com/azernov/modx-proxy/internal/modx"
)

// reservedParams are connector implementation details that must never surface
// in a generated schema. The auth token field is injected by the proxy itself.
var reservedParams = map[string]bool{
	"HTTP_MODAUTH": true,
}

// Tool is one callable descriptor as exposed over the transport.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// SessionInfoTool returns the fixed tool that reports session state. It takes
// no parameters and is always listed first.
func SessionInfoTool() Tool {
	return Tool{
		Name:        SessionInfoToolName,
		Description: "Get information about the current MODX session",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

// Descriptor generates the tool descriptor for one processor. The mapping is
// pure: same processor in, same descriptor out.
func Descriptor(p modx.Processor) Tool {
	properties := map[string]any{}
	var required []string

	for _, param := range p.Parameters {
		if excluded(param.Name) {
			continue
		}

		prop := map[string]any{
			"type": schemaType(param.Type),
		}
		if param.Description != "" {
			prop["description"] = param.Description
		}
		if hasDefault(param.Default) {
			prop["default"] = param.Default
		}
		properties[param.Name] = prop

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": properties,
		// The remote metadata is not guaranteed complete, so undeclared
		// arguments pass through rather than being rejected.
		"additionalProperties": true,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return Tool{
		Name:        ToolName(p.Namespace, p.Path),
		Description: p.Description + " (" + p.Namespace + "/" + p.Path + ")",
		InputSchema: schema,
	}
}

// excluded reports whether a parameter is a remote-side implementation detail.
func excluded(name string) bool {
	if name == "" {
		return true
	}
	if name[0] == '_' {
		return true
	}
	return reservedParams[name]
}

// hasDefault reports whether a default is worth declaring: defined, non-nil,
// and not an empty string. Zero and false are real defaults and are kept.
func hasDefault(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok && s == "" {
		return false
	}
	return true
}

func schemaType(t modx.ParamType) string {
	switch t {
	case modx.ParamInteger:
		return "integer"
	case modx.ParamBoolean:
		return "boolean"
	case modx.ParamArray:
		return "array"
	case modx.ParamObject:
		return "object"
	default:
		return "string"
	}
}
