// ABOUTME: Tests for tool descriptor generation from processor metadata
// ABOUTME: Covers parameter exclusion, defaults, required flags, and type mapping

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azernov/modx-proxy/internal/modx"
)

func TestDescriptor(t *testing.T) {
	tool := Descriptor(modx.Processor{
		Namespace:   "core",
		Path:        "resource/getlist",
		Description: "List resources",
		Parameters: []modx.Parameter{
			{Name: "limit", Type: modx.ParamInteger, Default: float64(20), Description: "Page size"},
			{Name: "start", Type: modx.ParamInteger},
			{Name: "parent", Type: modx.ParamInteger, Required: true},
			{Name: "published", Type: modx.ParamBoolean, Default: false},
			{Name: "query", Type: modx.ParamString, Default: ""},
			{Name: "_internal", Type: modx.ParamString},
			{Name: "HTTP_MODAUTH", Type: modx.ParamString},
		},
	})

	assert.Equal(t, "modx_core_resource_getlist", tool.Name)
	assert.Equal(t, "List resources (core/resource/getlist)", tool.Description)

	schema := tool.InputSchema
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, true, schema["additionalProperties"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)

	assert.Len(t, props, 5, "_internal and HTTP_MODAUTH must be excluded")
	assert.NotContains(t, props, "_internal")
	assert.NotContains(t, props, "HTTP_MODAUTH")

	limit := props["limit"].(map[string]any)
	assert.Equal(t, "integer", limit["type"])
	assert.Equal(t, float64(20), limit["default"])
	assert.Equal(t, "Page size", limit["description"])

	start := props["start"].(map[string]any)
	assert.NotContains(t, start, "default", "undefined default is not declared")

	published := props["published"].(map[string]any)
	assert.Equal(t, false, published["default"], "false is a declarable default")

	query := props["query"].(map[string]any)
	assert.NotContains(t, query, "default", "empty-string default is not declared")

	assert.Equal(t, []string{"parent"}, schema["required"])
}

func TestDescriptorNoRequired(t *testing.T) {
	tool := Descriptor(modx.Processor{
		Namespace:  "core",
		Path:       "context/getlist",
		Parameters: []modx.Parameter{{Name: "limit", Type: modx.ParamInteger}},
	})

	assert.NotContains(t, tool.InputSchema, "required",
		"no required list when nothing is required")
}

func TestDescriptorTypeMapping(t *testing.T) {
	tool := Descriptor(modx.Processor{
		Namespace: "core",
		Path:      "x",
		Parameters: []modx.Parameter{
			{Name: "i", Type: modx.ParamInteger},
			{Name: "b", Type: modx.ParamBoolean},
			{Name: "s", Type: modx.ParamString},
			{Name: "a", Type: modx.ParamArray},
			{Name: "o", Type: modx.ParamObject},
		},
	})

	props := tool.InputSchema["properties"].(map[string]any)
	want := map[string]string{"i": "integer", "b": "boolean", "s": "string", "a": "array", "o": "object"}
	for name, typ := range want {
		prop := props[name].(map[string]any)
		assert.Equal(t, typ, prop["type"], "parameter %s", name)
	}
}

func TestSessionInfoTool(t *testing.T) {
	tool := SessionInfoTool()

	assert.Equal(t, SessionInfoToolName, tool.Name)
	props, ok := tool.InputSchema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Empty(t, props)
}

func TestDescriptorIsDeterministic(t *testing.T) {
	p := modx.Processor{
		Namespace:   "core",
		Path:        "resource/getlist",
		Description: "List resources",
		Parameters:  []modx.Parameter{{Name: "limit", Type: modx.ParamInteger, Required: true}},
	}

	assert.Equal(t, Descriptor(p), Descriptor(p))
}
