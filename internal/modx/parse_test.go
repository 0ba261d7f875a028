// ABOUTME: Tests for decoding of loosely-typed discovery metadata
// ABOUTME: Covers type coercion, missing-field defaults, and junk entries

package modx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProcessorListDefaults(t *testing.T) {
	for _, raw := range []map[string]any{nil, {}, {"processors": "not a list"}} {
		list := parseProcessorList(raw)
		assert.Empty(t, list.Processors)
		assert.Zero(t, list.Total)
		assert.Equal(t, "unknown", list.GeneratedAt)
	}
}

func TestParseProcessorListCoercion(t *testing.T) {
	// The PHP connector is sloppy about types: totals arrive as strings,
	// required flags as "1"/1/true depending on code path.
	list := parseProcessorList(map[string]any{
		"total":        "17",
		"generated_at": "2024-06-01 12:00:00",
		"processors": []any{
			map[string]any{
				"namespace":   "core",
				"path":        "resource/update",
				"description": "Update a resource",
				"parameters": []any{
					map[string]any{"name": "id", "type": "int", "required": "1"},
					map[string]any{"name": "published", "type": "bool", "required": 0, "default": false},
					map[string]any{"name": "fields", "type": "mixed", "required": false},
				},
			},
			"junk entry",
		},
	})

	assert.Equal(t, 17, list.Total)
	assert.Equal(t, "2024-06-01 12:00:00", list.GeneratedAt)
	require.Len(t, list.Processors, 1, "junk entries are skipped")

	p := list.Processors[0]
	require.Len(t, p.Parameters, 3)

	assert.Equal(t, ParamInteger, p.Parameters[0].Type)
	assert.True(t, p.Parameters[0].Required)
	assert.Nil(t, p.Parameters[0].Default)

	assert.Equal(t, ParamBoolean, p.Parameters[1].Type)
	assert.False(t, p.Parameters[1].Required)
	assert.Equal(t, false, p.Parameters[1].Default, "false is a real default and is kept")

	assert.Equal(t, ParamString, p.Parameters[2].Type, "unrecognized types collapse to string")
}

func TestCoerceParamType(t *testing.T) {
	tests := []struct {
		in   string
		want ParamType
	}{
		{"integer", ParamInteger},
		{"int", ParamInteger},
		{"boolean", ParamBoolean},
		{"bool", ParamBoolean},
		{"string", ParamString},
		{"text", ParamString},
		{"array", ParamArray},
		{"object", ParamObject},
		{"mixed", ParamString},
		{"modResource", ParamString},
		{"", ParamString},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, coerceParamType(tt.in), "coerceParamType(%q)", tt.in)
	}
}
