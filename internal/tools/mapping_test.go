// ABOUTME: Tests for tool name generation and cache-backed reverse lookup
// ABOUTME: Documents the known lossy-collision behavior of the sanitization rule

package tools

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azernov/modx-proxy/internal/modx"
)

func TestToolName(t *testing.T) {
	tests := []struct {
		namespace string
		path      string
		want      string
	}{
		{"core", "resource/getlist", "modx_core_resource_getlist"},
		{"Core", "Resource/GetList", "modx_core_resource_getlist"},
		{"my-extra", "thing.do", "modx_my_extra_thing_do"},
		{"core", "security/user/create", "modx_core_security_user_create"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ToolName(tt.namespace, tt.path), "ToolName(%q, %q)", tt.namespace, tt.path)
	}
}

// The sanitization rule is lossy: distinct processors can collapse onto the
// same tool name. This documents the inherited behavior rather than fixing it;
// reverse lookup resolves collisions by cache order.
func TestToolNameCollision(t *testing.T) {
	a := ToolName("core", "resource/getlist")
	b := ToolName("core", "resource_getlist")
	assert.Equal(t, a, b)
}

func TestResolve(t *testing.T) {
	list := &modx.ProcessorList{
		Processors: []modx.Processor{
			{Namespace: "core", Path: "resource/getlist"},
			{Namespace: "core", Path: "resource/create"},
			{Namespace: "my-extra", Path: "items/list"},
		},
	}

	t.Run("round trip", func(t *testing.T) {
		for _, p := range list.Processors {
			got, ok := Resolve(ToolName(p.Namespace, p.Path), list)
			require.True(t, ok)
			assert.Equal(t, p.Namespace, got.Namespace)
			assert.Equal(t, p.Path, got.Path)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		_, ok := Resolve("modx_core_nope", list)
		assert.False(t, ok)
	})

	t.Run("nil cache", func(t *testing.T) {
		_, ok := Resolve("modx_core_resource_getlist", nil)
		assert.False(t, ok)
	})

	t.Run("empty cache", func(t *testing.T) {
		_, ok := Resolve("modx_core_resource_getlist", &modx.ProcessorList{})
		assert.False(t, ok)
	})

	t.Run("collision resolves to first in cache order", func(t *testing.T) {
		colliding := &modx.ProcessorList{
			Processors: []modx.Processor{
				{Namespace: "core", Path: "resource/getlist"},
				{Namespace: "core", Path: "resource_getlist"},
			},
		}
		got, ok := Resolve("modx_core_resource_getlist", colliding)
		require.True(t, ok)
		assert.Equal(t, "resource/getlist", got.Path)
	})
}
