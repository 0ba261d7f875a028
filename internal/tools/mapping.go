// ABOUTME: Deterministic mapping between MODX processors and MCP tool names
// ABOUTME: Forward mapping sanitizes names; reverse lookup searches the discovery cache

package tools

import (
	"strings"

	"github.com/azernov/modx-proxy/internal/modx"
)

// Prefix is the namespace every generated tool name lives under.
const Prefix = "modx_"

// SessionInfoToolName is the one fixed tool that exists regardless of
// authentication state.
const SessionInfoToolName = "modx_session_info"

// ToolName derives the MCP tool name for a processor. Both parts are
// lower-cased and every character outside [a-z0-9] becomes an underscore, so
// the mapping is lossy: "resource/getlist" and "resource_getlist" produce the
// same name. Reverse lookup therefore goes through the discovery cache rather
// than inverting this function; see Resolve.
func ToolName(namespace, path string) string {
	return Prefix + sanitize(namespace) + "_" + sanitize(path)
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Resolve finds the cached processor whose generated tool name matches. It
// returns false when the cache is nil, empty, or simply does not contain a
// matching processor. When two processors collide onto one name, the first in
// cache order wins.
func Resolve(name string, list *modx.ProcessorList) (modx.Processor, bool) {
	if list == nil {
		return modx.Processor{}, false
	}
	for _, p := range list.Processors {
		if ToolName(p.Namespace, p.Path) == name {
			return p, true
		}
	}
	return modx.Processor{}, false
}
