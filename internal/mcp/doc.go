// Package mcp implements the Model Context Protocol side of the proxy.
//
// # Overview
//
// The dispatcher sits between an MCP host (Claude Desktop, Claude Code, any
// JSON-RPC-speaking agent runner) and the MODX session client. It answers
// exactly two interesting methods:
//
//   - tools/list: one fixed session-info tool, plus one generated tool per
//     processor the modx-mcp connector reported. Without an authenticated
//     session only the fixed tool is listed and no remote call is made.
//   - tools/call: the session-info tool is served locally; generated tool
//     names are resolved back to their (namespace, path) through the
//     discovery cache and forwarded to the remote processor.
//
// # Transport
//
// The transport is newline-delimited JSON-RPC 2.0 over stdin/stdout, the MCP
// stdio framing. Notifications get no response; everything else gets exactly
// one response line. Errors raised while handling a tool call never become
// transport faults: they are folded into a structured failure payload with
// isError set, so the host always receives a well-formed result.
//
// # Tool naming
//
// Generated names are modx_<namespace>_<path> with both parts lower-cased and
// non-alphanumerics replaced by underscores. The transform is lossy and two
// distinct processors can collide onto one name; resolution picks the first
// match in cache order. See the tools package.
package mcp
