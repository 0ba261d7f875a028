// Package tools maps MODX processor descriptors onto MCP tool descriptors.
// All functions here are pure; the dispatcher owns state.
package tools
