// Package audit records tool invocations to a local SQLite database for
// operator inspection. Auditing is optional; the proxy runs without it.
package audit
