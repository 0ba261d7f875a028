// Package modx is the HTTP session client for a remote MODX installation.
//
// One Client holds one authenticated manager session for the lifetime of the
// process. Login uses the stock security/login processor and keeps the
// session cookie in a jar; discovery asks the modx-mcp extra's connector for
// the list of invokable processors; CallProcessor forwards arbitrary keyed
// data to any of them as a form-encoded POST.
//
// Auth state is strict: any 401 or 403 from the remote resets the session
// immediately, and subsequent calls fail with ErrUnauthenticated without
// touching the network until the next successful Login.
package modx
