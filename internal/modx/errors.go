// ABOUTME: Error kinds surfaced by the MODX session client
// ABOUTME: Sentinel errors for auth state plus a typed error for HTTP failures

package modx

import (
	"errors"
	"fmt"
)

// Session errors
var (
	// ErrUnauthenticated is returned when an operation requiring a session is
	// attempted before a successful login.
	ErrUnauthenticated = errors.New("not authenticated with MODX")

	// ErrSessionExpired is returned when the remote rejects the session with a
	// 401 or 403. The local session state has already been reset by the time
	// callers see it.
	ErrSessionExpired = errors.New("MODX session expired")
)

// HTTPError reports a non-2xx response from the MODX installation that is not
// an auth rejection.
type HTTPError struct {
	Status int
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("MODX request to %s failed with HTTP %d", e.URL, e.Status)
}

// ParseError reports a response body that was expected to be JSON but was not.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing MODX %s response: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
