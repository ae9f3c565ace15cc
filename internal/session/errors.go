// ABOUTME: Sentinel errors for the session lifecycle
// ABOUTME: Distinguishes authoritative provider rejection from transient transport failure

package session

import "errors"

// Session errors
var (
	// ErrNotAuthenticated is returned when an action requires a valid token
	// and none is available. Callers should prompt for login; nothing retries.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRejected marks an authoritative provider rejection (the provider
	// answered and said no). Stored tokens are cleared only on this error,
	// never on a transient transport failure.
	ErrRejected = errors.New("provider rejected the request")

	// ErrExchangeFailed is returned when the authorization-code exchange
	// produced no token. No partial token is written.
	ErrExchangeFailed = errors.New("authorization code exchange failed")

	// ErrRefreshFailed is returned when the refresh grant produced no token.
	ErrRefreshFailed = errors.New("token refresh failed")
)
