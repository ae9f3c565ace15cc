// Package session owns the authentication state machine for the single
// per-process session against the identity provider.
//
// # Overview
//
// The Manager runs one authentication pass per process start (and again on
// explicit login): validate the stored id token, fall back to the refresh
// grant, fall back to exchanging an authorization code when the navigation
// carried one. Every outcome degrades to a state - nothing here is fatal.
//
// # State machine
//
//	Unauthenticated -> Validating -> Authenticated            (stored token valid)
//	                              -> Refreshing -> Authenticated
//	                              -> ExchangingCode -> Authenticated
//	                                               -> Failed
//
// # Contract
//
// Token() returns the current id token synchronously or fails with
// ErrNotAuthenticated. It never refreshes: refresh and exchange happen only
// inside Initialize, which is guarded by a singleflight group so at most one
// provider round trip is in flight regardless of how many callers race.
//
// # Failure policy
//
// An undecodable id token is treated as expired. Stored tokens are cleared
// only when the provider authoritatively rejects a grant (ErrRejected);
// transient transport failures retain them and fail the pass.
//
// # Login
//
// LoginURL() returns the provider's hosted login page. The CallbackServer
// binds the registered loopback redirect URI, captures the returning
// authorization code, and answers with a redirect that strips the code from
// the visible address. The captured code re-enters through Initialize.
package session
