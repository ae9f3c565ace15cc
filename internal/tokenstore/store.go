// ABOUTME: Store interface for the durable session credential store
// ABOUTME: Holds exactly two values - the id token and the refresh token

package tokenstore

import (
	"context"
	"errors"
)

// Credential keys. The store holds nothing else.
const (
	KeyIDToken      = "id_token"
	KeyRefreshToken = "refresh_token"
)

// ErrNotFound is returned when a credential key has no stored value.
var ErrNotFound = errors.New("credential not found")

// Store is the durable key/value store for session credentials.
// It is the sole durable copy of the session: in-memory token copies are
// caches of it, and every mutation writes through immediately.
type Store interface {
	// Get returns the stored value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the value for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the underlying storage.
	Close() error
}
