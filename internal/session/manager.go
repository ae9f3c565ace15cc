// ABOUTME: SessionManager owns the single per-process authentication state machine
// ABOUTME: Validates stored tokens, refreshes, exchanges authorization codes

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/samhq/sam-client/internal/tokenstore"
)

// State is the session state machine's current position
type State int

// Session states. The pass runs Unauthenticated -> Validating and from there
// to Authenticated directly, via Refreshing, or via ExchangingCode.
const (
	StateUnauthenticated State = iota
	StateValidating
	StateRefreshing
	StateExchangingCode
	StateAuthenticated
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateValidating:
		return "validating"
	case StateRefreshing:
		return "refreshing"
	case StateExchangingCode:
		return "exchanging_code"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TokenEndpoint defines what the manager needs from the identity provider
type TokenEndpoint interface {
	AuthorizeURL() string
	ExchangeCode(ctx context.Context, code string) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// Manager owns the one session this process has. The durable copy of the
// session lives in the token store; the manager's in-memory token is a
// write-through cache of it and never diverges.
type Manager struct {
	store    tokenstore.Store
	provider TokenEndpoint
	logger   *slog.Logger

	// flight collapses concurrent Initialize calls into one provider
	// round trip. Token() never refreshes, so this is the only place a
	// refresh or exchange can be in flight.
	flight singleflight.Group

	mu          sync.Mutex
	state       State
	idToken     string
	subscribers []func(State)
}

// NewManager creates a session manager over the given store and provider
func NewManager(store tokenstore.Store, provider TokenEndpoint, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		store:    store,
		provider: provider,
		logger:   logger.With("component", "session"),
		state:    StateUnauthenticated,
	}
}

// Subscribe registers fn to be called on every state transition.
// Callbacks run synchronously on the transitioning goroutine.
func (m *Manager) Subscribe(fn func(State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribers = append(m.subscribers, fn)
}

// State returns the current session state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Authenticated reports whether a valid session is established
func (m *Manager) Authenticated() bool {
	return m.State() == StateAuthenticated
}

// LoginURL returns the provider's hosted login URL. Visiting it is the
// interactive half of the flow; the resulting authorization code re-enters
// through Initialize.
func (m *Manager) LoginURL() string {
	return m.provider.AuthorizeURL()
}

// Token returns the current id token if the session is authenticated.
// It never triggers a refresh: refresh happens only inside Initialize, so
// concurrent sends share one session check instead of racing the provider.
func (m *Manager) Token() (string, error) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return "", ErrNotAuthenticated
	}
	token := m.idToken
	m.mu.Unlock()

	// The session may have aged out since the load-time pass
	if isTokenExpired(token) {
		m.setState(StateUnauthenticated)
		return "", fmt.Errorf("%w: token expired", ErrNotAuthenticated)
	}

	return token, nil
}

// Subject returns the sub claim of the current id token, or "" when the
// session is not authenticated.
func (m *Manager) Subject() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateAuthenticated {
		return ""
	}
	return tokenSubject(m.idToken)
}

// Initialize runs the load-time authentication pass: validate the stored id
// token, refresh it if possible, then exchange the authorization code if one
// is present. code may be empty. Concurrent callers share a single pass.
//
// A nil return means the session is authenticated. ErrNotAuthenticated means
// there is no session and the user must log in; other errors describe why
// the pass failed.
func (m *Manager) Initialize(ctx context.Context, code string) error {
	_, err, _ := m.flight.Do("initialize", func() (interface{}, error) {
		return nil, m.initialize(ctx, code)
	})
	return err
}

func (m *Manager) initialize(ctx context.Context, code string) error {
	m.setState(StateValidating)

	// 1. A stored, unexpired id token wins outright
	idToken, err := m.store.Get(ctx, tokenstore.KeyIDToken)
	if err != nil && !errors.Is(err, tokenstore.ErrNotFound) {
		m.setState(StateFailed)
		return fmt.Errorf("reading stored id token: %w", err)
	}
	if idToken != "" && !isTokenExpired(idToken) {
		m.become(idToken)
		m.logger.Debug("stored id token still valid")
		return nil
	}

	// 2. Try the refresh grant if a refresh token is stored
	refreshToken, err := m.store.Get(ctx, tokenstore.KeyRefreshToken)
	if err != nil && !errors.Is(err, tokenstore.ErrNotFound) {
		m.setState(StateFailed)
		return fmt.Errorf("reading stored refresh token: %w", err)
	}
	if refreshToken != "" {
		m.setState(StateRefreshing)
		tokens, err := m.provider.Refresh(ctx, refreshToken)
		if err == nil {
			if perr := m.persist(ctx, tokens); perr != nil {
				m.setState(StateFailed)
				return perr
			}
			m.become(tokens.IDToken)
			m.logger.Info("session refreshed")
			return nil
		}

		// Only an authoritative rejection invalidates the stored tokens.
		// A transient failure keeps them so the next pass can retry.
		if errors.Is(err, ErrRejected) {
			m.logger.Warn("refresh token rejected, clearing stored session", "error", err)
			if cerr := m.clearStored(ctx); cerr != nil {
				m.setState(StateFailed)
				return cerr
			}
		} else {
			m.logger.Warn("token refresh failed", "error", err)
			if code == "" {
				m.setState(StateUnauthenticated)
				return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
			}
		}
	}

	// 3. Exchange the authorization code if the navigation carried one
	if code != "" {
		m.setState(StateExchangingCode)
		tokens, err := m.provider.ExchangeCode(ctx, code)
		if err != nil {
			m.logger.Warn("authorization code exchange failed", "error", err)
			m.setState(StateFailed)
			return fmt.Errorf("%w: %v", ErrExchangeFailed, err)
		}
		if perr := m.persist(ctx, tokens); perr != nil {
			m.setState(StateFailed)
			return perr
		}
		m.become(tokens.IDToken)
		m.logger.Info("authorization code exchanged")
		return nil
	}

	m.setState(StateUnauthenticated)
	return ErrNotAuthenticated
}

// Logout clears the stored session and returns to Unauthenticated
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.clearStored(ctx); err != nil {
		return err
	}
	m.setState(StateUnauthenticated)
	m.logger.Info("session cleared")
	return nil
}

// persist writes both tokens through to the durable store. The refresh token
// is only replaced when the provider issued a new one.
func (m *Manager) persist(ctx context.Context, tokens *TokenResponse) error {
	if err := m.store.Set(ctx, tokenstore.KeyIDToken, tokens.IDToken); err != nil {
		return fmt.Errorf("persisting id token: %w", err)
	}
	if tokens.RefreshToken != "" {
		if err := m.store.Set(ctx, tokenstore.KeyRefreshToken, tokens.RefreshToken); err != nil {
			return fmt.Errorf("persisting refresh token: %w", err)
		}
	}
	return nil
}

func (m *Manager) clearStored(ctx context.Context) error {
	if err := m.store.Delete(ctx, tokenstore.KeyIDToken); err != nil {
		return fmt.Errorf("clearing id token: %w", err)
	}
	if err := m.store.Delete(ctx, tokenstore.KeyRefreshToken); err != nil {
		return fmt.Errorf("clearing refresh token: %w", err)
	}
	return nil
}

// become caches the id token and enters Authenticated
func (m *Manager) become(idToken string) {
	m.mu.Lock()
	m.idToken = idToken
	m.mu.Unlock()
	m.setState(StateAuthenticated)
}

// setState transitions the state machine and notifies subscribers.
// Subscribers are called outside the lock.
func (m *Manager) setState(next State) {
	m.mu.Lock()
	prev := m.state
	m.state = next
	if next != StateAuthenticated {
		m.idToken = ""
	}
	subs := make([]func(State), len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	if prev != next {
		m.logger.Debug("session state", "from", prev.String(), "to", next.String())
	}
	for _, fn := range subs {
		fn(next)
	}
}
