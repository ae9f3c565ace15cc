// ABOUTME: HTTP client for the identity provider's OAuth2 endpoints
// ABOUTME: Implements the authorization_code and refresh_token form grants

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/samhq/sam-client/internal/config"
)

// TokenResponse is the provider's answer to a token grant.
// Absence of id_token is treated as failure regardless of HTTP status.
type TokenResponse struct {
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
}

// oauthError is the provider's error body on rejected grants
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Provider calls the identity provider's OAuth2 endpoints. It is a client
// for exactly one provider with fixed client id, redirect target, and scopes.
type Provider struct {
	domain      string
	clientID    string
	redirectURI string
	scope       string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewProvider creates a provider client from configuration.
// The configured token timeout bounds every call; expiry surfaces as a
// transport failure, not a rejection.
func NewProvider(cfg config.ProviderConfig) *Provider {
	return &Provider{
		domain:      strings.TrimRight(cfg.Domain, "/"),
		clientID:    cfg.ClientID,
		redirectURI: cfg.RedirectURI,
		scope:       cfg.Scope,
		httpClient:  &http.Client{Timeout: cfg.TokenTimeout},
		logger:      slog.Default().With("component", "provider"),
	}
}

// AuthorizeURL returns the hosted login URL the user's browser should visit.
// The round trip ends at the redirect URI with a one-time authorization code.
func (p *Provider) AuthorizeURL() string {
	q := url.Values{
		"response_type": {"code"},
		"client_id":     {p.clientID},
		"redirect_uri":  {p.redirectURI},
		"scope":         {p.scope},
	}
	return p.domain + "/oauth2/authorize?" + q.Encode()
}

// ExchangeCode trades a one-time authorization code for tokens
func (p *Provider) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":   {"authorization_code"},
		"client_id":    {p.clientID},
		"code":         {code},
		"redirect_uri": {p.redirectURI},
	}
	return p.token(ctx, form)
}

// Refresh trades a refresh token for a new id token (and possibly a new
// refresh token, which replaces the old one when present).
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {p.clientID},
		"refresh_token": {refreshToken},
	}
	return p.token(ctx, form)
}

// token posts a form grant to /oauth2/token and classifies the outcome.
// Classification matters to the caller: ErrRejected means the provider
// authoritatively refused (stored tokens may be cleared); any other error
// is transient and stored tokens must be retained.
func (p *Provider) token(ctx context.Context, form url.Values) (*TokenResponse, error) {
	endpoint := p.domain + "/oauth2/token"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling token endpoint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	grant := form.Get("grant_type")

	// 4xx is the provider saying no. 5xx and undecodable bodies are treated
	// as transient so a flaky provider cannot destroy a valid refresh token.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		var oe oauthError
		if json.Unmarshal(body, &oe) == nil && oe.Error != "" {
			p.logger.Warn("token grant rejected", "grant_type", grant, "error", oe.Error)
			return nil, fmt.Errorf("%w: %s", ErrRejected, oe.Error)
		}
		p.logger.Warn("token grant rejected", "grant_type", grant, "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr TokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decoding token response: %w", err)
	}

	if tr.IDToken == "" {
		p.logger.Warn("token response missing id_token", "grant_type", grant)
		return nil, fmt.Errorf("%w: response missing id_token", ErrRejected)
	}

	return &tr, nil
}
