// ABOUTME: Tests for the loopback redirect listener
// ABOUTME: Verifies code capture, the strip-redirect, and one-shot delivery

package session

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackServer_RejectsBadRedirectURI(t *testing.T) {
	_, err := NewCallbackServer("://bad")
	assert.Error(t, err)

	_, err = NewCallbackServer("/callback")
	assert.Error(t, err)
}

func TestCallbackServer_CapturesCodeAndStripsAddress(t *testing.T) {
	s, err := NewCallbackServer("http://127.0.0.1:8910/callback")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/callback?code=one-time-code", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	// The browser is sent back to the bare path - no code in the address,
	// no extra history entry to land on later
	assert.Equal(t, 302, rec.Code)
	assert.Equal(t, "/callback", rec.Header().Get("Location"))

	select {
	case code := <-s.Code():
		assert.Equal(t, "one-time-code", code)
	default:
		t.Fatal("expected a captured code")
	}
}

func TestCallbackServer_DeliversCodeOnce(t *testing.T) {
	s, err := NewCallbackServer("http://127.0.0.1:8910/callback")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/callback?code=first", nil)
		rec := httptest.NewRecorder()
		s.handle(rec, req)
		assert.Equal(t, 302, rec.Code)
	}

	code, ok := <-s.Code()
	assert.True(t, ok)
	assert.Equal(t, "first", code)

	// Channel is closed after the single delivery
	_, ok = <-s.Code()
	assert.False(t, ok)
}

func TestCallbackServer_BarePathRendersClosePage(t *testing.T) {
	s, err := NewCallbackServer("http://127.0.0.1:8910/callback")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/callback", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "close this tab")
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
}

func TestCallbackServer_DefaultsPathToRoot(t *testing.T) {
	s, err := NewCallbackServer("http://127.0.0.1:8910")
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/?code=c", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)

	assert.Equal(t, "/", rec.Header().Get("Location"))
}
