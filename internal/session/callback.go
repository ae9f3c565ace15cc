// ABOUTME: Loopback HTTP listener that receives the provider's login redirect
// ABOUTME: Captures the authorization code and strips it from the visible address

package session

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"
)

const callbackPage = `<!doctype html>
<html>
<head><title>Signed in</title></head>
<body>
<p>Signed in. You can close this tab and return to the terminal.</p>
</body>
</html>
`

// CallbackServer listens on the registered redirect URI and hands the
// one-time authorization code to the process. The redirect carrying
// ?code=... is answered with a redirect back to the bare path, so the code
// never stays in the browser's visible address and the landing page loads
// without it.
type CallbackServer struct {
	addr   string
	path   string
	srv    *http.Server
	codeCh chan string
	once   sync.Once
	logger *slog.Logger
}

// NewCallbackServer creates a callback listener for the given redirect URI.
// The URI's host must be a loopback address this process can bind.
func NewCallbackServer(redirectURI string) (*CallbackServer, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("parsing redirect URI: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("redirect URI %q has no host", redirectURI)
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	s := &CallbackServer{
		addr:   u.Host,
		path:   path,
		codeCh: make(chan string, 1),
		logger: slog.Default().With("component", "callback"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s, nil
}

// Start begins listening. It returns once the listener is bound; serving
// continues in the background until Shutdown.
func (s *CallbackServer) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("binding callback listener on %s: %w", s.addr, err)
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("callback server error", "error", err)
		}
	}()

	s.logger.Debug("callback listener started", "addr", s.addr)
	return nil
}

// Code returns the channel delivering the captured authorization code.
// At most one code is ever delivered.
func (s *CallbackServer) Code() <-chan string {
	return s.codeCh
}

// Shutdown stops the listener
func (s *CallbackServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// handle serves the redirect target. A request carrying a code is redirected
// to the bare path (the strip happens here, exactly once); the bare path
// renders a small close-this-tab page.
func (s *CallbackServer) handle(w http.ResponseWriter, r *http.Request) {
	if code := r.URL.Query().Get("code"); code != "" {
		s.once.Do(func() {
			s.codeCh <- code
			close(s.codeCh)
		})
		http.Redirect(w, r, s.path, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, callbackPage)
}
