// Package authflow runs the loopback half of the OAuth redirect flow: a
// short-lived local HTTP listener that receives the provider callback,
// exchanges the authorization code for a session, and reports the outcome.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/logging"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

var (
	ErrStateMismatch = errors.New("state mismatch on oauth callback")
	ErrFlowClosed    = errors.New("sign-in flow closed before completion")
)

const shutdownTimeout = 2 * time.Second

// Flow is one sign-in attempt. It owns a listener bound to a loopback port
// and completes when the provider redirects back with a code.
type Flow struct {
	auth  backend.Auth
	log   logging.Logger
	state string

	listener net.Listener
	server   *http.Server

	once   sync.Once
	result chan flowResult
}

type flowResult struct {
	user *backend.User
	err  error
}

// Start binds a loopback listener and begins serving the callback routes.
// addr may be "127.0.0.1:0" to pick a free port.
func Start(auth backend.Auth, addr string, log logging.Logger) (*Flow, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("callback listener: %w", err)
	}

	f := &Flow{
		auth:     auth,
		log:      log,
		state:    uuid.NewString(),
		listener: listener,
		result:   make(chan flowResult, 1),
	}

	r := chi.NewRouter()
	r.Get("/", f.handleRoot)
	r.Get("/auth/callback", f.handleCallback)

	f.server = &http.Server{Handler: r}
	go func() {
		if err := f.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.log.Warn(context.Background(), "callback server stopped", "error", err)
		}
	}()

	return f, nil
}

// AuthorizeURL is the provider URL the user's browser should open.
func (f *Flow) AuthorizeURL() string {
	return f.auth.AuthorizeURL(f.state, f.redirectURI())
}

func (f *Flow) redirectURI() string {
	return "http://" + f.listener.Addr().String() + "/auth/callback"
}

// Wait blocks until the callback lands (or ctx ends) and returns the
// signed-in user. Close is called on every exit path so the listener never
// outlives the attempt.
func (f *Flow) Wait(ctx context.Context) (*backend.User, error) {
	defer f.Close()

	select {
	case res := <-f.result:
		return res.user, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the listener down. Safe to call repeatedly.
func (f *Flow) Close() {
	f.once.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = f.server.Shutdown(ctx)
	})
}

func (f *Flow) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("error") != "" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "<html><body><h3>Sign-in failed.</h3><p>Return to the terminal and try again.</p></body></html>")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<html><body><h3>Signed in.</h3><p>You can close this tab and return to the terminal.</p></body></html>")
}

// handleCallback receives the provider redirect. A good code is exchanged
// for a session and the browser lands on the signed-in page; a missing code,
// bad state, or failed exchange redirects to the error-tagged entry page.
func (f *Flow) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")

	fail := func(err error) {
		f.log.Warn(r.Context(), "code exchange failed", "error", err)
		f.finish(nil, err)
		http.Redirect(w, r, "/?error=auth_failed", http.StatusFound)
	}

	if code == "" {
		fail(errors.New("callback missing code"))
		return
	}
	if state != f.state {
		fail(ErrStateMismatch)
		return
	}

	user, err := f.auth.ExchangeCode(r.Context(), code)
	if err != nil {
		fail(err)
		return
	}

	f.finish(user, nil)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (f *Flow) finish(user *backend.User, err error) {
	select {
	case f.result <- flowResult{user: user, err: err}:
	default:
		// a result is already queued; later callbacks change nothing
	}
}
