package authflow

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend/backendtest"
	"github.com/dmitrijs2005/bookmarkvault/internal/logging"
	"github.com/stretchr/testify/require"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func startFlow(t *testing.T) (*Flow, *backendtest.Backend) {
	t.Helper()
	b := backendtest.New()
	f, err := Start(b, "127.0.0.1:0", testLogger())
	require.NoError(t, err)
	t.Cleanup(f.Close)
	return f, b
}

// noRedirect returns a client that reports redirects instead of following them.
func noRedirect() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
		Timeout: 2 * time.Second,
	}
}

func TestFlow_SuccessfulCallback(t *testing.T) {
	f, _ := startFlow(t)

	authorize, err := url.Parse(f.AuthorizeURL())
	require.NoError(t, err)
	state := authorize.Query().Get("state")
	redirectTo := authorize.Query().Get("redirect_to")
	require.NotEmpty(t, state)

	resp, err := noRedirect().Get(redirectTo + "?code=code-abc&state=" + state)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))

	user, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, "code-abc@backend.test", user.Email)
}

func TestFlow_MissingCodeRedirectsToErrorTaggedPage(t *testing.T) {
	f, _ := startFlow(t)

	resp, err := noRedirect().Get("http://" + f.listener.Addr().String() + "/auth/callback")
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/?error=auth_failed", resp.Header.Get("Location"))

	_, err = f.Wait(context.Background())
	require.Error(t, err)
}

func TestFlow_StateMismatch(t *testing.T) {
	f, _ := startFlow(t)

	resp, err := noRedirect().Get("http://" + f.listener.Addr().String() + "/auth/callback?code=c&state=wrong")
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "/?error=auth_failed", resp.Header.Get("Location"))

	_, err = f.Wait(context.Background())
	require.ErrorIs(t, err, ErrStateMismatch)
}

func TestFlow_FailedExchange(t *testing.T) {
	f, _ := startFlow(t)

	authorize, err := url.Parse(f.AuthorizeURL())
	require.NoError(t, err)
	state := authorize.Query().Get("state")

	// the fake backend rejects an empty-looking code by contract; use a
	// request that reaches the exchange and fails there
	resp, err := noRedirect().Get("http://" + f.listener.Addr().String() + "/auth/callback?code=%20&state=" + state)
	require.NoError(t, err)
	resp.Body.Close()

	require.Equal(t, "/?error=auth_failed", resp.Header.Get("Location"))
}

func TestFlow_WaitHonorsContext(t *testing.T) {
	f, _ := startFlow(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
