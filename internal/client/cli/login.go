package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/authflow"
)

// getSimpleText and getToken are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getToken = GetToken

// startFlow is a test seam for the loopback callback server.
var startFlow = authflow.Start

// Login runs the browser sign-in flow: a loopback callback listener is
// started, the provider URL is printed for the user to open, and the flow
// completes when the provider redirects back with a code that exchanges
// cleanly. The listener is released on every path out of here.
func (a *App) Login(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Println("Already signed in; logout first.")
		return nil
	}

	flow, err := startFlow(a.auth, a.config.CallbackAddr, a.log)
	if err != nil {
		return err
	}

	fmt.Println("Open this URL in your browser to sign in:")
	fmt.Println("  " + flow.AuthorizeURL())

	waitCtx, cancel := context.WithTimeout(ctx, a.config.LoginTimeout)
	defer cancel()

	user, err := flow.Wait(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("sign-in timed out")
		}
		return err
	}

	a.openSession(ctx, user)
	return nil
}

// LoginToken is the headless fallback: the user pastes an access token
// (read without echo), the transport installs it, and the session resolver
// decides whether it names a live user. A bad token fails closed with no
// session opened.
func (a *App) LoginToken(ctx context.Context) error {
	if a.isLoggedIn() {
		fmt.Println("Already signed in; logout first.")
		return nil
	}
	if a.installToken == nil {
		return errors.New("token login is not available")
	}

	token, err := getToken(os.Stdout)
	if err != nil {
		return err
	}

	a.installToken(token)

	user, err := a.resolver.Resolve(ctx)
	if err != nil {
		return errors.New("token rejected, still signed out")
	}

	a.openSession(ctx, user)
	return nil
}

// Whoami prints the signed-in identity.
func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Not signed in.")
		return nil
	}
	u := a.session.User
	fmt.Printf("%s <%s> (id %s)\n", u.FullName, u.Email, u.ID)
	return nil
}

// Logout tears the session down (store discarded, feed detached) and then
// releases the server-side session.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		fmt.Println("Not signed in.")
		return nil
	}

	a.closeSession(ctx)

	if err := a.auth.SignOut(ctx); err != nil {
		a.log.Warn(ctx, "sign-out call failed", "error", err)
	}
	fmt.Println("Signed out.")
	return nil
}
