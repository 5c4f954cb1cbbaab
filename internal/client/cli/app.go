package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/config"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/session"
	"github.com/dmitrijs2005/bookmarkvault/internal/logging"
)

// successWindow is how long the "saved" indicator stays in the prompt after
// a successful add.
const successWindow = 3 * time.Second

// App wires the REPL to the backend ports and owns the active session.
type App struct {
	config   *config.Config
	auth     backend.Auth
	store    backend.Persistence
	feed     backend.Feed
	resolver *session.Resolver
	log      logging.Logger

	// installToken installs a pasted access token on the underlying
	// transport; nil disables the token-paste login path.
	installToken func(accessToken string)

	// session is nil while signed out
	session *session.Session
	reader  *bufio.Reader

	successUntil time.Time
	now          func() time.Time
}

// NewApp builds the CLI application over the given ports.
func NewApp(cfg *config.Config, auth backend.Auth, store backend.Persistence, feed backend.Feed, log logging.Logger) *App {
	return &App{
		config:   cfg,
		auth:     auth,
		store:    store,
		feed:     feed,
		resolver: session.NewResolver(auth, log),
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
		now:      time.Now,
	}
}

// SetTokenInstaller enables the "login token" fallback.
func (a *App) SetTokenInstaller(install func(accessToken string)) {
	a.installToken = install
}

// Run resolves any pre-existing session and starts the REPL. The active
// session is closed on every exit path.
func (a *App) Run(ctx context.Context) {
	defer a.closeSession(ctx)

	if user, err := a.resolver.Resolve(ctx); err == nil {
		a.openSession(ctx, user)
	}

	fmt.Println("BookmarkVault CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

// status renders the prompt fragment: who is signed in, how many bookmarks
// they have, and the transient saved indicator.
func (a *App) status() string {
	if !a.isLoggedIn() {
		return "signed out"
	}
	s := fmt.Sprintf("%s, %d bookmarks", a.session.User.FirstName(), a.session.Store.Len())
	if a.now().Before(a.successUntil) {
		s += " ✓ saved"
	}
	return s
}

func (a *App) flashSuccess() {
	a.successUntil = a.now().Add(successWindow)
}

// openSession builds the per-user store, loads it, and attaches the feed.
// Any previous session is torn down first so stores never overlap.
func (a *App) openSession(ctx context.Context, user *backend.User) {
	a.closeSession(ctx)
	a.session = session.Open(ctx, user, a.store, a.feed, a.log)
	fmt.Printf("Welcome back, %s\n", user.FirstName())
}

func (a *App) closeSession(ctx context.Context) {
	if a.session == nil {
		return
	}
	a.session.Close()
	a.session = nil
	a.log.Debug(ctx, "session closed")
}
