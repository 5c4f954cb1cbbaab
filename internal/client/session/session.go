// Package session gates access to the bookmark view and owns the per-session
// store and feed subscription lifecycle.
package session

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/services"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/store"
	"github.com/dmitrijs2005/bookmarkvault/internal/common"
	"github.com/dmitrijs2005/bookmarkvault/internal/logging"
)

// Resolver answers "who is the caller" by asking the auth collaborator.
type Resolver struct {
	auth backend.Auth
	log  logging.Logger
}

func NewResolver(auth backend.Auth, log logging.Logger) *Resolver {
	return &Resolver{auth: auth, log: log}
}

// Resolve returns the authenticated user or common.ErrNoSession. Any lookup
// failure is treated identically to "no user": the resolver fails closed
// and never retries.
func (r *Resolver) Resolve(ctx context.Context) (*backend.User, error) {
	user, err := r.auth.CurrentUser(ctx)
	if err != nil {
		r.log.Debug(ctx, "session lookup failed, treating as signed out", "error", err)
		return nil, common.ErrNoSession
	}
	return user, nil
}

// Session is one authenticated user's live view state: the store, the
// bookmark service, and the attached feed subscription. Exactly one session
// owns a store at a time; Close discards the store before any other session
// may load, so a stale cache can never leak across users.
type Session struct {
	User  *backend.User
	Store *store.Store

	svc services.BookmarkService
	sub backend.Subscription
	log logging.Logger

	closeOnce sync.Once
	pumpDone  chan struct{}
}

// Open builds a session for the given user: the store performs its one bulk
// load, then the feed attaches and its events stream into the store. A feed
// attach failure is logged and the session continues without live updates;
// the next Open attaches again.
func Open(ctx context.Context, user *backend.User, p backend.Persistence, feed backend.Feed, log logging.Logger) *Session {
	st := store.New(user.ID)
	s := &Session{
		User:     user,
		Store:    st,
		svc:      services.NewBookmarkService(p, st, log),
		log:      log.With("owner_id", user.ID),
		pumpDone: make(chan struct{}),
	}

	st.Load(ctx, p)

	sub, err := feed.Subscribe(ctx, user.ID)
	if err != nil {
		s.log.Warn(ctx, "change feed attach failed, continuing without live updates", "error", err)
		close(s.pumpDone)
		return s
	}
	s.sub = sub
	s.log.Debug(ctx, "change feed attached")

	go s.pump()
	return s
}

// Bookmarks exposes the session's mutation surface.
func (s *Session) Bookmarks() services.BookmarkService {
	return s.svc
}

// pump applies feed events to the store until the subscription's channel
// closes. The store's own teardown guard drops anything that arrives after
// Close.
func (s *Session) pump() {
	defer close(s.pumpDone)
	for ev := range s.sub.Events() {
		s.svc.Apply(ev)
	}
	s.log.Debug(context.Background(), "change feed detached")
}

// Close tears the session down: the feed subscription is released, the pump
// drains, and the store is discarded so late responses from requests issued
// before teardown cannot mutate it. Safe to call more than once and on every
// exit path.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		if s.sub != nil {
			_ = s.sub.Close()
		}
		<-s.pumpDone
		s.Store.Discard()
	})
}
