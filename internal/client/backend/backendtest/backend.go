// Package backendtest provides an in-memory implementation of the backend
// ports. It mimics the managed service closely enough for the reconciliation
// tests: ids and timestamps are server-assigned, every mutation is echoed to
// the owner's feed subscription, and errors can be injected per call.
package backendtest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
	"github.com/dmitrijs2005/bookmarkvault/internal/common"
	"github.com/google/uuid"
)

// Backend is a fake managed service. The zero value is not usable; call New.
type Backend struct {
	mu      sync.Mutex
	records map[string]models.Bookmark
	subs    map[string][]*Subscription
	user    *backend.User

	// Clock returns the "server" time for created_at stamps.
	Clock func() time.Time

	// Error injection, consumed by the next matching call.
	ListErr   error
	CreateErr error
	DeleteErr error
	UserErr   error

	// Echo controls whether mutations are mirrored to feed subscriptions.
	// Disable it to simulate a slow or missing feed event.
	Echo bool

	ListCalls   int
	CreateCalls int
	DeleteCalls int
}

func New() *Backend {
	return &Backend{
		records: make(map[string]models.Bookmark),
		subs:    make(map[string][]*Subscription),
		Clock:   time.Now,
		Echo:    true,
	}
}

// SignIn installs the identity returned by CurrentUser.
func (b *Backend) SignIn(user backend.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.user = &user
}

func (b *Backend) CurrentUser(ctx context.Context) (*backend.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.UserErr != nil {
		return nil, b.UserErr
	}
	if b.user == nil {
		return nil, common.ErrNoSession
	}
	u := *b.user
	return &u, nil
}

func (b *Backend) AuthorizeURL(state, redirectTo string) string {
	return "https://backend.test/auth/v1/authorize?state=" + state + "&redirect_to=" + redirectTo
}

func (b *Backend) ExchangeCode(ctx context.Context, code string) (*backend.User, error) {
	if strings.TrimSpace(code) == "" {
		return nil, common.ErrUnauthorized
	}
	u := backend.User{ID: uuid.NewString(), Email: code + "@backend.test"}
	b.SignIn(u)
	return &u, nil
}

func (b *Backend) SignOut(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.user = nil
	return nil
}

func (b *Backend) ListBookmarks(ctx context.Context, ownerID string) ([]models.Bookmark, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ListCalls++
	if b.ListErr != nil {
		err := b.ListErr
		b.ListErr = nil
		return nil, err
	}
	out := make([]models.Bookmark, 0, len(b.records))
	for _, r := range b.records {
		if r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (b *Backend) CreateBookmark(ctx context.Context, ownerID, url, title string) (*models.Bookmark, error) {
	b.mu.Lock()
	b.CreateCalls++
	if b.CreateErr != nil {
		err := b.CreateErr
		b.CreateErr = nil
		b.mu.Unlock()
		return nil, err
	}
	rec := models.Bookmark{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		URL:       url,
		Title:     title,
		CreatedAt: b.Clock().UTC(),
	}
	b.records[rec.ID] = rec
	b.mu.Unlock()

	b.emit(ownerID, backend.Event{Kind: backend.EventInsert, Record: &rec})
	return &rec, nil
}

func (b *Backend) DeleteBookmark(ctx context.Context, id, ownerID string) error {
	b.mu.Lock()
	b.DeleteCalls++
	if b.DeleteErr != nil {
		err := b.DeleteErr
		b.DeleteErr = nil
		b.mu.Unlock()
		return err
	}
	rec, ok := b.records[id]
	if !ok || rec.OwnerID != ownerID {
		// id+owner mismatch deletes nothing, same as the real service
		b.mu.Unlock()
		return nil
	}
	delete(b.records, id)
	b.mu.Unlock()

	b.emit(ownerID, backend.Event{Kind: backend.EventDelete, OldID: id})
	return nil
}

// UpdateBookmark edits a stored record out of band, as another device would,
// and echoes an UPDATE event.
func (b *Backend) UpdateBookmark(rec models.Bookmark) {
	b.mu.Lock()
	b.records[rec.ID] = rec
	b.mu.Unlock()
	b.emit(rec.OwnerID, backend.Event{Kind: backend.EventUpdate, Record: &rec})
}

func (b *Backend) Subscribe(ctx context.Context, ownerID string) (backend.Subscription, error) {
	sub := &Subscription{
		backend: b,
		ownerID: ownerID,
		events:  make(chan backend.Event, 16),
	}
	b.mu.Lock()
	b.subs[ownerID] = append(b.subs[ownerID], sub)
	b.mu.Unlock()
	return sub, nil
}

// Emit pushes a synthetic event to the owner's subscriptions, bypassing the
// record table. Tests use it to simulate feed echoes and duplicates.
func (b *Backend) Emit(ownerID string, ev backend.Event) {
	b.emit(ownerID, ev)
}

func (b *Backend) emit(ownerID string, ev backend.Event) {
	if !b.Echo {
		return
	}
	b.mu.Lock()
	subs := append([]*Subscription(nil), b.subs[ownerID]...)
	b.mu.Unlock()
	for _, sub := range subs {
		sub.deliver(ev)
	}
}

// SubscriberCount reports the number of live subscriptions for an owner.
func (b *Backend) SubscriberCount(ownerID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, sub := range b.subs[ownerID] {
		if !sub.isClosed() {
			n++
		}
	}
	return n
}

// Subscription is a fake feed attachment backed by a buffered channel.
type Subscription struct {
	backend *Backend
	ownerID string

	mu     sync.Mutex
	events chan backend.Event
	closed bool
}

func (s *Subscription) Events() <-chan backend.Event { return s.events }

func (s *Subscription) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Subscription) deliver(ev backend.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.events <- ev
}

func (s *Subscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	close(s.events)
	return nil
}
