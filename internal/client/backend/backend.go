// Package backend defines the ports through which the client consumes the
// managed bookmark service: authentication, owner-scoped persistence, and the
// realtime change feed. The reconciliation core depends only on these
// interfaces, so tests can drive it with fakes that emit synthetic events.
package backend

import (
	"context"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
)

// User is the authenticated identity returned by the auth provider.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// FirstName returns the leading word of the user's display name, falling
// back to the email and finally to "User".
func (u *User) FirstName() string {
	name := u.FullName
	if name == "" {
		name = u.Email
	}
	if name == "" {
		return "User"
	}
	for i := 0; i < len(name); i++ {
		if name[i] == ' ' {
			return name[:i]
		}
	}
	return name
}

// Auth exposes the OAuth-style collaborator: session lookup, the redirect
// entry point, code exchange, and sign out.
type Auth interface {
	// CurrentUser returns the authenticated identity for the active session,
	// or common.ErrNoSession when there is none. Callers must treat any
	// failure as "no user" (fail closed).
	CurrentUser(ctx context.Context) (*User, error)

	// AuthorizeURL builds the provider redirect that starts the sign-in flow.
	// The state nonce is echoed back on the callback; redirectTo is where the
	// provider sends the browser after consent.
	AuthorizeURL(state, redirectTo string) string

	// ExchangeCode trades a short-lived authorization code for a session and
	// returns the signed-in user.
	ExchangeCode(ctx context.Context, code string) (*User, error)

	// SignOut releases the current session.
	SignOut(ctx context.Context) error
}

// Persistence is the owner-scoped record store. Every write returns or
// confirms the canonical record as the service persisted it.
type Persistence interface {
	// ListBookmarks performs one bulk fetch of the owner's records, sorted by
	// created_at descending.
	ListBookmarks(ctx context.Context, ownerID string) ([]models.Bookmark, error)

	// CreateBookmark inserts a record and returns it with the server-assigned
	// id and created_at.
	CreateBookmark(ctx context.Context, ownerID, url, title string) (*models.Bookmark, error)

	// DeleteBookmark deletes by id constrained to ownerID. Deleting a record
	// owned by someone else is a no-op by contract.
	DeleteBookmark(ctx context.Context, id, ownerID string) error
}

// EventKind classifies a change-feed notification.
type EventKind string

const (
	EventInsert EventKind = "INSERT"
	EventUpdate EventKind = "UPDATE"
	EventDelete EventKind = "DELETE"
)

// Event is a single row-level change pushed by the feed. Record is set for
// inserts and updates; OldID identifies the removed row for deletes.
type Event struct {
	Kind   EventKind
	Record *models.Bookmark
	OldID  string
}

// Feed is the push subscription factory. The service delivers events for a
// given id in causal order; the client applies them as received and relies on
// idempotent store semantics to absorb duplicates.
type Feed interface {
	Subscribe(ctx context.Context, ownerID string) (Subscription, error)
}

// Subscription is a live attachment to the change feed. Events is closed when
// the subscription ends, whether by Close or by a transport failure. Close
// must be called on every exit path so the server-side channel is released.
type Subscription interface {
	Events() <-chan Event
	Close() error
}
