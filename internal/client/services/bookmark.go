// Package services contains application services for the BookmarkVault
// client. This file defines the bookmark service: validated create, delete
// with feed-confirmed removal, and change-feed event dispatch.
package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/store"
	"github.com/dmitrijs2005/bookmarkvault/internal/logging"
)

// DeletingMarkerTTL bounds how long a record stays flagged as "deleting"
// when the feed's DELETE event does not arrive. The marker clears after the
// TTL but the record itself is never removed without feed confirmation.
const DeletingMarkerTTL = 500 * time.Millisecond

// BookmarkService defines the mutation operations the presentation layer may
// invoke, plus the dispatch entry point for feed events.
//
// Contract:
//   - Create: validate input before any network effect, then persist and
//     merge the canonical record into the store.
//   - Delete: id+owner-scoped delete; the store record is only marked, not
//     removed; removal is feed-driven.
//   - Apply: route one feed event into the store.
type BookmarkService interface {
	Create(ctx context.Context, rawURL, rawTitle string) (*models.Bookmark, error)
	Delete(ctx context.Context, id string) error
	Apply(ev backend.Event)
}

type bookmarkService struct {
	persistence backend.Persistence
	store       *store.Store
	log         logging.Logger

	// afterFunc is a test seam for the deleting-marker safety timer.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

// NewBookmarkService constructs a BookmarkService bound to the session's
// store and the persistence port.
func NewBookmarkService(p backend.Persistence, s *store.Store, log logging.Logger) BookmarkService {
	return &bookmarkService{
		persistence: p,
		store:       s,
		log:         log,
		afterFunc:   time.AfterFunc,
	}
}

// Create validates and normalizes the raw input, then issues the insert
// scoped to the store's owner. On success the returned canonical record is
// upserted; a later feed echo of the same insert is absorbed by the store's
// dedup-by-id semantics. On failure the store is left untouched and the
// service's error is returned verbatim so the caller can show it and keep
// the typed input.
func (s *bookmarkService) Create(ctx context.Context, rawURL, rawTitle string) (*models.Bookmark, error) {
	normalizedURL, title, err := models.NormalizeInput(rawURL, rawTitle)
	if err != nil {
		return nil, err
	}

	rec, err := s.persistence.CreateBookmark(ctx, s.store.OwnerID(), normalizedURL, title)
	if err != nil {
		s.log.Warn(ctx, "create rejected by service", "error", err)
		return nil, err
	}

	s.store.Upsert(*rec)
	return rec, nil
}

// Delete issues a delete constrained by both id and owner. The record is
// flagged as deleting while the request is in flight; the authoritative
// removal arrives through the feed's DELETE event. If the request fails the
// flag is cleared and the record stays. The flag also auto-clears after
// DeletingMarkerTTL as a safety net against a missed feed event.
func (s *bookmarkService) Delete(ctx context.Context, id string) error {
	s.store.MarkDeleting(id)

	if err := s.persistence.DeleteBookmark(ctx, id, s.store.OwnerID()); err != nil {
		s.log.Warn(ctx, "delete rejected by service", "id", id, "error", err)
		s.store.ClearDeleting(id)
		return err
	}

	s.afterFunc(DeletingMarkerTTL, func() {
		s.store.ClearDeleting(id)
	})
	return nil
}

// Apply dispatches one inbound feed event by kind. Events are applied as
// received; the store's idempotent operations absorb duplicates and echoes
// of local mutations.
func (s *bookmarkService) Apply(ev backend.Event) {
	switch ev.Kind {
	case backend.EventInsert:
		if ev.Record != nil {
			s.store.Upsert(*ev.Record)
		}
	case backend.EventUpdate:
		if ev.Record != nil {
			s.store.Replace(ev.Record.ID, *ev.Record)
		}
	case backend.EventDelete:
		s.store.Remove(ev.OldID)
	default:
		s.log.Warn(context.Background(), "unknown feed event kind", "kind", string(ev.Kind))
	}
}
