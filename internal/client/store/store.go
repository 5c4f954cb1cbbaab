// Package store implements the in-memory bookmark cache for one
// authenticated session. It is the single merge point for the initial bulk
// load, optimistic mutation results, and change-feed events; all three arrive
// through Upsert/Replace/Remove, which deduplicate by record id so the same
// logical change observed twice leaves the store unchanged.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/backend"
	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
)

// Store holds an ordered set of the owner's bookmarks, keyed by id and
// sorted by created_at descending with stable arrival-order tie-break.
//
// All methods are safe for concurrent use. After Discard, every mutation is
// a no-op: late responses from requests issued before teardown cannot write
// into a store the session has abandoned.
type Store struct {
	mu      sync.RWMutex
	ownerID string

	records map[string]models.Bookmark
	order   []string          // ids, newest first
	arrival map[string]uint64 // insertion sequence, breaks created_at ties
	nextSeq uint64

	deleting map[string]struct{}

	loading   bool
	discarded bool

	onChange func()
}

func New(ownerID string) *Store {
	return &Store{
		ownerID:  ownerID,
		records:  make(map[string]models.Bookmark),
		arrival:  make(map[string]uint64),
		deleting: make(map[string]struct{}),
		loading:  true,
	}
}

// OnChange registers a callback invoked after every observable mutation.
// Presentation code uses it to re-render; it must not call back into the
// store's mutators.
func (s *Store) OnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Load performs the one-time bulk fetch for the store's owner. On failure
// the store ends up empty and non-loading with no error surfaced; the feed
// and later mutations still work against the empty store.
func (s *Store) Load(ctx context.Context, p backend.Persistence) {
	records, err := p.ListBookmarks(ctx, s.ownerID)

	s.mu.Lock()
	s.loading = false
	if err != nil || s.discarded {
		fn := s.onChange
		s.mu.Unlock()
		notify(fn)
		return
	}
	for _, rec := range records {
		s.insertLocked(rec)
	}
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
}

// Upsert merges a record arriving from either the optimistic create path or
// a feed insert. If the id is already present the stored fields are replaced
// in place without reordering; otherwise the record is inserted at its sorted
// position. Records owned by a different user are dropped.
func (s *Store) Upsert(rec models.Bookmark) {
	s.mu.Lock()
	if s.discarded || rec.OwnerID != s.ownerID {
		s.mu.Unlock()
		return
	}
	if _, ok := s.records[rec.ID]; ok {
		s.records[rec.ID] = rec
	} else {
		s.insertLocked(rec)
	}
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
}

// Replace applies a feed-driven update: fields are swapped in place and the
// record keeps its position. Unknown ids are ignored.
func (s *Store) Replace(id string, rec models.Bookmark) {
	s.mu.Lock()
	if s.discarded || rec.OwnerID != s.ownerID {
		s.mu.Unlock()
		return
	}
	if _, ok := s.records[id]; !ok {
		s.mu.Unlock()
		return
	}
	rec.ID = id
	s.records[id] = rec
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
}

// Remove deletes the record with the given id along with its deleting
// marker. Removing an absent id is a no-op, which absorbs
// delete-after-delete races between the mutation path and the feed.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return
	}
	if _, ok := s.records[id]; !ok {
		delete(s.deleting, id)
		s.mu.Unlock()
		return
	}
	delete(s.records, id)
	delete(s.arrival, id)
	delete(s.deleting, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
}

// MarkDeleting flags a record as having a delete in flight. The flag is
// presentation state only; the record stays in the store until the feed
// confirms the delete.
func (s *Store) MarkDeleting(id string) {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return
	}
	s.deleting[id] = struct{}{}
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
}

// ClearDeleting removes the in-flight delete flag if still set.
func (s *Store) ClearDeleting(id string) {
	s.mu.Lock()
	if s.discarded {
		s.mu.Unlock()
		return
	}
	if _, ok := s.deleting[id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.deleting, id)
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
}

// IsDeleting reports whether a delete is in flight for the id.
func (s *Store) IsDeleting(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.deleting[id]
	return ok
}

// Loading reports whether the initial bulk load is still in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Snapshot returns a copy of the records in display order.
func (s *Store) Snapshot() []models.Bookmark {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Bookmark, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

// OwnerID returns the user the store is scoped to.
func (s *Store) OwnerID() string {
	return s.ownerID
}

// Discard tears the store down: contents are dropped and every subsequent
// mutation becomes a no-op. Called on sign-out or session change so a stale
// cache can never leak into the next user's view.
func (s *Store) Discard() {
	s.mu.Lock()
	s.discarded = true
	s.loading = false
	s.records = make(map[string]models.Bookmark)
	s.order = nil
	s.arrival = make(map[string]uint64)
	s.deleting = make(map[string]struct{})
	s.onChange = nil
	s.mu.Unlock()
}

// insertLocked places a new record at its sorted position: created_at
// descending, ties kept in arrival order.
func (s *Store) insertLocked(rec models.Bookmark) {
	s.nextSeq++
	s.records[rec.ID] = rec
	s.arrival[rec.ID] = s.nextSeq

	pos := sort.Search(len(s.order), func(i int) bool {
		other := s.records[s.order[i]]
		if !other.CreatedAt.Equal(rec.CreatedAt) {
			return other.CreatedAt.Before(rec.CreatedAt)
		}
		// same timestamp: the earlier arrival stays in front
		return s.arrival[s.order[i]] > s.arrival[rec.ID]
	})
	s.order = append(s.order, "")
	copy(s.order[pos+1:], s.order[pos:])
	s.order[pos] = rec.ID
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}
