package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/bookmarkvault/internal/client/models"
	"github.com/stretchr/testify/require"
)

const owner = "user-1"

var base = time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

func bm(id string, createdAt time.Time) models.Bookmark {
	return models.Bookmark{
		ID:        id,
		OwnerID:   owner,
		URL:       "https://example.com/" + id,
		Title:     "Bookmark " + id,
		CreatedAt: createdAt,
	}
}

func ids(s *Store) []string {
	snap := s.Snapshot()
	out := make([]string, 0, len(snap))
	for _, r := range snap {
		out = append(out, r.ID)
	}
	return out
}

type listFunc func(ctx context.Context, ownerID string) ([]models.Bookmark, error)

func (f listFunc) ListBookmarks(ctx context.Context, ownerID string) ([]models.Bookmark, error) {
	return f(ctx, ownerID)
}
func (f listFunc) CreateBookmark(ctx context.Context, ownerID, url, title string) (*models.Bookmark, error) {
	return nil, errors.New("not implemented")
}
func (f listFunc) DeleteBookmark(ctx context.Context, id, ownerID string) error {
	return errors.New("not implemented")
}

func TestLoad_SortsNewestFirst(t *testing.T) {
	s := New(owner)
	require.True(t, s.Loading())

	s.Load(context.Background(), listFunc(func(ctx context.Context, ownerID string) ([]models.Bookmark, error) {
		require.Equal(t, owner, ownerID)
		return []models.Bookmark{
			bm("new", base.Add(2*time.Hour)),
			bm("mid", base.Add(time.Hour)),
			bm("old", base),
		}, nil
	}))

	require.False(t, s.Loading())
	require.Equal(t, []string{"new", "mid", "old"}, ids(s))
}

func TestLoad_FailureLeavesEmptyTerminalState(t *testing.T) {
	s := New(owner)

	s.Load(context.Background(), listFunc(func(ctx context.Context, ownerID string) ([]models.Bookmark, error) {
		return nil, errors.New("boom")
	}))

	require.False(t, s.Loading())
	require.Equal(t, 0, s.Len())

	// still usable after the failed load
	s.Upsert(bm("a", base))
	require.Equal(t, 1, s.Len())
}

func TestUpsert_NeverDuplicatesByID(t *testing.T) {
	s := New(owner)
	rec := bm("a", base)

	s.Upsert(rec)
	s.Upsert(rec)

	require.Equal(t, []string{"a"}, ids(s))
}

func TestUpsert_Idempotent(t *testing.T) {
	s := New(owner)
	s.Upsert(bm("a", base))
	once := s.Snapshot()

	s.Upsert(bm("a", base))
	require.Equal(t, once, s.Snapshot())
}

func TestUpsert_ExistingIDReplacesFieldsInPlace(t *testing.T) {
	s := New(owner)
	s.Upsert(bm("a", base.Add(time.Hour)))
	s.Upsert(bm("b", base))

	updated := bm("b", base)
	updated.Title = "renamed"
	s.Upsert(updated)

	require.Equal(t, []string{"a", "b"}, ids(s))
	require.Equal(t, "renamed", s.Snapshot()[1].Title)
}

func TestUpsert_OrderingWithStableTies(t *testing.T) {
	s := New(owner)

	s.Upsert(bm("first-tie", base))
	s.Upsert(bm("newest", base.Add(time.Hour)))
	s.Upsert(bm("second-tie", base))
	s.Upsert(bm("oldest", base.Add(-time.Hour)))

	require.Equal(t, []string{"newest", "first-tie", "second-tie", "oldest"}, ids(s))
}

func TestUpsert_ForeignOwnerIgnored(t *testing.T) {
	s := New(owner)
	rec := bm("a", base)
	rec.OwnerID = "someone-else"

	s.Upsert(rec)

	require.Equal(t, 0, s.Len())
}

func TestReplace_PreservesPosition(t *testing.T) {
	s := New(owner)
	s.Upsert(bm("a", base.Add(time.Hour)))
	s.Upsert(bm("b", base))

	updated := bm("b", base)
	updated.Title = "edited elsewhere"
	s.Replace("b", updated)

	require.Equal(t, []string{"a", "b"}, ids(s))
	require.Equal(t, "edited elsewhere", s.Snapshot()[1].Title)
}

func TestReplace_UnknownIDIsNoop(t *testing.T) {
	s := New(owner)
	s.Replace("ghost", bm("ghost", base))
	require.Equal(t, 0, s.Len())
}

func TestRemove_AbsorbsRepeatedDeletes(t *testing.T) {
	s := New(owner)
	s.Upsert(bm("a", base))

	s.Remove("a")
	s.Remove("a")

	require.Equal(t, 0, s.Len())
}

func TestRemove_ClearsDeletingMarker(t *testing.T) {
	s := New(owner)
	s.Upsert(bm("a", base))
	s.MarkDeleting("a")
	require.True(t, s.IsDeleting("a"))

	s.Remove("a")

	require.False(t, s.IsDeleting("a"))
}

func TestOptimisticInsertThenFeedEcho_SingleRecord(t *testing.T) {
	s := New(owner)
	rec := bm("a", base)

	// mutation response first, feed echo second
	s.Upsert(rec)
	s.Upsert(rec)
	require.Equal(t, []string{"a"}, ids(s))

	// and the other arrival order
	s2 := New(owner)
	s2.Upsert(rec)
	s2.Upsert(rec)
	require.Equal(t, ids(s), ids(s2))
}

func TestDiscard_MutationsBecomeNoops(t *testing.T) {
	s := New(owner)
	s.Upsert(bm("a", base))

	s.Discard()

	s.Upsert(bm("late", base))
	s.Remove("a")
	s.MarkDeleting("a")

	require.Equal(t, 0, s.Len())
	require.False(t, s.IsDeleting("a"))
}

func TestOnChange_FiresOnObservableMutations(t *testing.T) {
	s := New(owner)
	var fired int
	s.OnChange(func() { fired++ })

	s.Upsert(bm("a", base))
	s.MarkDeleting("a")
	s.ClearDeleting("a")
	s.Remove("a")

	require.Equal(t, 4, fired)
}
