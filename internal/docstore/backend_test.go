package docstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/docstore"
)

// =============================================================================
// Shared checks for the networked backends
// =============================================================================

type entryDoc struct {
	Owner      string    `firestore:"owner"`
	Rank       int       `firestore:"rank"`
	LikesCount int       `firestore:"likesCount"`
	CreatedAt  time.Time `firestore:"createdAt"`
	UpdatedAt  time.Time `firestore:"updatedAt"`
}

// runBackendSuite checks the behavior repositories rely on. Collection names
// start with prefix so runs against a shared database do not see each other.
func runBackendSuite(t *testing.T, store docstore.Store, prefix string) {
	entries := prefix + "entries"
	likes := prefix + "likes"

	t.Run("CreateConflictKeepsFirstWrite", func(t *testing.T) {
		// ARRANGE
		ctx := context.Background()
		require.NoError(t, store.Create(ctx, entries, "dup", docstore.Fields{
			"owner":     "alice",
			"createdAt": docstore.ServerTimestamp,
		}))

		// ACT
		err := store.Create(ctx, entries, "dup", docstore.Fields{"owner": "bob"})

		// ASSERT
		assert.ErrorIs(t, err, docstore.ErrAlreadyExists)
		snap, err := store.Get(ctx, entries, "dup")
		require.NoError(t, err)
		var doc entryDoc
		require.NoError(t, snap.DataTo(&doc))
		assert.Equal(t, "alice", doc.Owner)
		assert.False(t, doc.CreatedAt.IsZero())
	})

	t.Run("GetAndUpdateMissing", func(t *testing.T) {
		ctx := context.Background()

		_, err := store.Get(ctx, entries, "ghost")
		assert.ErrorIs(t, err, docstore.ErrNotFound)

		err = store.Update(ctx, entries, "ghost", []docstore.Update{{Path: "rank", Value: 1}})
		assert.ErrorIs(t, err, docstore.ErrNotFound)

		assert.NoError(t, store.Delete(ctx, entries, "ghost"))
	})

	t.Run("IncrementAccumulates", func(t *testing.T) {
		// ARRANGE
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, entries, "counter", docstore.Fields{
			"owner":      "alice",
			"likesCount": 0,
		}))

		// ACT
		for i := 0; i < 3; i++ {
			require.NoError(t, store.Update(ctx, entries, "counter", []docstore.Update{
				{Path: "likesCount", Value: docstore.Increment(1)},
				{Path: "updatedAt", Value: docstore.ServerTimestamp},
			}))
		}
		require.NoError(t, store.Update(ctx, entries, "counter", []docstore.Update{
			{Path: "likesCount", Value: docstore.Increment(-1)},
		}))

		// ASSERT
		snap, err := store.Get(ctx, entries, "counter")
		require.NoError(t, err)
		var doc entryDoc
		require.NoError(t, snap.DataTo(&doc))
		assert.Equal(t, 2, doc.LikesCount)
		assert.Equal(t, "alice", doc.Owner)
		assert.False(t, doc.UpdatedAt.IsZero())
	})

	t.Run("LikeBatchIsAtomic", func(t *testing.T) {
		// ARRANGE
		ctx := context.Background()
		require.NoError(t, store.Set(ctx, entries, "ub1", docstore.Fields{
			"owner":      "alice",
			"likesCount": 0,
		}))
		like := func(entryID, likeID string) error {
			return store.Batch().
				Create(likes, likeID, docstore.Fields{
					"userBookId": entryID,
					"userId":     "bob",
					"createdAt":  docstore.ServerTimestamp,
				}).
				Update(entries, entryID, []docstore.Update{
					{Path: "likesCount", Value: docstore.Increment(1)},
					{Path: "updatedAt", Value: docstore.ServerTimestamp},
				}).
				Commit(ctx)
		}
		likesCount := func() int {
			snap, err := store.Get(ctx, entries, "ub1")
			require.NoError(t, err)
			var doc entryDoc
			require.NoError(t, snap.DataTo(&doc))
			return doc.LikesCount
		}

		// ACT + ASSERT
		require.NoError(t, like("ub1", "ub1:bob"))
		assert.Equal(t, 1, likesCount())

		err := like("ub1", "ub1:bob")
		assert.ErrorIs(t, err, docstore.ErrAlreadyExists)
		assert.Equal(t, 1, likesCount(), "a rejected like must not move the counter")

		err = like("missing", "missing:bob")
		assert.ErrorIs(t, err, docstore.ErrNotFound)
		_, err = store.Get(ctx, likes, "missing:bob")
		assert.ErrorIs(t, err, docstore.ErrNotFound, "the like must roll back with the failed update")
	})

	t.Run("QueryFiltersAndOrdersByCreatedAtDesc", func(t *testing.T) {
		// ARRANGE
		ctx := context.Background()
		col := prefix + "ordered"
		base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
		for _, d := range []struct {
			id    string
			owner string
			rank  int
			at    time.Time
		}{
			// Whole and fractional seconds mixed so the stored layout matters.
			{"first", "alice", 2, base},
			{"other", "bob", 2, base.Add(500 * time.Millisecond)},
			{"second", "alice", 1, base.Add(1500 * time.Millisecond)},
			{"third", "alice", 2, base.Add(10 * time.Second)},
		} {
			require.NoError(t, store.Set(ctx, col, d.id, docstore.Fields{
				"owner":     d.owner,
				"rank":      d.rank,
				"createdAt": d.at,
			}))
		}

		// ACT
		byOwner, err := store.Query(ctx, docstore.From(col).
			Where("owner", docstore.OpEqual, "alice").
			OrderBy("createdAt", docstore.Desc))
		require.NoError(t, err)
		byRank, err := store.Query(ctx, docstore.From(col).
			Where("owner", docstore.OpEqual, "alice").
			Where("rank", docstore.OpEqual, 2).
			OrderBy("createdAt", docstore.Desc).
			Take(1))
		require.NoError(t, err)
		recent, err := store.Query(ctx, docstore.From(col).
			Where("createdAt", docstore.OpGreater, base.Add(time.Second)).
			OrderBy("createdAt", docstore.Asc))
		require.NoError(t, err)

		// ASSERT
		assert.Equal(t, []string{"third", "second", "first"}, snapshotIDs(byOwner))
		assert.Equal(t, []string{"third"}, snapshotIDs(byRank))
		assert.Equal(t, []string{"second", "third"}, snapshotIDs(recent))

		var doc entryDoc
		require.NoError(t, byOwner[1].DataTo(&doc))
		assert.True(t, doc.CreatedAt.Equal(base.Add(1500*time.Millisecond)), "createdAt = %v", doc.CreatedAt)
		assert.Equal(t, 1, doc.Rank)
	})
}

func snapshotIDs(snaps []*docstore.Snapshot) []string {
	ids := make([]string, len(snaps))
	for i, s := range snaps {
		ids[i] = s.ID
	}
	return ids
}
