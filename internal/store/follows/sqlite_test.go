package follows

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/models"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE follows (
  follower_id   TEXT NOT NULL,
  followee_id   TEXT NOT NULL,
  created_at    INTEGER NOT NULL,
  updated_at    INTEGER NOT NULL,
  deleted_at    INTEGER,
  needs_sync    INTEGER NOT NULL DEFAULT 0,
  sync_attempts INTEGER NOT NULL DEFAULT 0,
  sync_status   TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (follower_id, followee_id)
);
`)
	require.NoError(t, err)

	return db
}

func newFollow(follower, followee string, now time.Time) *models.Follow {
	f := &models.Follow{FollowerID: follower, FolloweeID: followee}
	f.InitTimestamps(now)
	f.MarkDirty(now)
	return f
}

func TestSaveAndGet_TupleIdentity(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.Save(ctx, newFollow("a", "b", now)))

	got, err := r.Get(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "a/b", got.Key())

	_, err = r.Get(ctx, "b", "a")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUnfollowThenRefollow_RestoresRow(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	f := newFollow("a", "b", now)
	require.NoError(t, r.Save(ctx, f))

	f.MarkDeleted(now.Add(time.Second))
	require.NoError(t, r.Save(ctx, f))

	got, err := r.Get(ctx, "a", "b")
	require.NoError(t, err)
	require.True(t, got.IsDeleted())

	// restore keeps the original created_at: same row, same identity
	got.Restore(now.Add(2 * time.Second))
	require.NoError(t, r.Save(ctx, got))

	restored, err := r.Get(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())
	assert.Equal(t, now.UnixNano(), restored.CreatedAt.UnixNano())

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM follows`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestListActive_ExcludesDeleted(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.Save(ctx, newFollow("a", "b", now)))

	gone := newFollow("a", "c", now)
	gone.MarkDeleted(now)
	require.NoError(t, r.Save(ctx, gone))

	list, err := r.ListActive(ctx, "a")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].FolloweeID)
}

func TestPendingAndAcknowledge_FollowKey(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	f := newFollow("a", "b", now)
	f.MarkDeleted(now)
	require.NoError(t, r.Save(ctx, f))

	pending, err := r.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "a/b", pending[0].Key)
	assert.True(t, pending[0].Deleted)

	ok, err := r.AcknowledgeSync(ctx, pending[0].Key, pending[0].UpdatedAt)
	require.NoError(t, err)
	assert.True(t, ok)

	pending, err = r.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAcknowledgeSync_MalformedKey(t *testing.T) {
	db := setupDB(t)
	r := New(db)

	_, err := r.AcknowledgeSync(context.Background(), "nokey", time.Now())
	assert.Error(t, err)
}
