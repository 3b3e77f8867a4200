package sessions

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
CREATE TABLE sessions (
  id            TEXT PRIMARY KEY,
  profile_id    TEXT NOT NULL,
  crag          TEXT NOT NULL DEFAULT '',
  started_at    INTEGER NOT NULL,
  ended_at      INTEGER,
  notes         TEXT NOT NULL DEFAULT '',
  created_at    INTEGER NOT NULL,
  updated_at    INTEGER NOT NULL,
  deleted_at    INTEGER,
  needs_sync    INTEGER NOT NULL DEFAULT 0,
  sync_attempts INTEGER NOT NULL DEFAULT 0,
  sync_status   TEXT NOT NULL DEFAULT ''
);
`)
	require.NoError(t, err)

	return db
}

func newSession(id, profileID string, now time.Time) *models.Session {
	s := &models.Session{ID: id, ProfileID: profileID, Crag: "Fontainebleau", StartedAt: now}
	s.InitTimestamps(now)
	s.MarkDirty(now)
	return s
}

func TestGetOpen(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := r.GetOpen(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)

	open := newSession("s1", "p1", now)
	require.NoError(t, r.Save(ctx, open))

	got, err := r.GetOpen(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "s1", got.ID)
	assert.True(t, got.IsOpen())

	// ending the session closes it
	ended := now.Add(time.Hour)
	got.EndedAt = &ended
	got.MarkDirty(ended)
	require.NoError(t, r.Save(ctx, got))

	_, err = r.GetOpen(ctx, "p1")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestList_NewestFirst(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := newSession("old", "p1", now.Add(-time.Hour))
	old.StartedAt = now.Add(-time.Hour)
	require.NoError(t, r.Save(ctx, old))
	require.NoError(t, r.Save(ctx, newSession("new", "p1", now)))

	// deleted sessions are hidden
	gone := newSession("gone", "p1", now)
	gone.MarkDeleted(now)
	require.NoError(t, r.Save(ctx, gone))

	list, err := r.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[1].ID)
}
