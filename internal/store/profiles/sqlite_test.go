package profiles

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
CREATE TABLE profiles (
  id            TEXT PRIMARY KEY,
  handle        TEXT NOT NULL,
  display_name  TEXT NOT NULL DEFAULT '',
  bio           TEXT NOT NULL DEFAULT '',
  home_crag     TEXT NOT NULL DEFAULT '',
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

func newProfile(id, handle string, now time.Time) *models.Profile {
	p := &models.Profile{ID: id, Handle: handle, DisplayName: "Test"}
	p.InitTimestamps(now)
	p.MarkDirty(now)
	return p
}

func TestSaveAndGet(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	p := newProfile("id1", "ondra", now)
	require.NoError(t, r.Save(ctx, p))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "ondra", got.Handle)
	assert.True(t, got.NeedsSync)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)
	assert.Equal(t, now.UnixNano(), got.UpdatedAt.UnixNano())

	_, err = r.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByHandle_SkipsDeleted(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	p := newProfile("id1", "ondra", now)
	p.MarkDeleted(now)
	require.NoError(t, r.Save(ctx, p))

	_, err := r.GetByHandle(ctx, "ondra")
	assert.ErrorIs(t, err, common.ErrNotFound)

	// but GetByID still sees the tombstone
	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())
}

func TestPending_ExcludesFailedAndClean(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	dirty := newProfile("dirty", "h1", now)
	require.NoError(t, r.Save(ctx, dirty))

	clean := newProfile("clean", "h2", now)
	clean.NeedsSync = false
	clean.SyncStatus = models.SyncStatusNone
	require.NoError(t, r.Save(ctx, clean))

	parked := newProfile("parked", "h3", now)
	parked.SyncStatus = models.SyncStatusFailed
	require.NoError(t, r.Save(ctx, parked))

	pending, err := r.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "dirty", pending[0].Key)
	assert.Equal(t, models.KindProfile, pending[0].Kind)
	assert.False(t, pending[0].Deleted)
}

func TestAcknowledgeSync_ClearsOnlyUnchanged(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	p := newProfile("id1", "ondra", now)
	require.NoError(t, r.Save(ctx, p))

	// a later edit moved updated_at past the dispatched snapshot
	p.Bio = "new bio"
	p.MarkDirty(now.Add(time.Second))
	require.NoError(t, r.Save(ctx, p))

	ok, err := r.AcknowledgeSync(ctx, "id1", now)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.True(t, got.NeedsSync)

	// acknowledging the current snapshot clears the flag
	ok, err = r.AcknowledgeSync(ctx, "id1", now.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, got.NeedsSync)
	assert.Equal(t, models.SyncStatusNone, got.SyncStatus)
	assert.Equal(t, 0, got.SyncAttempts)
}

func TestRecordSyncFailure_ParksAfterMaxAttempts(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	p := newProfile("id1", "ondra", now)
	require.NoError(t, r.Save(ctx, p))

	require.NoError(t, r.RecordSyncFailure(ctx, "id1", false, 3))
	require.NoError(t, r.RecordSyncFailure(ctx, "id1", false, 3))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.SyncAttempts)
	assert.Equal(t, models.SyncStatusPending, got.SyncStatus)

	require.NoError(t, r.RecordSyncFailure(ctx, "id1", false, 3))

	got, err = r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, got.SyncStatus)
	assert.True(t, got.NeedsSync)

	// parked records stay out of the pending set
	pending, err := r.Pending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRecordSyncFailure_PermanentParksImmediately(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()

	p := newProfile("id1", "ondra", time.Now().UTC())
	require.NoError(t, r.Save(ctx, p))

	require.NoError(t, r.RecordSyncFailure(ctx, "id1", true, 5))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusFailed, got.SyncStatus)
	assert.Equal(t, 1, got.SyncAttempts)
}

func TestMarkDirty_ResetsFailedState(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	p := newProfile("id1", "ondra", now)
	require.NoError(t, r.Save(ctx, p))
	require.NoError(t, r.RecordSyncFailure(ctx, "id1", true, 5))

	// a local edit requeues the record
	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	got.Bio = "retry"
	got.MarkDirty(now.Add(time.Minute))
	require.NoError(t, r.Save(ctx, got))

	pending, err := r.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 0, pending[0].Attempts)
}

func TestApplyRemote_Guards(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	// a fresh remote row inserts clean
	remote := &models.Profile{ID: "id1", Handle: "ondra"}
	remote.InitTimestamps(now)
	require.NoError(t, r.ApplyRemote(ctx, remote))

	got, err := r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.False(t, got.NeedsSync)

	// an older remote copy is ignored
	stale := &models.Profile{ID: "id1", Handle: "stale"}
	stale.InitTimestamps(now.Add(-time.Hour))
	require.NoError(t, r.ApplyRemote(ctx, stale))

	got, err = r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "ondra", got.Handle)

	// a locally dirty row is never overwritten
	got.Bio = "local edit"
	got.MarkDirty(now.Add(time.Second))
	require.NoError(t, r.Save(ctx, got))

	newer := &models.Profile{ID: "id1", Handle: "remote-wins"}
	newer.InitTimestamps(now.Add(time.Hour))
	require.NoError(t, r.ApplyRemote(ctx, newer))

	got, err = r.GetByID(ctx, "id1")
	require.NoError(t, err)
	assert.Equal(t, "ondra", got.Handle)
	assert.Equal(t, "local edit", got.Bio)
}

func TestDirtyCounts(t *testing.T) {
	db := setupDB(t)
	r := New(db)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, r.Save(ctx, newProfile("a", "h1", now)))
	require.NoError(t, r.Save(ctx, newProfile("b", "h2", now)))
	require.NoError(t, r.RecordSyncFailure(ctx, "b", true, 5))

	pending, failed, err := r.DirtyCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, failed)
}
