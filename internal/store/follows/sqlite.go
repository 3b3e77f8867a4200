package follows

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func New(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const followColumns = `follower_id, followee_id, created_at, updated_at, deleted_at,
	needs_sync, sync_attempts, sync_status`

func scanFollow(row interface{ Scan(dest ...any) error }) (*models.Follow, error) {
	f := &models.Follow{}
	var created, updated int64
	var deleted sql.NullInt64
	var status string
	err := row.Scan(&f.FollowerID, &f.FolloweeID, &created, &updated, &deleted,
		&f.NeedsSync, &f.SyncAttempts, &status)
	if err != nil {
		return nil, err
	}
	f.CreatedAt = dbx.FromNanos(created)
	f.UpdatedAt = dbx.FromNanos(updated)
	f.DeletedAt = dbx.TimePtr(deleted)
	f.SyncStatus = models.SyncStatus(status)
	return f, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, f *models.Follow) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at, updated_at, deleted_at,
			needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (follower_id, followee_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			needs_sync = excluded.needs_sync,
			sync_attempts = excluded.sync_attempts,
			sync_status = excluded.sync_status
	`
	_, err := r.db.ExecContext(ctx, query,
		f.FollowerID, f.FolloweeID,
		dbx.Nanos(f.CreatedAt), dbx.Nanos(f.UpdatedAt), dbx.NullableNanos(f.DeletedAt),
		f.NeedsSync, f.SyncAttempts, string(f.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to save follow: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, followerID, followeeID string) (*models.Follow, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+followColumns+` FROM follows WHERE follower_id = ? AND followee_id = ?`,
		followerID, followeeID)
	f, err := scanFollow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select follow: %w", err)
	}
	return f, nil
}

func (r *SQLiteRepository) ListActive(ctx context.Context, followerID string) ([]models.Follow, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+followColumns+` FROM follows WHERE follower_id = ? AND deleted_at IS NULL`,
		followerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select follows: %w", err)
	}
	defer rows.Close()

	var result []models.Follow
	for rows.Next() {
		f, err := scanFollow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *f)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	query := `SELECT follower_id, followee_id, updated_at, deleted_at IS NOT NULL, sync_attempts
		FROM follows WHERE needs_sync = 1 AND sync_status != 'failed'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending follows: %w", err)
	}
	defer rows.Close()

	var result []models.PendingRecord
	for rows.Next() {
		rec := models.PendingRecord{Kind: models.KindFollow}
		var follower, followee string
		var updated int64
		if err := rows.Scan(&follower, &followee, &updated, &rec.Deleted, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.Key = models.FollowKey(follower, followee)
		rec.UpdatedAt = dbx.FromNanos(updated)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) AcknowledgeSync(ctx context.Context, key string, seen time.Time) (bool, error) {
	follower, followee, err := models.ParseFollowKey(key)
	if err != nil {
		return false, err
	}
	query := `UPDATE follows SET needs_sync = 0, sync_attempts = 0, sync_status = ''
		WHERE follower_id = ? AND followee_id = ? AND updated_at = ? AND needs_sync = 1`
	res, err := r.db.ExecContext(ctx, query, follower, followee, dbx.Nanos(seen))
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge follow sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) RecordSyncFailure(ctx context.Context, key string, permanent bool, maxAttempts int) error {
	follower, followee, err := models.ParseFollowKey(key)
	if err != nil {
		return err
	}
	query := `UPDATE follows SET sync_attempts = sync_attempts + 1,
		sync_status = CASE WHEN ? OR sync_attempts + 1 >= ? THEN 'failed' ELSE sync_status END
		WHERE follower_id = ? AND followee_id = ? AND needs_sync = 1`
	if _, err := r.db.ExecContext(ctx, query, permanent, maxAttempts, follower, followee); err != nil {
		return fmt.Errorf("failed to record follow sync failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DirtyCounts(ctx context.Context) (pending, failed int, err error) {
	query := `SELECT COALESCE(SUM(sync_status = 'pending'), 0), COALESCE(SUM(sync_status = 'failed'), 0)
		FROM follows WHERE needs_sync = 1`
	if err := r.db.QueryRowContext(ctx, query).Scan(&pending, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count dirty follows: %w", err)
	}
	return pending, failed, nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, f *models.Follow) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at, updated_at, deleted_at,
			needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, 0, 0, '')
		ON CONFLICT (follower_id, followee_id) DO UPDATE SET
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE follows.needs_sync = 0 AND excluded.updated_at > follows.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		f.FollowerID, f.FolloweeID,
		dbx.Nanos(f.CreatedAt), dbx.Nanos(f.UpdatedAt), dbx.NullableNanos(f.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to apply remote follow: %w", err)
	}
	return nil
}
