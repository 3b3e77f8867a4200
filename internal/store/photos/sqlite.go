package photos

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

const photoColumns = `id, climb_id, local_path, object_key, content_type,
	created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status`

func scanPhoto(row interface{ Scan(dest ...any) error }) (*models.Photo, error) {
	p := &models.Photo{}
	var created, updated int64
	var deleted sql.NullInt64
	var status string
	err := row.Scan(&p.ID, &p.ClimbID, &p.LocalPath, &p.ObjectKey, &p.ContentType,
		&created, &updated, &deleted, &p.NeedsSync, &p.SyncAttempts, &status)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = dbx.FromNanos(created)
	p.UpdatedAt = dbx.FromNanos(updated)
	p.DeletedAt = dbx.TimePtr(deleted)
	p.SyncStatus = models.SyncStatus(status)
	return p, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, p *models.Photo) error {
	query := `
		INSERT INTO photos (id, climb_id, local_path, object_key, content_type,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			local_path = excluded.local_path,
			object_key = excluded.object_key,
			content_type = excluded.content_type,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			needs_sync = excluded.needs_sync,
			sync_attempts = excluded.sync_attempts,
			sync_status = excluded.sync_status
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ClimbID, p.LocalPath, p.ObjectKey, p.ContentType,
		dbx.Nanos(p.CreatedAt), dbx.Nanos(p.UpdatedAt), dbx.NullableNanos(p.DeletedAt),
		p.NeedsSync, p.SyncAttempts, string(p.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to save photo: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = ?`, id)
	p, err := scanPhoto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select photo: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) ListByClimb(ctx context.Context, climbID string) ([]models.Photo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos
		WHERE climb_id = ? AND deleted_at IS NULL ORDER BY created_at`, climbID)
	if err != nil {
		return nil, fmt.Errorf("failed to select photos: %w", err)
	}
	defer rows.Close()

	var result []models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	query := `SELECT id, updated_at, deleted_at IS NOT NULL, sync_attempts FROM photos
		WHERE needs_sync = 1 AND sync_status != 'failed'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending photos: %w", err)
	}
	defer rows.Close()

	var result []models.PendingRecord
	for rows.Next() {
		rec := models.PendingRecord{Kind: models.KindPhoto}
		var updated int64
		if err := rows.Scan(&rec.Key, &updated, &rec.Deleted, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.UpdatedAt = dbx.FromNanos(updated)
		result = append(result, rec)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) AcknowledgeSync(ctx context.Context, id string, seen time.Time) (bool, error) {
	query := `UPDATE photos SET needs_sync = 0, sync_attempts = 0, sync_status = ''
		WHERE id = ? AND updated_at = ? AND needs_sync = 1`
	res, err := r.db.ExecContext(ctx, query, id, dbx.Nanos(seen))
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge photo sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error {
	query := `UPDATE photos SET sync_attempts = sync_attempts + 1,
		sync_status = CASE WHEN ? OR sync_attempts + 1 >= ? THEN 'failed' ELSE sync_status END
		WHERE id = ? AND needs_sync = 1`
	if _, err := r.db.ExecContext(ctx, query, permanent, maxAttempts, id); err != nil {
		return fmt.Errorf("failed to record photo sync failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DirtyCounts(ctx context.Context) (pending, failed int, err error) {
	query := `SELECT COALESCE(SUM(sync_status = 'pending'), 0), COALESCE(SUM(sync_status = 'failed'), 0)
		FROM photos WHERE needs_sync = 1`
	if err := r.db.QueryRowContext(ctx, query).Scan(&pending, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count dirty photos: %w", err)
	}
	return pending, failed, nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, p *models.Photo) error {
	query := `
		INSERT INTO photos (id, climb_id, local_path, object_key, content_type,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, '')
		ON CONFLICT (id) DO UPDATE SET
			object_key = excluded.object_key,
			content_type = excluded.content_type,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE photos.needs_sync = 0 AND excluded.updated_at > photos.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.ClimbID, p.LocalPath, p.ObjectKey, p.ContentType,
		dbx.Nanos(p.CreatedAt), dbx.Nanos(p.UpdatedAt), dbx.NullableNanos(p.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to apply remote photo: %w", err)
	}
	return nil
}
