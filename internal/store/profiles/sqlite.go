package profiles

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

// SQLiteRepository implements Repository over a dbx.DBTX, so the same code
// runs against *sql.DB and inside service transactions against *sql.Tx.
type SQLiteRepository struct {
	db dbx.DBTX
}

func New(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Save(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, handle, display_name, bio, home_crag,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			handle = excluded.handle,
			display_name = excluded.display_name,
			bio = excluded.bio,
			home_crag = excluded.home_crag,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			needs_sync = excluded.needs_sync,
			sync_attempts = excluded.sync_attempts,
			sync_status = excluded.sync_status
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Handle, p.DisplayName, p.Bio, p.HomeCrag,
		dbx.Nanos(p.CreatedAt), dbx.Nanos(p.UpdatedAt), dbx.NullableNanos(p.DeletedAt),
		p.NeedsSync, p.SyncAttempts, string(p.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

const profileColumns = `id, handle, display_name, bio, home_crag,
	created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status`

func scanProfile(row interface{ Scan(dest ...any) error }) (*models.Profile, error) {
	p := &models.Profile{}
	var created, updated int64
	var deleted sql.NullInt64
	var status string
	err := row.Scan(&p.ID, &p.Handle, &p.DisplayName, &p.Bio, &p.HomeCrag,
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

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) GetByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE handle = ? AND deleted_at IS NULL`, handle)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select profile: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	query := `SELECT id, updated_at, deleted_at IS NOT NULL, sync_attempts FROM profiles
		WHERE needs_sync = 1 AND sync_status != 'failed'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending profiles: %w", err)
	}
	defer rows.Close()

	var result []models.PendingRecord
	for rows.Next() {
		rec := models.PendingRecord{Kind: models.KindProfile}
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
	query := `UPDATE profiles SET needs_sync = 0, sync_attempts = 0, sync_status = ''
		WHERE id = ? AND updated_at = ? AND needs_sync = 1`
	res, err := r.db.ExecContext(ctx, query, id, dbx.Nanos(seen))
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge profile sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error {
	query := `UPDATE profiles SET sync_attempts = sync_attempts + 1,
		sync_status = CASE WHEN ? OR sync_attempts + 1 >= ? THEN 'failed' ELSE sync_status END
		WHERE id = ? AND needs_sync = 1`
	if _, err := r.db.ExecContext(ctx, query, permanent, maxAttempts, id); err != nil {
		return fmt.Errorf("failed to record profile sync failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DirtyCounts(ctx context.Context) (pending, failed int, err error) {
	query := `SELECT COALESCE(SUM(sync_status = 'pending'), 0), COALESCE(SUM(sync_status = 'failed'), 0)
		FROM profiles WHERE needs_sync = 1`
	if err := r.db.QueryRowContext(ctx, query).Scan(&pending, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count dirty profiles: %w", err)
	}
	return pending, failed, nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, handle, display_name, bio, home_crag,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, '')
		ON CONFLICT (id) DO UPDATE SET
			handle = excluded.handle,
			display_name = excluded.display_name,
			bio = excluded.bio,
			home_crag = excluded.home_crag,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE profiles.needs_sync = 0 AND excluded.updated_at > profiles.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Handle, p.DisplayName, p.Bio, p.HomeCrag,
		dbx.Nanos(p.CreatedAt), dbx.Nanos(p.UpdatedAt), dbx.NullableNanos(p.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to apply remote profile: %w", err)
	}
	return nil
}
