package attempts

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

const attemptColumns = `id, climb_id, number, result, note,
	created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status`

func scanAttempt(row interface{ Scan(dest ...any) error }) (*models.Attempt, error) {
	a := &models.Attempt{}
	var created, updated int64
	var deleted sql.NullInt64
	var result, status string
	err := row.Scan(&a.ID, &a.ClimbID, &a.Number, &result, &a.Note,
		&created, &updated, &deleted, &a.NeedsSync, &a.SyncAttempts, &status)
	if err != nil {
		return nil, err
	}
	a.Result = models.AttemptResult(result)
	a.CreatedAt = dbx.FromNanos(created)
	a.UpdatedAt = dbx.FromNanos(updated)
	a.DeletedAt = dbx.TimePtr(deleted)
	a.SyncStatus = models.SyncStatus(status)
	return a, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, a *models.Attempt) error {
	query := `
		INSERT INTO attempts (id, climb_id, number, result, note,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			number = excluded.number,
			result = excluded.result,
			note = excluded.note,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			needs_sync = excluded.needs_sync,
			sync_attempts = excluded.sync_attempts,
			sync_status = excluded.sync_status
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.ClimbID, a.Number, string(a.Result), a.Note,
		dbx.Nanos(a.CreatedAt), dbx.Nanos(a.UpdatedAt), dbx.NullableNanos(a.DeletedAt),
		a.NeedsSync, a.SyncAttempts, string(a.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Attempt, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+attemptColumns+` FROM attempts WHERE id = ?`, id)
	a, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select attempt: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) ListByClimb(ctx context.Context, climbID string) ([]models.Attempt, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+attemptColumns+` FROM attempts
		WHERE climb_id = ? AND deleted_at IS NULL ORDER BY number`, climbID)
	if err != nil {
		return nil, fmt.Errorf("failed to select attempts: %w", err)
	}
	defer rows.Close()

	var result []models.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) CountByClimb(ctx context.Context, climbID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempts WHERE climb_id = ? AND deleted_at IS NULL`, climbID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return n, nil
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	query := `SELECT id, updated_at, deleted_at IS NOT NULL, sync_attempts FROM attempts
		WHERE needs_sync = 1 AND sync_status != 'failed'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending attempts: %w", err)
	}
	defer rows.Close()

	var result []models.PendingRecord
	for rows.Next() {
		rec := models.PendingRecord{Kind: models.KindAttempt}
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
	query := `UPDATE attempts SET needs_sync = 0, sync_attempts = 0, sync_status = ''
		WHERE id = ? AND updated_at = ? AND needs_sync = 1`
	res, err := r.db.ExecContext(ctx, query, id, dbx.Nanos(seen))
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge attempt sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error {
	query := `UPDATE attempts SET sync_attempts = sync_attempts + 1,
		sync_status = CASE WHEN ? OR sync_attempts + 1 >= ? THEN 'failed' ELSE sync_status END
		WHERE id = ? AND needs_sync = 1`
	if _, err := r.db.ExecContext(ctx, query, permanent, maxAttempts, id); err != nil {
		return fmt.Errorf("failed to record attempt sync failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DirtyCounts(ctx context.Context) (pending, failed int, err error) {
	query := `SELECT COALESCE(SUM(sync_status = 'pending'), 0), COALESCE(SUM(sync_status = 'failed'), 0)
		FROM attempts WHERE needs_sync = 1`
	if err := r.db.QueryRowContext(ctx, query).Scan(&pending, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count dirty attempts: %w", err)
	}
	return pending, failed, nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, a *models.Attempt) error {
	query := `
		INSERT INTO attempts (id, climb_id, number, result, note,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, '')
		ON CONFLICT (id) DO UPDATE SET
			number = excluded.number,
			result = excluded.result,
			note = excluded.note,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE attempts.needs_sync = 0 AND excluded.updated_at > attempts.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.ClimbID, a.Number, string(a.Result), a.Note,
		dbx.Nanos(a.CreatedAt), dbx.Nanos(a.UpdatedAt), dbx.NullableNanos(a.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to apply remote attempt: %w", err)
	}
	return nil
}
