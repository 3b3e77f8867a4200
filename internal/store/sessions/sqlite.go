package sessions

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

const sessionColumns = `id, profile_id, crag, started_at, ended_at, notes,
	created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status`

func scanSession(row interface{ Scan(dest ...any) error }) (*models.Session, error) {
	s := &models.Session{}
	var started, created, updated int64
	var ended, deleted sql.NullInt64
	var status string
	err := row.Scan(&s.ID, &s.ProfileID, &s.Crag, &started, &ended, &s.Notes,
		&created, &updated, &deleted, &s.NeedsSync, &s.SyncAttempts, &status)
	if err != nil {
		return nil, err
	}
	s.StartedAt = dbx.FromNanos(started)
	s.EndedAt = dbx.TimePtr(ended)
	s.CreatedAt = dbx.FromNanos(created)
	s.UpdatedAt = dbx.FromNanos(updated)
	s.DeletedAt = dbx.TimePtr(deleted)
	s.SyncStatus = models.SyncStatus(status)
	return s, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, profile_id, crag, started_at, ended_at, notes,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			crag = excluded.crag,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			notes = excluded.notes,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			needs_sync = excluded.needs_sync,
			sync_attempts = excluded.sync_attempts,
			sync_status = excluded.sync_status
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.ProfileID, s.Crag, dbx.Nanos(s.StartedAt), dbx.NullableNanos(s.EndedAt), s.Notes,
		dbx.Nanos(s.CreatedAt), dbx.Nanos(s.UpdatedAt), dbx.NullableNanos(s.DeletedAt),
		s.NeedsSync, s.SyncAttempts, string(s.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select session: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) GetOpen(ctx context.Context, profileID string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		WHERE profile_id = ? AND ended_at IS NULL AND deleted_at IS NULL`, profileID)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select open session: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) List(ctx context.Context, profileID string) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		WHERE profile_id = ? AND deleted_at IS NULL ORDER BY started_at DESC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("failed to select sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	query := `SELECT id, updated_at, deleted_at IS NOT NULL, sync_attempts FROM sessions
		WHERE needs_sync = 1 AND sync_status != 'failed'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending sessions: %w", err)
	}
	defer rows.Close()

	var result []models.PendingRecord
	for rows.Next() {
		rec := models.PendingRecord{Kind: models.KindSession}
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
	query := `UPDATE sessions SET needs_sync = 0, sync_attempts = 0, sync_status = ''
		WHERE id = ? AND updated_at = ? AND needs_sync = 1`
	res, err := r.db.ExecContext(ctx, query, id, dbx.Nanos(seen))
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge session sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error {
	query := `UPDATE sessions SET sync_attempts = sync_attempts + 1,
		sync_status = CASE WHEN ? OR sync_attempts + 1 >= ? THEN 'failed' ELSE sync_status END
		WHERE id = ? AND needs_sync = 1`
	if _, err := r.db.ExecContext(ctx, query, permanent, maxAttempts, id); err != nil {
		return fmt.Errorf("failed to record session sync failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DirtyCounts(ctx context.Context) (pending, failed int, err error) {
	query := `SELECT COALESCE(SUM(sync_status = 'pending'), 0), COALESCE(SUM(sync_status = 'failed'), 0)
		FROM sessions WHERE needs_sync = 1`
	if err := r.db.QueryRowContext(ctx, query).Scan(&pending, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count dirty sessions: %w", err)
	}
	return pending, failed, nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, profile_id, crag, started_at, ended_at, notes,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, '')
		ON CONFLICT (id) DO UPDATE SET
			crag = excluded.crag,
			started_at = excluded.started_at,
			ended_at = excluded.ended_at,
			notes = excluded.notes,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE sessions.needs_sync = 0 AND excluded.updated_at > sessions.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID, s.ProfileID, s.Crag, dbx.Nanos(s.StartedAt), dbx.NullableNanos(s.EndedAt), s.Notes,
		dbx.Nanos(s.CreatedAt), dbx.Nanos(s.UpdatedAt), dbx.NullableNanos(s.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to apply remote session: %w", err)
	}
	return nil
}
