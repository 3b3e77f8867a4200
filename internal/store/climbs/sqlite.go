package climbs

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

const climbColumns = `id, session_id, route, grade, style, sent,
	created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status`

func scanClimb(row interface{ Scan(dest ...any) error }) (*models.Climb, error) {
	c := &models.Climb{}
	var created, updated int64
	var deleted sql.NullInt64
	var style, status string
	err := row.Scan(&c.ID, &c.SessionID, &c.Route, &c.Grade, &style, &c.Sent,
		&created, &updated, &deleted, &c.NeedsSync, &c.SyncAttempts, &status)
	if err != nil {
		return nil, err
	}
	c.Style = models.ClimbStyle(style)
	c.CreatedAt = dbx.FromNanos(created)
	c.UpdatedAt = dbx.FromNanos(updated)
	c.DeletedAt = dbx.TimePtr(deleted)
	c.SyncStatus = models.SyncStatus(status)
	return c, nil
}

func (r *SQLiteRepository) Save(ctx context.Context, c *models.Climb) error {
	query := `
		INSERT INTO climbs (id, session_id, route, grade, style, sent,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			route = excluded.route,
			grade = excluded.grade,
			style = excluded.style,
			sent = excluded.sent,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at,
			needs_sync = excluded.needs_sync,
			sync_attempts = excluded.sync_attempts,
			sync_status = excluded.sync_status
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.SessionID, c.Route, c.Grade, string(c.Style), c.Sent,
		dbx.Nanos(c.CreatedAt), dbx.Nanos(c.UpdatedAt), dbx.NullableNanos(c.DeletedAt),
		c.NeedsSync, c.SyncAttempts, string(c.SyncStatus))
	if err != nil {
		return fmt.Errorf("failed to save climb: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Climb, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+climbColumns+` FROM climbs WHERE id = ?`, id)
	c, err := scanClimb(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select climb: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListBySession(ctx context.Context, sessionID string) ([]models.Climb, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+climbColumns+` FROM climbs
		WHERE session_id = ? AND deleted_at IS NULL ORDER BY created_at`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select climbs: %w", err)
	}
	defer rows.Close()

	var result []models.Climb
	for rows.Next() {
		c, err := scanClimb(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	query := `SELECT id, updated_at, deleted_at IS NOT NULL, sync_attempts FROM climbs
		WHERE needs_sync = 1 AND sync_status != 'failed'`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select pending climbs: %w", err)
	}
	defer rows.Close()

	var result []models.PendingRecord
	for rows.Next() {
		rec := models.PendingRecord{Kind: models.KindClimb}
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
	query := `UPDATE climbs SET needs_sync = 0, sync_attempts = 0, sync_status = ''
		WHERE id = ? AND updated_at = ? AND needs_sync = 1`
	res, err := r.db.ExecContext(ctx, query, id, dbx.Nanos(seen))
	if err != nil {
		return false, fmt.Errorf("failed to acknowledge climb sync: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *SQLiteRepository) RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error {
	query := `UPDATE climbs SET sync_attempts = sync_attempts + 1,
		sync_status = CASE WHEN ? OR sync_attempts + 1 >= ? THEN 'failed' ELSE sync_status END
		WHERE id = ? AND needs_sync = 1`
	if _, err := r.db.ExecContext(ctx, query, permanent, maxAttempts, id); err != nil {
		return fmt.Errorf("failed to record climb sync failure: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DirtyCounts(ctx context.Context) (pending, failed int, err error) {
	query := `SELECT COALESCE(SUM(sync_status = 'pending'), 0), COALESCE(SUM(sync_status = 'failed'), 0)
		FROM climbs WHERE needs_sync = 1`
	if err := r.db.QueryRowContext(ctx, query).Scan(&pending, &failed); err != nil {
		return 0, 0, fmt.Errorf("failed to count dirty climbs: %w", err)
	}
	return pending, failed, nil
}

func (r *SQLiteRepository) ApplyRemote(ctx context.Context, c *models.Climb) error {
	query := `
		INSERT INTO climbs (id, session_id, route, grade, style, sent,
			created_at, updated_at, deleted_at, needs_sync, sync_attempts, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, '')
		ON CONFLICT (id) DO UPDATE SET
			route = excluded.route,
			grade = excluded.grade,
			style = excluded.style,
			sent = excluded.sent,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE climbs.needs_sync = 0 AND excluded.updated_at > climbs.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.SessionID, c.Route, c.Grade, string(c.Style), c.Sent,
		dbx.Nanos(c.CreatedAt), dbx.Nanos(c.UpdatedAt), dbx.NullableNanos(c.DeletedAt))
	if err != nil {
		return fmt.Errorf("failed to apply remote climb: %w", err)
	}
	return nil
}
