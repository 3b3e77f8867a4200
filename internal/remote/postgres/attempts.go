package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
)

// AttemptAdapter pushes and pulls attempt rows.
type AttemptAdapter struct {
	db dbx.DBTX
}

// Upsert writes the full local state of the attempt, keyed by id.
func (a *AttemptAdapter) Upsert(ctx context.Context, at *models.Attempt) error {
	query := `
		INSERT INTO attempts (id, climb_id, number, result, note, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			number = EXCLUDED.number,
			result = EXCLUDED.result,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
		WHERE attempts.updated_at <= EXCLUDED.updated_at
	`
	_, err := a.db.ExecContext(ctx, query,
		at.ID, at.ClimbID, at.Number, string(at.Result), at.Note,
		at.CreatedAt, at.UpdatedAt, nullableTime(at.DeletedAt))
	return remote.Classify("attempts.upsert", err)
}

// SoftDelete propagates a tombstone as a full-state upsert.
func (a *AttemptAdapter) SoftDelete(ctx context.Context, at *models.Attempt) error {
	return a.Upsert(ctx, at)
}

// FetchSince returns rows mutated after the (since, sinceKey) cursor, paged
// by (updated_at, id).
func (a *AttemptAdapter) FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Attempt, error) {
	query := `
		SELECT id, climb_id, number, result, note, created_at, updated_at, deleted_at
		FROM attempts WHERE (updated_at, id) > ($1, $2) ORDER BY updated_at, id LIMIT $3
	`
	rows, err := a.db.QueryContext(ctx, query, since, sinceKey, limit)
	if err != nil {
		return nil, remote.Classify("attempts.fetch", err)
	}
	defer rows.Close()

	var result []models.Attempt
	for rows.Next() {
		var at models.Attempt
		var res string
		var deleted sql.NullTime
		if err := rows.Scan(&at.ID, &at.ClimbID, &at.Number, &res, &at.Note,
			&at.CreatedAt, &at.UpdatedAt, &deleted); err != nil {
			return nil, remote.Classify("attempts.fetch", err)
		}
		at.Result = models.AttemptResult(res)
		at.DeletedAt = timePtr(deleted)
		result = append(result, at)
	}
	return result, remote.Classify("attempts.fetch", rows.Err())
}
