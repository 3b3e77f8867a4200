package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
)

// SessionAdapter pushes and pulls session rows.
type SessionAdapter struct {
	db dbx.DBTX
}

// Upsert writes the full local state of the session, keyed by id.
func (a *SessionAdapter) Upsert(ctx context.Context, s *models.Session) error {
	query := `
		INSERT INTO sessions (id, profile_id, crag, started_at, ended_at, notes, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			crag = EXCLUDED.crag,
			started_at = EXCLUDED.started_at,
			ended_at = EXCLUDED.ended_at,
			notes = EXCLUDED.notes,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
		WHERE sessions.updated_at <= EXCLUDED.updated_at
	`
	_, err := a.db.ExecContext(ctx, query,
		s.ID, s.ProfileID, s.Crag, s.StartedAt, nullableTime(s.EndedAt), s.Notes,
		s.CreatedAt, s.UpdatedAt, nullableTime(s.DeletedAt))
	return remote.Classify("sessions.upsert", err)
}

// SoftDelete propagates a tombstone as a full-state upsert.
func (a *SessionAdapter) SoftDelete(ctx context.Context, s *models.Session) error {
	return a.Upsert(ctx, s)
}

// FetchSince returns rows mutated after the (since, sinceKey) cursor, paged
// by (updated_at, id).
func (a *SessionAdapter) FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Session, error) {
	query := `
		SELECT id, profile_id, crag, started_at, ended_at, notes, created_at, updated_at, deleted_at
		FROM sessions WHERE (updated_at, id) > ($1, $2) ORDER BY updated_at, id LIMIT $3
	`
	rows, err := a.db.QueryContext(ctx, query, since, sinceKey, limit)
	if err != nil {
		return nil, remote.Classify("sessions.fetch", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		var s models.Session
		var ended, deleted sql.NullTime
		if err := rows.Scan(&s.ID, &s.ProfileID, &s.Crag, &s.StartedAt, &ended, &s.Notes,
			&s.CreatedAt, &s.UpdatedAt, &deleted); err != nil {
			return nil, remote.Classify("sessions.fetch", err)
		}
		s.EndedAt = timePtr(ended)
		s.DeletedAt = timePtr(deleted)
		result = append(result, s)
	}
	return result, remote.Classify("sessions.fetch", rows.Err())
}
