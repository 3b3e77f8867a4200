package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
)

// ClimbAdapter pushes and pulls climb rows.
type ClimbAdapter struct {
	db dbx.DBTX
}

// Upsert writes the full local state of the climb, keyed by id.
func (a *ClimbAdapter) Upsert(ctx context.Context, c *models.Climb) error {
	query := `
		INSERT INTO climbs (id, session_id, route, grade, style, sent, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			route = EXCLUDED.route,
			grade = EXCLUDED.grade,
			style = EXCLUDED.style,
			sent = EXCLUDED.sent,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
		WHERE climbs.updated_at <= EXCLUDED.updated_at
	`
	_, err := a.db.ExecContext(ctx, query,
		c.ID, c.SessionID, c.Route, c.Grade, string(c.Style), c.Sent,
		c.CreatedAt, c.UpdatedAt, nullableTime(c.DeletedAt))
	return remote.Classify("climbs.upsert", err)
}

// SoftDelete propagates a tombstone as a full-state upsert.
func (a *ClimbAdapter) SoftDelete(ctx context.Context, c *models.Climb) error {
	return a.Upsert(ctx, c)
}

// FetchSince returns rows mutated after the (since, sinceKey) cursor, paged
// by (updated_at, id).
func (a *ClimbAdapter) FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Climb, error) {
	query := `
		SELECT id, session_id, route, grade, style, sent, created_at, updated_at, deleted_at
		FROM climbs WHERE (updated_at, id) > ($1, $2) ORDER BY updated_at, id LIMIT $3
	`
	rows, err := a.db.QueryContext(ctx, query, since, sinceKey, limit)
	if err != nil {
		return nil, remote.Classify("climbs.fetch", err)
	}
	defer rows.Close()

	var result []models.Climb
	for rows.Next() {
		var c models.Climb
		var style string
		var deleted sql.NullTime
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Route, &c.Grade, &style, &c.Sent,
			&c.CreatedAt, &c.UpdatedAt, &deleted); err != nil {
			return nil, remote.Classify("climbs.fetch", err)
		}
		c.Style = models.ClimbStyle(style)
		c.DeletedAt = timePtr(deleted)
		result = append(result, c)
	}
	return result, remote.Classify("climbs.fetch", rows.Err())
}
