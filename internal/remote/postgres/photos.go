package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
)

// PhotoAdapter pushes and pulls photo rows. The blob itself lives in object
// storage; only the object key travels through the table.
type PhotoAdapter struct {
	db dbx.DBTX
}

// Upsert writes the full local state of the photo row, keyed by id.
func (a *PhotoAdapter) Upsert(ctx context.Context, p *models.Photo) error {
	query := `
		INSERT INTO photos (id, climb_id, object_key, content_type, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			object_key = EXCLUDED.object_key,
			content_type = EXCLUDED.content_type,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
		WHERE photos.updated_at <= EXCLUDED.updated_at
	`
	_, err := a.db.ExecContext(ctx, query,
		p.ID, p.ClimbID, p.ObjectKey, p.ContentType,
		p.CreatedAt, p.UpdatedAt, nullableTime(p.DeletedAt))
	return remote.Classify("photos.upsert", err)
}

// SoftDelete propagates a tombstone as a full-state upsert.
func (a *PhotoAdapter) SoftDelete(ctx context.Context, p *models.Photo) error {
	return a.Upsert(ctx, p)
}

// FetchSince returns rows mutated after the (since, sinceKey) cursor, paged
// by (updated_at, id).
func (a *PhotoAdapter) FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Photo, error) {
	query := `
		SELECT id, climb_id, object_key, content_type, created_at, updated_at, deleted_at
		FROM photos WHERE (updated_at, id) > ($1, $2) ORDER BY updated_at, id LIMIT $3
	`
	rows, err := a.db.QueryContext(ctx, query, since, sinceKey, limit)
	if err != nil {
		return nil, remote.Classify("photos.fetch", err)
	}
	defer rows.Close()

	var result []models.Photo
	for rows.Next() {
		var p models.Photo
		var deleted sql.NullTime
		if err := rows.Scan(&p.ID, &p.ClimbID, &p.ObjectKey, &p.ContentType,
			&p.CreatedAt, &p.UpdatedAt, &deleted); err != nil {
			return nil, remote.Classify("photos.fetch", err)
		}
		p.DeletedAt = timePtr(deleted)
		result = append(result, p)
	}
	return result, remote.Classify("photos.fetch", rows.Err())
}
