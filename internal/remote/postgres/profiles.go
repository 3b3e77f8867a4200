package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
)

// ProfileAdapter pushes and pulls profile rows.
type ProfileAdapter struct {
	db dbx.DBTX
}

// Upsert writes the full local state of the profile, keyed by id. A remote
// row with a newer updated_at wins and the call still succeeds.
func (a *ProfileAdapter) Upsert(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO profiles (id, handle, display_name, bio, home_crag, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			handle = EXCLUDED.handle,
			display_name = EXCLUDED.display_name,
			bio = EXCLUDED.bio,
			home_crag = EXCLUDED.home_crag,
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
		WHERE profiles.updated_at <= EXCLUDED.updated_at
	`
	_, err := a.db.ExecContext(ctx, query,
		p.ID, p.Handle, p.DisplayName, p.Bio, p.HomeCrag,
		p.CreatedAt, p.UpdatedAt, nullableTime(p.DeletedAt))
	return remote.Classify("profiles.upsert", err)
}

// SoftDelete propagates a tombstone. A delete is pushed as a full-state
// upsert so it also covers the created-then-deleted-before-any-drain case.
func (a *ProfileAdapter) SoftDelete(ctx context.Context, p *models.Profile) error {
	return a.Upsert(ctx, p)
}

// FetchSince returns rows mutated after the (since, sinceKey) cursor, paged
// by (updated_at, id) so rows sharing a timestamp cannot straddle a page
// boundary unfetched.
func (a *ProfileAdapter) FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Profile, error) {
	query := `
		SELECT id, handle, display_name, bio, home_crag, created_at, updated_at, deleted_at
		FROM profiles WHERE (updated_at, id) > ($1, $2) ORDER BY updated_at, id LIMIT $3
	`
	rows, err := a.db.QueryContext(ctx, query, since, sinceKey, limit)
	if err != nil {
		return nil, remote.Classify("profiles.fetch", err)
	}
	defer rows.Close()

	var result []models.Profile
	for rows.Next() {
		var p models.Profile
		var deleted sql.NullTime
		if err := rows.Scan(&p.ID, &p.Handle, &p.DisplayName, &p.Bio, &p.HomeCrag,
			&p.CreatedAt, &p.UpdatedAt, &deleted); err != nil {
			return nil, remote.Classify("profiles.fetch", err)
		}
		p.DeletedAt = timePtr(deleted)
		result = append(result, p)
	}
	return result, remote.Classify("profiles.fetch", rows.Err())
}
