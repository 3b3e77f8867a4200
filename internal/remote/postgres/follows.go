package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote"
)

// FollowAdapter pushes and pulls follow rows. Follows are keyed by the
// (follower, followee) tuple; un- and re-following flips deleted_at on the
// same row instead of deleting and re-creating it, so the remote identity
// stays stable across cycles.
type FollowAdapter struct {
	db dbx.DBTX
}

func (a *FollowAdapter) upsert(ctx context.Context, op string, f *models.Follow) error {
	query := `
		INSERT INTO follows (follower_id, followee_id, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (follower_id, followee_id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			deleted_at = EXCLUDED.deleted_at
		WHERE follows.updated_at <= EXCLUDED.updated_at
	`
	_, err := a.db.ExecContext(ctx, query,
		f.FollowerID, f.FolloweeID, f.CreatedAt, f.UpdatedAt, nullableTime(f.DeletedAt))
	return remote.Classify(op, err)
}

// RestoreOrInsert writes an active follow for the tuple: inserting the row
// if it never existed, or clearing a previous tombstone in place.
func (a *FollowAdapter) RestoreOrInsert(ctx context.Context, f *models.Follow) error {
	return a.upsert(ctx, "follows.restore", f)
}

// SoftDelete propagates an unfollow tombstone for the tuple.
func (a *FollowAdapter) SoftDelete(ctx context.Context, f *models.Follow) error {
	return a.upsert(ctx, "follows.delete", f)
}

// FetchSince returns rows mutated after the (since, sinceKey) cursor. The
// tiebreaker is the follower/followee tuple key, matching the pending-record
// key format, so rows sharing a timestamp page exactly.
func (a *FollowAdapter) FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Follow, error) {
	query := `
		SELECT follower_id, followee_id, created_at, updated_at, deleted_at
		FROM follows WHERE (updated_at, follower_id || '/' || followee_id) > ($1, $2)
		ORDER BY updated_at, follower_id || '/' || followee_id LIMIT $3
	`
	rows, err := a.db.QueryContext(ctx, query, since, sinceKey, limit)
	if err != nil {
		return nil, remote.Classify("follows.fetch", err)
	}
	defer rows.Close()

	var result []models.Follow
	for rows.Next() {
		var f models.Follow
		var deleted sql.NullTime
		if err := rows.Scan(&f.FollowerID, &f.FolloweeID, &f.CreatedAt, &f.UpdatedAt, &deleted); err != nil {
			return nil, remote.Classify("follows.fetch", err)
		}
		f.DeletedAt = timePtr(deleted)
		result = append(result, f)
	}
	return result, remote.Classify("follows.fetch", rows.Err())
}
