package follows

import (
	"context"
	"time"

	"github.com/cruxlog/cruxlog/internal/models"
)

// Repository describes persistence and sync-bookkeeping operations for
// Follow relationships. Follows are identified by the (follower, followee)
// tuple; the pending key encodes it as "follower/followee".
type Repository interface {
	// Save upserts the full follow row, including its sync fields.
	Save(ctx context.Context, f *models.Follow) error

	// Get returns the follow for the tuple, including soft-deleted rows so
	// a re-follow can restore the existing row instead of inserting a
	// duplicate.
	Get(ctx context.Context, followerID, followeeID string) (*models.Follow, error)

	// ListActive returns the non-deleted follows originating from followerID.
	ListActive(ctx context.Context, followerID string) ([]models.Follow, error)

	Pending(ctx context.Context) ([]models.PendingRecord, error)
	AcknowledgeSync(ctx context.Context, key string, seen time.Time) (bool, error)
	RecordSyncFailure(ctx context.Context, key string, permanent bool, maxAttempts int) error
	DirtyCounts(ctx context.Context) (pending, failed int, err error)
	ApplyRemote(ctx context.Context, f *models.Follow) error
}
