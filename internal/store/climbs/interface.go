package climbs

import (
	"context"
	"time"

	"github.com/cruxlog/cruxlog/internal/models"
)

// Repository describes persistence and sync-bookkeeping operations for
// climbs.
type Repository interface {
	Save(ctx context.Context, c *models.Climb) error

	// GetByID returns a climb by id, including soft-deleted ones.
	GetByID(ctx context.Context, id string) (*models.Climb, error)

	// ListBySession returns the session's non-deleted climbs in log order.
	ListBySession(ctx context.Context, sessionID string) ([]models.Climb, error)

	Pending(ctx context.Context) ([]models.PendingRecord, error)
	AcknowledgeSync(ctx context.Context, id string, seen time.Time) (bool, error)
	RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error
	DirtyCounts(ctx context.Context) (pending, failed int, err error)
	ApplyRemote(ctx context.Context, c *models.Climb) error
}
