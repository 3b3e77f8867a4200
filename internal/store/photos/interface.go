package photos

import (
	"context"
	"time"

	"github.com/cruxlog/cruxlog/internal/models"
)

// Repository describes persistence and sync-bookkeeping operations for climb
// photos. The photo row syncs like any other record; the blob itself is
// uploaded by the photo sync binding before the row push.
type Repository interface {
	Save(ctx context.Context, p *models.Photo) error

	// GetByID returns a photo by id, including soft-deleted ones.
	GetByID(ctx context.Context, id string) (*models.Photo, error)

	// ListByClimb returns the climb's non-deleted photos.
	ListByClimb(ctx context.Context, climbID string) ([]models.Photo, error)

	Pending(ctx context.Context) ([]models.PendingRecord, error)
	AcknowledgeSync(ctx context.Context, id string, seen time.Time) (bool, error)
	RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error
	DirtyCounts(ctx context.Context) (pending, failed int, err error)
	ApplyRemote(ctx context.Context, p *models.Photo) error
}
