package attempts

import (
	"context"
	"time"

	"github.com/cruxlog/cruxlog/internal/models"
)

// Repository describes persistence and sync-bookkeeping operations for
// attempts.
type Repository interface {
	Save(ctx context.Context, a *models.Attempt) error

	// GetByID returns an attempt by id, including soft-deleted ones.
	GetByID(ctx context.Context, id string) (*models.Attempt, error)

	// ListByClimb returns the climb's non-deleted attempts ordered by number.
	ListByClimb(ctx context.Context, climbID string) ([]models.Attempt, error)

	// CountByClimb returns how many attempts exist for the climb, used to
	// number the next one.
	CountByClimb(ctx context.Context, climbID string) (int, error)

	Pending(ctx context.Context) ([]models.PendingRecord, error)
	AcknowledgeSync(ctx context.Context, id string, seen time.Time) (bool, error)
	RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error
	DirtyCounts(ctx context.Context) (pending, failed int, err error)
	ApplyRemote(ctx context.Context, a *models.Attempt) error
}
