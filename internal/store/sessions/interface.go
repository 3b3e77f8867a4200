package sessions

import (
	"context"
	"time"

	"github.com/cruxlog/cruxlog/internal/models"
)

// Repository describes persistence and sync-bookkeeping operations for
// climbing sessions.
type Repository interface {
	Save(ctx context.Context, s *models.Session) error

	// GetByID returns a session by id, including soft-deleted ones.
	GetByID(ctx context.Context, id string) (*models.Session, error)

	// GetOpen returns the profile's session without an end time, if any.
	GetOpen(ctx context.Context, profileID string) (*models.Session, error)

	// List returns the profile's non-deleted sessions, newest first.
	List(ctx context.Context, profileID string) ([]models.Session, error)

	Pending(ctx context.Context) ([]models.PendingRecord, error)
	AcknowledgeSync(ctx context.Context, id string, seen time.Time) (bool, error)
	RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error
	DirtyCounts(ctx context.Context) (pending, failed int, err error)
	ApplyRemote(ctx context.Context, s *models.Session) error
}
