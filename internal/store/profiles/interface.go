package profiles

import (
	"context"
	"time"

	"github.com/cruxlog/cruxlog/internal/models"
)

// Repository describes persistence and sync-bookkeeping operations for
// Profile records in the local store.
type Repository interface {
	// Save upserts the full profile row, including its sync fields.
	Save(ctx context.Context, p *models.Profile) error

	// GetByID returns a profile by id, including soft-deleted ones; the
	// sync dispatcher needs tombstones too. Callers that care should check
	// IsDeleted.
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// GetByHandle returns a non-deleted profile by its handle.
	GetByHandle(ctx context.Context, handle string) (*models.Profile, error)

	// Pending returns records with local changes awaiting a push, excluding
	// ones parked in the failed sub-state.
	Pending(ctx context.Context) ([]models.PendingRecord, error)

	// AcknowledgeSync clears the dirty flag, but only if updated_at still
	// equals the snapshot the dispatch was based on. Returns false when the
	// record was mutated again in the interim (or purged) and the flag was
	// left alone.
	AcknowledgeSync(ctx context.Context, id string, seen time.Time) (bool, error)

	// RecordSyncFailure bumps the attempt counter; a permanent failure or
	// exceeding maxAttempts parks the record as failed.
	RecordSyncFailure(ctx context.Context, id string, permanent bool, maxAttempts int) error

	// DirtyCounts reports how many records are pending and failed.
	DirtyCounts(ctx context.Context) (pending, failed int, err error)

	// ApplyRemote upserts a record fetched from the remote store. Locally
	// dirty rows and rows newer than the remote copy are left untouched.
	ApplyRemote(ctx context.Context, p *models.Profile) error
}
