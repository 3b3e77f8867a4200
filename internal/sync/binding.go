package sync

import (
	"context"
	"errors"
	"time"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/store/attempts"
	"github.com/cruxlog/cruxlog/internal/store/climbs"
	"github.com/cruxlog/cruxlog/internal/store/follows"
	"github.com/cruxlog/cruxlog/internal/store/photos"
	"github.com/cruxlog/cruxlog/internal/store/profiles"
	"github.com/cruxlog/cruxlog/internal/store/sessions"
)

// Binding glues one entity kind's local repository to its remote table
// adapter. The coordinator is adapter-agnostic: it only ever talks to
// bindings.
type Binding interface {
	// Kind returns the entity kind this binding serves.
	Kind() models.EntityKind

	// Pending lists the kind's dirty records awaiting a push.
	Pending(ctx context.Context) ([]models.PendingRecord, error)

	// Dispatch performs the remote call for the record's current local
	// state. Returns a remote.Error on failure; a record that disappeared
	// locally is not an error.
	Dispatch(ctx context.Context, rec models.PendingRecord) error

	// Acknowledge clears the dirty flag if the record is unchanged since
	// rec was read. Returns false when the flag was left set.
	Acknowledge(ctx context.Context, rec models.PendingRecord) (bool, error)

	// Fail records a failed push attempt.
	Fail(ctx context.Context, rec models.PendingRecord, permanent bool) error

	// Counts reports the kind's pending and failed record counts.
	Counts(ctx context.Context) (pending, failed int, err error)

	// Pull fetches remote rows mutated after the (since, sinceKey) cursor
	// and applies them locally, skipping locally dirty rows. Returns the
	// advanced cursor and how many rows were fetched. Rows page by
	// (updated_at, key), so ties on updated_at never slip past a page
	// boundary.
	Pull(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error)
}

// syncSurface is the uniform sync-bookkeeping subset every local repository
// implements.
type syncSurface interface {
	Pending(ctx context.Context) ([]models.PendingRecord, error)
	AcknowledgeSync(ctx context.Context, key string, seen time.Time) (bool, error)
	RecordSyncFailure(ctx context.Context, key string, permanent bool, maxAttempts int) error
	DirtyCounts(ctx context.Context) (pending, failed int, err error)
}

// binding implements Binding with per-kind push/pull closures over the
// shared bookkeeping surface.
type binding struct {
	kind        models.EntityKind
	store       syncSurface
	maxAttempts int
	push        func(ctx context.Context, key string) error
	pull        func(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error)
}

func (b *binding) Kind() models.EntityKind { return b.kind }

func (b *binding) Pending(ctx context.Context) ([]models.PendingRecord, error) {
	return b.store.Pending(ctx)
}

func (b *binding) Dispatch(ctx context.Context, rec models.PendingRecord) error {
	return b.push(ctx, rec.Key)
}

func (b *binding) Acknowledge(ctx context.Context, rec models.PendingRecord) (bool, error) {
	return b.store.AcknowledgeSync(ctx, rec.Key, rec.UpdatedAt)
}

func (b *binding) Fail(ctx context.Context, rec models.PendingRecord, permanent bool) error {
	return b.store.RecordSyncFailure(ctx, rec.Key, permanent, b.maxAttempts)
}

func (b *binding) Counts(ctx context.Context) (int, int, error) {
	return b.store.DirtyCounts(ctx)
}

func (b *binding) Pull(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
	return b.pull(ctx, since, sinceKey, limit)
}

// pullLoop fetches a page of remote rows ordered by (updated_at, key) and
// applies them locally, advancing the cursor to the last applied row. An
// apply error stops the page; the returned cursor covers only what was
// applied, so the failed row is refetched next pass.
func pullLoop[T any](ctx context.Context, since time.Time, sinceKey string, limit int,
	fetch func(context.Context, time.Time, string, int) ([]T, error),
	apply func(context.Context, *T) error,
	updatedAt func(*T) time.Time,
	recordKey func(*T) string,
) (time.Time, string, int, error) {
	rows, err := fetch(ctx, since, sinceKey, limit)
	if err != nil {
		return since, sinceKey, 0, err
	}
	cursor, cursorKey := since, sinceKey
	for i := range rows {
		if err := apply(ctx, &rows[i]); err != nil {
			return cursor, cursorKey, i, err
		}
		cursor, cursorKey = updatedAt(&rows[i]), recordKey(&rows[i])
	}
	return cursor, cursorKey, len(rows), nil
}

// Adapter contracts, satisfied by the postgres package and by test fakes.

type ProfileAdapter interface {
	Upsert(ctx context.Context, p *models.Profile) error
	SoftDelete(ctx context.Context, p *models.Profile) error
	FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Profile, error)
}

type FollowAdapter interface {
	RestoreOrInsert(ctx context.Context, f *models.Follow) error
	SoftDelete(ctx context.Context, f *models.Follow) error
	FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Follow, error)
}

type SessionAdapter interface {
	Upsert(ctx context.Context, s *models.Session) error
	SoftDelete(ctx context.Context, s *models.Session) error
	FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Session, error)
}

type ClimbAdapter interface {
	Upsert(ctx context.Context, c *models.Climb) error
	SoftDelete(ctx context.Context, c *models.Climb) error
	FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Climb, error)
}

type AttemptAdapter interface {
	Upsert(ctx context.Context, a *models.Attempt) error
	SoftDelete(ctx context.Context, a *models.Attempt) error
	FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Attempt, error)
}

type PhotoAdapter interface {
	Upsert(ctx context.Context, p *models.Photo) error
	SoftDelete(ctx context.Context, p *models.Photo) error
	FetchSince(ctx context.Context, since time.Time, sinceKey string, limit int) ([]models.Photo, error)
}

// BlobStore uploads photo blobs ahead of the photo row push.
type BlobStore interface {
	Put(ctx context.Context, key, path, contentType string) error
}

// NewProfileBinding binds the profile repository to its remote adapter.
func NewProfileBinding(repo profiles.Repository, adapter ProfileAdapter, maxAttempts int) Binding {
	return &binding{
		kind:        models.KindProfile,
		store:       repo,
		maxAttempts: maxAttempts,
		push: func(ctx context.Context, key string) error {
			p, err := repo.GetByID(ctx, key)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if p.IsDeleted() {
				return adapter.SoftDelete(ctx, p)
			}
			return adapter.Upsert(ctx, p)
		},
		pull: func(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
			return pullLoop(ctx, since, sinceKey, limit, adapter.FetchSince, repo.ApplyRemote,
				func(p *models.Profile) time.Time { return p.UpdatedAt },
				func(p *models.Profile) string { return p.ID })
		},
	}
}

// NewFollowBinding binds the follow repository to its remote adapter.
// Follows restore-or-insert by tuple instead of upserting by id.
func NewFollowBinding(repo follows.Repository, adapter FollowAdapter, maxAttempts int) Binding {
	return &binding{
		kind:        models.KindFollow,
		store:       repo,
		maxAttempts: maxAttempts,
		push: func(ctx context.Context, key string) error {
			follower, followee, err := models.ParseFollowKey(key)
			if err != nil {
				return err
			}
			f, err := repo.Get(ctx, follower, followee)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if f.IsDeleted() {
				return adapter.SoftDelete(ctx, f)
			}
			return adapter.RestoreOrInsert(ctx, f)
		},
		pull: func(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
			return pullLoop(ctx, since, sinceKey, limit, adapter.FetchSince, repo.ApplyRemote,
				func(f *models.Follow) time.Time { return f.UpdatedAt },
				func(f *models.Follow) string { return models.FollowKey(f.FollowerID, f.FolloweeID) })
		},
	}
}

// NewSessionBinding binds the session repository to its remote adapter.
func NewSessionBinding(repo sessions.Repository, adapter SessionAdapter, maxAttempts int) Binding {
	return &binding{
		kind:        models.KindSession,
		store:       repo,
		maxAttempts: maxAttempts,
		push: func(ctx context.Context, key string) error {
			s, err := repo.GetByID(ctx, key)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if s.IsDeleted() {
				return adapter.SoftDelete(ctx, s)
			}
			return adapter.Upsert(ctx, s)
		},
		pull: func(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
			return pullLoop(ctx, since, sinceKey, limit, adapter.FetchSince, repo.ApplyRemote,
				func(s *models.Session) time.Time { return s.UpdatedAt },
				func(s *models.Session) string { return s.ID })
		},
	}
}

// NewClimbBinding binds the climb repository to its remote adapter.
func NewClimbBinding(repo climbs.Repository, adapter ClimbAdapter, maxAttempts int) Binding {
	return &binding{
		kind:        models.KindClimb,
		store:       repo,
		maxAttempts: maxAttempts,
		push: func(ctx context.Context, key string) error {
			c, err := repo.GetByID(ctx, key)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if c.IsDeleted() {
				return adapter.SoftDelete(ctx, c)
			}
			return adapter.Upsert(ctx, c)
		},
		pull: func(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
			return pullLoop(ctx, since, sinceKey, limit, adapter.FetchSince, repo.ApplyRemote,
				func(c *models.Climb) time.Time { return c.UpdatedAt },
				func(c *models.Climb) string { return c.ID })
		},
	}
}

// NewAttemptBinding binds the attempt repository to its remote adapter.
func NewAttemptBinding(repo attempts.Repository, adapter AttemptAdapter, maxAttempts int) Binding {
	return &binding{
		kind:        models.KindAttempt,
		store:       repo,
		maxAttempts: maxAttempts,
		push: func(ctx context.Context, key string) error {
			a, err := repo.GetByID(ctx, key)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if a.IsDeleted() {
				return adapter.SoftDelete(ctx, a)
			}
			return adapter.Upsert(ctx, a)
		},
		pull: func(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
			return pullLoop(ctx, since, sinceKey, limit, adapter.FetchSince, repo.ApplyRemote,
				func(a *models.Attempt) time.Time { return a.UpdatedAt },
				func(a *models.Attempt) string { return a.ID })
		},
	}
}

// NewPhotoBinding binds the photo repository to its remote adapter. The blob
// is uploaded before the row so a synced row never points at a missing
// object. A nil blob store skips the upload and only syncs the row.
func NewPhotoBinding(repo photos.Repository, adapter PhotoAdapter, blobs BlobStore, maxAttempts int) Binding {
	return &binding{
		kind:        models.KindPhoto,
		store:       repo,
		maxAttempts: maxAttempts,
		push: func(ctx context.Context, key string) error {
			p, err := repo.GetByID(ctx, key)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if p.IsDeleted() {
				return adapter.SoftDelete(ctx, p)
			}
			if blobs != nil && p.LocalPath != "" {
				if err := blobs.Put(ctx, p.ObjectKey, p.LocalPath, p.ContentType); err != nil {
					return err
				}
			}
			return adapter.Upsert(ctx, p)
		},
		pull: func(ctx context.Context, since time.Time, sinceKey string, limit int) (time.Time, string, int, error) {
			return pullLoop(ctx, since, sinceKey, limit, adapter.FetchSince, repo.ApplyRemote,
				func(p *models.Photo) time.Time { return p.UpdatedAt },
				func(p *models.Photo) string { return p.ID })
		},
	}
}
