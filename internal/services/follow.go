package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/logging"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/store/follows"
	"github.com/cruxlog/cruxlog/internal/store/meta"
)

// FollowService manages the device owner's follow relationships.
type FollowService struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

func NewFollowService(db *sql.DB, log logging.Logger) *FollowService {
	return &FollowService{db: db, log: log, now: time.Now}
}

// Follow records that the device owner follows followeeID. A tuple that was
// unfollowed earlier is restored in place so its remote identity survives
// the cycle. Following someone already followed is a no-op.
func (s *FollowService) Follow(ctx context.Context, followeeID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := follows.New(tx)
		now := s.now()

		ownID, err := ownProfileID(ctx, meta.New(tx))
		if err != nil {
			return err
		}
		if followeeID == ownID {
			return fmt.Errorf("cannot follow own profile")
		}

		f, err := repo.Get(ctx, ownID, followeeID)
		switch {
		case errors.Is(err, common.ErrNotFound):
			f = &models.Follow{FollowerID: ownID, FolloweeID: followeeID}
			f.InitTimestamps(now)
			f.MarkDirty(now)
		case err != nil:
			return err
		case f.IsDeleted():
			f.Restore(now)
		default:
			return nil
		}

		return repo.Save(ctx, f)
	})
}

// Unfollow soft-deletes the follow tuple. The tombstone still has to reach
// the remote store, so it is queued like any other change.
func (s *FollowService) Unfollow(ctx context.Context, followeeID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := follows.New(tx)

		ownID, err := ownProfileID(ctx, meta.New(tx))
		if err != nil {
			return err
		}

		f, err := repo.Get(ctx, ownID, followeeID)
		if err != nil {
			return err
		}
		if f.IsDeleted() {
			return common.ErrNotFound
		}

		f.MarkDeleted(s.now())
		return repo.Save(ctx, f)
	})
}

// List returns the device owner's active follows.
func (s *FollowService) List(ctx context.Context) ([]models.Follow, error) {
	ownID, err := ownProfileID(ctx, meta.New(s.db))
	if err != nil {
		return nil, err
	}
	return follows.New(s.db).ListActive(ctx, ownID)
}
