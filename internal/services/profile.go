package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/logging"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/store/meta"
	"github.com/cruxlog/cruxlog/internal/store/profiles"
)

// ProfileService manages the device's own profile.
type ProfileService struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

func NewProfileService(db *sql.DB, log logging.Logger) *ProfileService {
	return &ProfileService{db: db, log: log, now: time.Now}
}

// Set creates the device's profile on first call and updates it afterwards.
// The handle check here only guards against collisions visible locally; the
// remote store's unique index is the authority and rejects a taken handle at
// sync time.
func (s *ProfileService) Set(ctx context.Context, handle, displayName, bio, homeCrag string) (*models.Profile, error) {
	var result *models.Profile

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := profiles.New(tx)
		metaRepo := meta.New(tx)
		now := s.now()

		ownID, err := ownProfileID(ctx, metaRepo)
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}

		if existing, err := repo.GetByHandle(ctx, handle); err == nil && existing.ID != ownID {
			return common.ErrHandleTaken
		} else if err != nil && !errors.Is(err, common.ErrNotFound) {
			return err
		}

		var p *models.Profile
		if ownID == "" {
			p = &models.Profile{ID: uuid.NewString()}
			p.InitTimestamps(now)
			if err := metaRepo.Set(ctx, meta.KeyProfileID, p.ID); err != nil {
				return err
			}
		} else {
			p, err = repo.GetByID(ctx, ownID)
			if err != nil {
				return err
			}
		}

		p.Handle = handle
		p.DisplayName = displayName
		p.Bio = bio
		p.HomeCrag = homeCrag
		p.MarkDirty(now)

		if err := repo.Save(ctx, p); err != nil {
			return err
		}
		result = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "profile saved", "id", result.ID, "handle", result.Handle)
	return result, nil
}

// Get returns the device's own profile.
func (s *ProfileService) Get(ctx context.Context) (*models.Profile, error) {
	id, err := ownProfileID(ctx, meta.New(s.db))
	if err != nil {
		return nil, err
	}
	return profiles.New(s.db).GetByID(ctx, id)
}
