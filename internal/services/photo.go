package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/cruxlog/cruxlog/internal/common"
	"github.com/cruxlog/cruxlog/internal/dbx"
	"github.com/cruxlog/cruxlog/internal/logging"
	"github.com/cruxlog/cruxlog/internal/models"
	"github.com/cruxlog/cruxlog/internal/remote/s3blob"
	"github.com/cruxlog/cruxlog/internal/store/climbs"
	"github.com/cruxlog/cruxlog/internal/store/photos"
)

// PhotoService attaches photos to climbs. Only the row is written here; the
// blob upload happens when the sync coordinator pushes the photo.
type PhotoService struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

func NewPhotoService(db *sql.DB, log logging.Logger) *PhotoService {
	return &PhotoService{db: db, log: log, now: time.Now}
}

// Add registers the image file at localPath as a photo of the climb.
func (s *PhotoService) Add(ctx context.Context, climbID, localPath, contentType string) (*models.Photo, error) {
	var result *models.Photo

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.now()

		climb, err := climbs.New(tx).GetByID(ctx, climbID)
		if err != nil {
			return err
		}
		if climb.IsDeleted() {
			return common.ErrRecordDeleted
		}

		photo := &models.Photo{
			ID:          uuid.NewString(),
			ClimbID:     climbID,
			LocalPath:   localPath,
			ContentType: contentType,
		}
		photo.ObjectKey = s3blob.ObjectKey(photo.ID)
		photo.InitTimestamps(now)
		photo.MarkDirty(now)

		if err := photos.New(tx).Save(ctx, photo); err != nil {
			return err
		}
		result = photo
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "photo added", "id", result.ID, "climb", result.ClimbID)
	return result, nil
}

// Delete soft-deletes a photo.
func (s *PhotoService) Delete(ctx context.Context, photoID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := photos.New(tx)

		photo, err := repo.GetByID(ctx, photoID)
		if err != nil {
			return err
		}
		if photo.IsDeleted() {
			return common.ErrRecordDeleted
		}

		photo.MarkDeleted(s.now())
		return repo.Save(ctx, photo)
	})
}

// List returns the climb's photos.
func (s *PhotoService) List(ctx context.Context, climbID string) ([]models.Photo, error) {
	return photos.New(s.db).ListByClimb(ctx, climbID)
}
