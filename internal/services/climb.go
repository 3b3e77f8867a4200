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
	"github.com/cruxlog/cruxlog/internal/store/attempts"
	"github.com/cruxlog/cruxlog/internal/store/climbs"
	"github.com/cruxlog/cruxlog/internal/store/meta"
	"github.com/cruxlog/cruxlog/internal/store/sessions"
)

// ClimbService manages climbs and their attempts within the open session.
type ClimbService struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

func NewClimbService(db *sql.DB, log logging.Logger) *ClimbService {
	return &ClimbService{db: db, log: log, now: time.Now}
}

// Add logs a climb against the currently open session.
func (s *ClimbService) Add(ctx context.Context, route, grade string, style models.ClimbStyle, sent bool) (*models.Climb, error) {
	var result *models.Climb

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.now()

		ownID, err := ownProfileID(ctx, meta.New(tx))
		if err != nil {
			return err
		}

		sess, err := sessions.New(tx).GetOpen(ctx, ownID)
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNoOpenSession
		}
		if err != nil {
			return err
		}

		climb := &models.Climb{
			ID:        uuid.NewString(),
			SessionID: sess.ID,
			Route:     route,
			Grade:     grade,
			Style:     style,
			Sent:      sent,
		}
		climb.InitTimestamps(now)
		climb.MarkDirty(now)

		if err := climbs.New(tx).Save(ctx, climb); err != nil {
			return err
		}
		result = climb
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "climb added", "id", result.ID, "route", result.Route)
	return result, nil
}

// SetSent updates a climb's sent flag. Edits to a deleted climb are
// rejected; the delete wins.
func (s *ClimbService) SetSent(ctx context.Context, climbID string, sent bool) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := climbs.New(tx)

		climb, err := repo.GetByID(ctx, climbID)
		if err != nil {
			return err
		}
		if climb.IsDeleted() {
			return common.ErrRecordDeleted
		}

		climb.Sent = sent
		climb.MarkDirty(s.now())
		return repo.Save(ctx, climb)
	})
}

// Delete soft-deletes a climb. The tombstone is queued for sync like any
// other change.
func (s *ClimbService) Delete(ctx context.Context, climbID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := climbs.New(tx)

		climb, err := repo.GetByID(ctx, climbID)
		if err != nil {
			return err
		}
		if climb.IsDeleted() {
			return common.ErrRecordDeleted
		}

		climb.MarkDeleted(s.now())
		return repo.Save(ctx, climb)
	})
}

// List returns the session's climbs in log order.
func (s *ClimbService) List(ctx context.Context, sessionID string) ([]models.Climb, error) {
	return climbs.New(s.db).ListBySession(ctx, sessionID)
}

// AddAttempt logs one go on a climb, numbered after the existing attempts.
func (s *ClimbService) AddAttempt(ctx context.Context, climbID string, result models.AttemptResult, note string) (*models.Attempt, error) {
	var out *models.Attempt

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		now := s.now()

		climb, err := climbs.New(tx).GetByID(ctx, climbID)
		if err != nil {
			return err
		}
		if climb.IsDeleted() {
			return common.ErrRecordDeleted
		}

		repo := attempts.New(tx)
		count, err := repo.CountByClimb(ctx, climbID)
		if err != nil {
			return err
		}

		attempt := &models.Attempt{
			ID:      uuid.NewString(),
			ClimbID: climbID,
			Number:  count + 1,
			Result:  result,
			Note:    note,
		}
		attempt.InitTimestamps(now)
		attempt.MarkDirty(now)

		if err := repo.Save(ctx, attempt); err != nil {
			return err
		}
		out = attempt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Attempts returns the climb's attempts ordered by number.
func (s *ClimbService) Attempts(ctx context.Context, climbID string) ([]models.Attempt, error) {
	return attempts.New(s.db).ListByClimb(ctx, climbID)
}
