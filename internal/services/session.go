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
	"github.com/cruxlog/cruxlog/internal/store/sessions"
)

// SessionService manages climbing sessions. At most one session is open at
// a time.
type SessionService struct {
	db  *sql.DB
	log logging.Logger
	now func() time.Time
}

func NewSessionService(db *sql.DB, log logging.Logger) *SessionService {
	return &SessionService{db: db, log: log, now: time.Now}
}

// Start opens a new session at the given crag. Fails with ErrSessionOpen
// while another session is still open.
func (s *SessionService) Start(ctx context.Context, crag, notes string) (*models.Session, error) {
	var result *models.Session

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := sessions.New(tx)
		now := s.now()

		ownID, err := ownProfileID(ctx, meta.New(tx))
		if err != nil {
			return err
		}

		if _, err := repo.GetOpen(ctx, ownID); err == nil {
			return common.ErrSessionOpen
		} else if !errors.Is(err, common.ErrNotFound) {
			return err
		}

		sess := &models.Session{
			ID:        uuid.NewString(),
			ProfileID: ownID,
			Crag:      crag,
			StartedAt: now,
			Notes:     notes,
		}
		sess.InitTimestamps(now)
		sess.MarkDirty(now)

		if err := repo.Save(ctx, sess); err != nil {
			return err
		}
		result = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "session started", "id", result.ID, "crag", result.Crag)
	return result, nil
}

// End closes the open session. Fails with ErrNoOpenSession when none is
// open.
func (s *SessionService) End(ctx context.Context) (*models.Session, error) {
	var result *models.Session

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := sessions.New(tx)
		now := s.now()

		ownID, err := ownProfileID(ctx, meta.New(tx))
		if err != nil {
			return err
		}

		sess, err := repo.GetOpen(ctx, ownID)
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNoOpenSession
		}
		if err != nil {
			return err
		}

		ended := now
		sess.EndedAt = &ended
		sess.MarkDirty(now)

		if err := repo.Save(ctx, sess); err != nil {
			return err
		}
		result = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "session ended", "id", result.ID)
	return result, nil
}

// List returns the device owner's sessions, newest first.
func (s *SessionService) List(ctx context.Context) ([]models.Session, error) {
	ownID, err := ownProfileID(ctx, meta.New(s.db))
	if err != nil {
		return nil, err
	}
	return sessions.New(s.db).List(ctx, ownID)
}
