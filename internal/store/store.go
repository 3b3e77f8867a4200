// Package store opens the local SQLite database, applies its embedded goose
// migrations and bundles the per-entity repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/cruxlog/cruxlog/internal/store/attempts"
	"github.com/cruxlog/cruxlog/internal/store/climbs"
	"github.com/cruxlog/cruxlog/internal/store/follows"
	"github.com/cruxlog/cruxlog/internal/store/meta"
	"github.com/cruxlog/cruxlog/internal/store/migrations"
	"github.com/cruxlog/cruxlog/internal/store/photos"
	"github.com/cruxlog/cruxlog/internal/store/profiles"
	"github.com/cruxlog/cruxlog/internal/store/sessions"
)

// Store owns the local database handle and the repositories bound to it.
type Store struct {
	DB       *sql.DB
	Profiles profiles.Repository
	Follows  follows.Repository
	Sessions sessions.Repository
	Climbs   climbs.Repository
	Attempts attempts.Repository
	Photos   photos.Repository
	Meta     meta.Repository
}

// RunMigrations applies the embedded migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// Open opens (or creates) the SQLite database at dsn, migrates it and wires
// the repository set. The caller is the importer of the modernc.org/sqlite
// driver.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	// A single connection avoids SQLITE_BUSY between the coordinator's
	// acknowledge writes and concurrent business mutations.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("db pragma error: %w", err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return New(db), nil
}

// New wires a repository set over an already-open database.
func New(db *sql.DB) *Store {
	return &Store{
		DB:       db,
		Profiles: profiles.New(db),
		Follows:  follows.New(db),
		Sessions: sessions.New(db),
		Climbs:   climbs.New(db),
		Attempts: attempts.New(db),
		Photos:   photos.New(db),
		Meta:     meta.New(db),
	}
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.DB.Close()
}
