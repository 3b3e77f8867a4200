// Package postgres implements the remote table adapters over the shared
// Postgres store, one adapter per entity kind. All operations are
// idempotent under retry with identical inputs: pushes are upserts guarded
// by last-write-wins on updated_at, and a push that loses the comparison is
// reported as success (the pull path reconciles the local copy later).
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/cruxlog/cruxlog/internal/remote/postgres/migrations"
)

// Adapters bundles the per-kind remote table adapters over one connection.
type Adapters struct {
	db       *sql.DB
	Profiles *ProfileAdapter
	Follows  *FollowAdapter
	Sessions *SessionAdapter
	Climbs   *ClimbAdapter
	Attempts *AttemptAdapter
	Photos   *PhotoAdapter
}

// RunMigrations applies the embedded remote schema migrations.
func (a *Adapters) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, a.db, ".")
}

// Connect opens the remote store, migrates it and wires the adapter set.
func Connect(ctx context.Context, dsn string) (*Adapters, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	a := &Adapters{
		db:       db,
		Profiles: &ProfileAdapter{db: db},
		Follows:  &FollowAdapter{db: db},
		Sessions: &SessionAdapter{db: db},
		Climbs:   &ClimbAdapter{db: db},
		Attempts: &AttemptAdapter{db: db},
		Photos:   &PhotoAdapter{db: db},
	}

	if err := a.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return a, nil
}

// Close releases the remote connection.
func (a *Adapters) Close() error {
	return a.db.Close()
}
