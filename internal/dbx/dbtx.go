// Package dbx holds the small database plumbing shared by the local SQLite
// repositories and the remote Postgres adapters.
package dbx

import (
	"context"
	"database/sql"
)

// DBTX is the query surface a repository needs. *sql.DB and *sql.Tx both
// satisfy it, so the same repository code runs standalone or inside a
// service transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside a transaction: commit on success, rollback on error
// or panic (the panic is rethrown). Services use it to couple a business
// write with its sync bookkeeping, e.g.:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    climb.MarkDeleted(now)
//	    return climbs.New(tx).Save(ctx, climb)
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(ctx, tx)
	return err
}
