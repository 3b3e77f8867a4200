// Package remote defines the contract between the sync coordinator and the
// remote table adapters, most importantly the typed error the coordinator
// uses to decide between retrying and parking a record.
package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Error is a remote call failure. Permanent failures (validation errors,
// integrity violations) will not succeed on retry with the same input;
// everything else is treated as transient and retried on a later drain.
type Error struct {
	Op        string
	Permanent bool
	Err       error
}

func (e *Error) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("%s: %s remote error: %v", e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable remote failure.
func Transient(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// Permanent wraps err as a non-retryable remote rejection.
func Permanent(op string, err error) error {
	return &Error{Op: op, Permanent: true, Err: err}
}

// IsPermanent reports whether err is a permanent remote rejection.
func IsPermanent(err error) bool {
	var re *Error
	return errors.As(err, &re) && re.Permanent
}

// Classify wraps a raw driver error as a typed remote error. Integrity and
// data errors (SQLSTATE classes 22/23) cannot be fixed by retrying the same
// payload; timeouts, cancellations and connection loss can.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Transient(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code[:2] {
		case "22", "23":
			return Permanent(op, err)
		}
	}
	return Transient(op, err)
}
