package dbx

import (
	"database/sql"
	"time"
)

// Timestamps are persisted as integer unix nanoseconds so equality
// comparisons (e.g. the conditional sync acknowledge) are exact and free of
// driver-dependent formatting.

// Nanos converts a time to its stored representation.
func Nanos(t time.Time) int64 {
	return t.UnixNano()
}

// FromNanos converts a stored timestamp back to a UTC time.
func FromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// NullableNanos converts an optional time to a driver value (nil or int64).
func NullableNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}

// TimePtr converts a scanned nullable column back to an optional time.
func TimePtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := FromNanos(n.Int64)
	return &t
}
