package meta

import "context"

// Repository is a small key/value store for sync metadata: the device's own
// profile id and the per-kind pull cursors.
type Repository interface {
	// Get returns the value for key, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// Set stores the value for key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
}

// Well-known keys.
const (
	KeyProfileID      = "profile_id"
	KeyPullCursorBase = "pull_cursor_" // + entity kind
)
