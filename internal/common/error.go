// Package common defines shared constants and sentinel errors used across
// the store, service and sync layers of Cruxlog. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrInternal = errors.New("internal error")

	// Validation / domain-specific errors.
	ErrHandleTaken   = errors.New("handle already taken")
	ErrRecordDeleted = errors.New("record is deleted")
	ErrSessionOpen   = errors.New("a session is already open")
	ErrNoOpenSession = errors.New("no open session")

	// Sync lifecycle errors.
	ErrSyncFailed = errors.New("sync permanently failed")
)
