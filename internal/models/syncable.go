// Package models defines the locally-owned climb-log aggregates and the
// sync bookkeeping fields they carry.
package models

import "time"

// SyncStatus is the sub-state of a record that needs synchronization.
type SyncStatus string

const (
	// SyncStatusNone marks a record whose local state matches the last
	// confirmed remote state.
	SyncStatusNone SyncStatus = ""
	// SyncStatusPending marks a record awaiting a remote push.
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusFailed marks a record parked after a permanent remote
	// rejection or too many failed attempts. Failed records are excluded
	// from drains until the next local edit resets them to pending.
	SyncStatusFailed SyncStatus = "failed"
)

// Syncable provides the common fields for entities that participate in
// synchronization. It gets embedded in every aggregate that is pushed to
// the remote store.
type Syncable struct {
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    *time.Time
	NeedsSync    bool
	SyncAttempts int
	SyncStatus   SyncStatus
}

// Touch refreshes UpdatedAt. Call on every local mutation.
func (s *Syncable) Touch(now time.Time) {
	s.UpdatedAt = now
}

// MarkDirty records a local mutation: the record needs a remote push and any
// previous failure bookkeeping is reset. Must happen in the same transaction
// as the business write.
func (s *Syncable) MarkDirty(now time.Time) {
	s.Touch(now)
	s.NeedsSync = true
	s.SyncAttempts = 0
	s.SyncStatus = SyncStatusPending
}

// MarkDeleted soft-deletes the record. The tombstone still has to reach the
// remote store, so the record is also marked dirty.
func (s *Syncable) MarkDeleted(now time.Time) {
	s.DeletedAt = &now
	s.MarkDirty(now)
}

// Restore clears a soft delete in place, preserving the record's identity.
func (s *Syncable) Restore(now time.Time) {
	s.DeletedAt = nil
	s.MarkDirty(now)
}

// IsDeleted reports whether the record is soft-deleted.
func (s *Syncable) IsDeleted() bool {
	return s.DeletedAt != nil
}

// InitTimestamps sets CreatedAt and UpdatedAt for a freshly created record.
func (s *Syncable) InitTimestamps(now time.Time) {
	s.CreatedAt = now
	s.UpdatedAt = now
}
