package models

import (
	"fmt"
	"strings"
	"time"
)

// EntityKind classifies a syncable aggregate.
type EntityKind string

const (
	KindProfile EntityKind = "profile"
	KindSession EntityKind = "session"
	KindClimb   EntityKind = "climb"
	KindAttempt EntityKind = "attempt"
	KindPhoto   EntityKind = "photo"
	KindFollow  EntityKind = "follow"
)

// PushOrder is the fixed priority ordering over entity kinds used by the
// sync coordinator. Kinds in an earlier tier must be fully dispatched and
// acknowledged before a later tier starts, mirroring referential direction:
// a climb may reference a session that has not reached the remote store yet,
// but never the other way around. Kinds within one tier carry no references
// to each other.
var PushOrder = [][]EntityKind{
	{KindProfile},
	{KindSession},
	{KindClimb},
	{KindAttempt, KindPhoto},
	{KindFollow},
}

// PendingRecord identifies one dirty record at drain time: which entity it
// is, the snapshot of updated-at the dispatch is based on, and whether the
// pending change is a soft delete. Intermediate mutations are naturally
// coalesced because dispatch reads current row state, not a diff history.
type PendingRecord struct {
	Kind      EntityKind
	Key       string
	UpdatedAt time.Time
	Deleted   bool
	Attempts  int
}

// FollowKey encodes the (follower, followee) tuple identity of a follow
// relationship as a single pending key.
func FollowKey(followerID, followeeID string) string {
	return followerID + "/" + followeeID
}

// ParseFollowKey splits a pending key back into the follow tuple.
func ParseFollowKey(key string) (followerID, followeeID string, err error) {
	parts := strings.SplitN(key, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("malformed follow key %q", key)
	}
	return parts[0], parts[1], nil
}
