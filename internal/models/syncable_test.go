package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkDirty_ResetsFailureBookkeeping(t *testing.T) {
	now := time.Now()
	s := Syncable{SyncAttempts: 3, SyncStatus: SyncStatusFailed}

	s.MarkDirty(now)

	assert.True(t, s.NeedsSync)
	assert.Equal(t, 0, s.SyncAttempts)
	assert.Equal(t, SyncStatusPending, s.SyncStatus)
	assert.Equal(t, now, s.UpdatedAt)
}

func TestMarkDeletedAndRestore(t *testing.T) {
	now := time.Now()
	var s Syncable
	s.InitTimestamps(now)

	s.MarkDeleted(now.Add(time.Second))
	require.True(t, s.IsDeleted())
	assert.True(t, s.NeedsSync)

	s.Restore(now.Add(2 * time.Second))
	assert.False(t, s.IsDeleted())
	assert.True(t, s.NeedsSync)
	assert.Equal(t, now, s.CreatedAt)
}

func TestFollowKeyRoundTrip(t *testing.T) {
	key := FollowKey("alice", "bob")
	assert.Equal(t, "alice/bob", key)

	follower, followee, err := ParseFollowKey(key)
	require.NoError(t, err)
	assert.Equal(t, "alice", follower)
	assert.Equal(t, "bob", followee)

	_, _, err = ParseFollowKey("nobody")
	assert.Error(t, err)
	_, _, err = ParseFollowKey("/x")
	assert.Error(t, err)
}
