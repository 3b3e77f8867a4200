package models

// Follow is a directed relationship between two profiles. It is identified
// by the (FollowerID, FolloweeID) tuple, not a synthetic id: unfollowing
// soft-deletes the row and a later re-follow restores it in place, so the
// remote identity stays stable across follow/unfollow cycles.
type Follow struct {
	FollowerID string
	FolloweeID string
	Syncable
}

// Key returns the pending key encoding of the follow tuple.
func (f *Follow) Key() string {
	return FollowKey(f.FollowerID, f.FolloweeID)
}
