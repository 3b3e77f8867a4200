package models

import "time"

// Session is one visit to a crag or gym. Climbs logged while a session is
// open reference it.
type Session struct {
	ID        string
	ProfileID string
	Crag      string
	StartedAt time.Time
	EndedAt   *time.Time
	Notes     string
	Syncable
}

// IsOpen reports whether the session has not been ended yet.
func (s *Session) IsOpen() bool {
	return s.EndedAt == nil
}
