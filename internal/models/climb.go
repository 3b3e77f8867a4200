package models

// ClimbStyle classifies how a route was climbed.
type ClimbStyle string

const (
	StyleBoulder ClimbStyle = "boulder"
	StyleSport   ClimbStyle = "sport"
	StyleTrad    ClimbStyle = "trad"
	StyleTopRope ClimbStyle = "toprope"
)

// Climb is one route or problem worked during a session.
type Climb struct {
	ID        string
	SessionID string
	Route     string
	Grade     string
	Style     ClimbStyle
	Sent      bool
	Syncable
}
