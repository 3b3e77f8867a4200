package models

// Profile is a climber's public identity. Exactly one profile is owned by
// the local device; other profiles appear locally only through pulls.
type Profile struct {
	ID          string
	Handle      string
	DisplayName string
	Bio         string
	HomeCrag    string
	Syncable
}
