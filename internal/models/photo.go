package models

// Photo references an image of a climb. The blob lives on disk at LocalPath
// until the sync coordinator uploads it to object storage under ObjectKey;
// the row itself syncs like any other record.
type Photo struct {
	ID          string
	ClimbID     string
	LocalPath   string
	ObjectKey   string
	ContentType string
	Syncable
}
