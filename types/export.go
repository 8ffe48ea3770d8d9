package types

import "time"

// Export describes a snapshot of a user's notes written to object storage.
type Export struct {
	// ID is the random identifier of the export and the object name stem.
	ID string `json:"id"`

	// Key is the object key inside the configured bucket.
	Key string `json:"key"`

	NoteCount int       `json:"note_count"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportDocument is the JSON document stored for an export.
type ExportDocument struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	Notes     []Note    `json:"notes"`
}
