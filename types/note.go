package types

import "time"

// Note is a personal text note owned by a single user.
type Note struct {
	// ID is the unique identifier of the note.
	ID int `json:"id" db:"id"`

	// Title is the short heading of the note.
	Title string `json:"title" db:"title"`

	// Content is the note body.
	Content string `json:"content" db:"content"`

	// UserID references the owning user. Ownership is never exposed
	// over the API; a foreign note is reported as missing.
	UserID int `json:"-" db:"user_id"`

	CreatedAt time.Time `json:"-" db:"created_at"`
	UpdatedAt time.Time `json:"-" db:"updated_at"`
}

// NoteEvent is published to the events channel after a successful write.
type NoteEvent struct {
	Type       string    `json:"type"`
	NoteID     int       `json:"note_id"`
	UserID     int       `json:"user_id"`
	Title      string    `json:"title,omitempty"`
	Content    string    `json:"content,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ImportEvent is consumed from the import channel. Data is decoded
// according to Type.
type ImportEvent struct {
	Type     string     `json:"type"`
	Username string     `json:"username"`
	Data     ImportNote `json:"data"`
}

// ImportNote is the payload of a "create" import event.
type ImportNote struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
