package model

import (
	"time"

	"github.com/google/uuid"
)

// NoteID is a UUID-based identifier for a Note
type NoteID string

// NewNoteID generates a new UUID v4 NoteID
func NewNoteID() NoteID {
	return NoteID(uuid.New().String())
}

func (id NoteID) String() string {
	return string(id)
}

// Note is a user-owned document. The body is the unit of embedding:
// whenever it changes, the note's chunks are rebuilt from scratch.
type Note struct {
	ID        NoteID
	UserID    string // Owner of the note, from the verified identity
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
