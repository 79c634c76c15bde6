package interfaces

import (
	"context"

	"github.com/notelens/notelens/pkg/domain/model"
)

// NoteRepository defines the interface for Note data persistence
type NoteRepository interface {
	// Create creates a new note
	Create(ctx context.Context, note *model.Note) (*model.Note, error)

	// Get retrieves a note by ID
	Get(ctx context.Context, id model.NoteID) (*model.Note, error)

	// ListByUser retrieves all notes owned by the user, newest first
	ListByUser(ctx context.Context, userID string) ([]*model.Note, error)

	// List retrieves all notes across users, used by background
	// maintenance such as the re-embed worker
	List(ctx context.Context) ([]*model.Note, error)

	// Update replaces the title and body of an existing note
	Update(ctx context.Context, note *model.Note) (*model.Note, error)

	// Delete deletes a note by ID
	Delete(ctx context.Context, id model.NoteID) error
}
