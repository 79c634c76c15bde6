package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/interfaces"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/domain/model/auth"
	"github.com/notelens/notelens/pkg/service/syncer"
	"github.com/notelens/notelens/pkg/utils/logging"
)

// NotesUseCase provides note CRUD scoped to the verified caller and
// keeps the embedding index in step with every change.
type NotesUseCase struct {
	repo   interfaces.Repository
	syncer *syncer.Syncer
}

func NewNotesUseCase(repo interfaces.Repository, sync *syncer.Syncer) *NotesUseCase {
	return &NotesUseCase{
		repo:   repo,
		syncer: sync,
	}
}

// Create stores a new note and indexes its body. An embedding failure
// does not fail the creation: the note is kept, logged as unindexed,
// and picked up by the resync worker later.
func (uc *NotesUseCase) Create(ctx context.Context, id *auth.Identity, title, body string) (*model.Note, error) {
	if id == nil {
		return nil, goerr.Wrap(ErrUnauthorized, "note creation without identity")
	}

	note, err := uc.repo.Note().Create(ctx, &model.Note{
		UserID: id.UserID,
		Title:  title,
		Body:   body,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create note")
	}

	if err := uc.syncer.SyncNote(ctx, note); err != nil {
		logging.From(ctx).Error("failed to index new note, deferring to resync",
			"noteID", note.ID, "error", err.Error())
	}

	return note, nil
}

// List returns the caller's notes, newest first
func (uc *NotesUseCase) List(ctx context.Context, id *auth.Identity) ([]*model.Note, error) {
	if id == nil {
		return nil, goerr.Wrap(ErrUnauthorized, "note listing without identity")
	}

	notes, err := uc.repo.Note().ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list notes", goerr.V("userID", id.UserID))
	}

	return notes, nil
}

// Get returns one of the caller's notes
func (uc *NotesUseCase) Get(ctx context.Context, id *auth.Identity, noteID model.NoteID) (*model.Note, error) {
	if id == nil {
		return nil, goerr.Wrap(ErrUnauthorized, "note access without identity")
	}

	note, err := uc.repo.Note().Get(ctx, noteID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get note", goerr.V("noteID", noteID))
	}

	if note.UserID != id.UserID {
		return nil, goerr.Wrap(ErrNoteAccessDenied, "note belongs to another user",
			goerr.V("noteID", noteID))
	}

	return note, nil
}

// Update replaces the note's title and body and rebuilds its index
// entries from scratch
func (uc *NotesUseCase) Update(ctx context.Context, id *auth.Identity, noteID model.NoteID, title, body string) (*model.Note, error) {
	if _, err := uc.Get(ctx, id, noteID); err != nil {
		return nil, err
	}

	note, err := uc.repo.Note().Update(ctx, &model.Note{
		ID:    noteID,
		Title: title,
		Body:  body,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to update note", goerr.V("noteID", noteID))
	}

	if err := uc.syncer.SyncNote(ctx, note); err != nil {
		logging.From(ctx).Error("failed to reindex updated note, deferring to resync",
			"noteID", note.ID, "error", err.Error())
	}

	return note, nil
}

// Delete removes the note and all of its index entries
func (uc *NotesUseCase) Delete(ctx context.Context, id *auth.Identity, noteID model.NoteID) error {
	if _, err := uc.Get(ctx, id, noteID); err != nil {
		return err
	}

	if err := uc.syncer.RemoveNote(ctx, noteID); err != nil {
		return goerr.Wrap(err, "failed to remove note from index", goerr.V("noteID", noteID))
	}

	if err := uc.repo.Note().Delete(ctx, noteID); err != nil {
		return goerr.Wrap(err, "failed to delete note", goerr.V("noteID", noteID))
	}

	return nil
}
