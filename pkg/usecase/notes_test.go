package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/domain/model/auth"
	"github.com/notelens/notelens/pkg/repository/memory"
	"github.com/notelens/notelens/pkg/service/embedding"
	"github.com/notelens/notelens/pkg/service/syncer"
	"github.com/notelens/notelens/pkg/usecase"
)

func newNotesUseCase(t *testing.T) (*usecase.NotesUseCase, *memory.Memory) {
	t.Helper()

	repo := memory.New()
	embedder, err := embedding.New(&mockLLMClient{})
	gt.NoError(t, err).Required()

	return usecase.NewNotesUseCase(repo, syncer.New(repo, embedder)), repo
}

func TestNotesCreate(t *testing.T) {
	dana := auth.NewIdentity("user-dana", "dana@example.com", "Dana")

	t.Run("creates note and indexes its body", func(t *testing.T) {
		uc, repo := newNotesUseCase(t)
		ctx := context.Background()

		note, err := uc.Create(ctx, dana, "Bread", "feed the starter\nbake on Sunday")
		gt.NoError(t, err).Required()

		gt.Value(t, note.UserID).Equal("user-dana")
		gt.Value(t, note.Title).Equal("Bread")

		exists, err := repo.Chunk().ExistsForNote(ctx, note.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).True()
	})

	t.Run("missing identity is rejected", func(t *testing.T) {
		uc, _ := newNotesUseCase(t)

		_, err := uc.Create(context.Background(), nil, "t", "b")
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, usecase.ErrUnauthorized)).True()
	})
}

func TestNotesGet(t *testing.T) {
	dana := auth.NewIdentity("user-dana", "dana@example.com", "Dana")
	eve := auth.NewIdentity("user-eve", "eve@example.com", "Eve")

	t.Run("owner can read the note", func(t *testing.T) {
		uc, _ := newNotesUseCase(t)
		ctx := context.Background()

		created, err := uc.Create(ctx, dana, "Private", "my plans")
		gt.NoError(t, err).Required()

		note, err := uc.Get(ctx, dana, created.ID)
		gt.NoError(t, err).Required()
		gt.Value(t, note.Body).Equal("my plans")
	})

	t.Run("another user is denied", func(t *testing.T) {
		uc, _ := newNotesUseCase(t)
		ctx := context.Background()

		created, err := uc.Create(ctx, dana, "Private", "my plans")
		gt.NoError(t, err).Required()

		_, err = uc.Get(ctx, eve, created.ID)
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, usecase.ErrNoteAccessDenied)).True()
	})
}

func TestNotesList(t *testing.T) {
	dana := auth.NewIdentity("user-dana", "dana@example.com", "Dana")
	eve := auth.NewIdentity("user-eve", "eve@example.com", "Eve")

	t.Run("lists only the caller's notes", func(t *testing.T) {
		uc, _ := newNotesUseCase(t)
		ctx := context.Background()

		_, err := uc.Create(ctx, dana, "d1", "dana one")
		gt.NoError(t, err).Required()
		_, err = uc.Create(ctx, eve, "e1", "eve one")
		gt.NoError(t, err).Required()

		notes, err := uc.List(ctx, dana)
		gt.NoError(t, err).Required()
		gt.Array(t, notes).Length(1)
		gt.Value(t, notes[0].Title).Equal("d1")
	})
}

func TestNotesUpdate(t *testing.T) {
	dana := auth.NewIdentity("user-dana", "dana@example.com", "Dana")
	eve := auth.NewIdentity("user-eve", "eve@example.com", "Eve")

	t.Run("replaces body and rebuilds chunks", func(t *testing.T) {
		uc, repo := newNotesUseCase(t)
		ctx := context.Background()

		created, err := uc.Create(ctx, dana, "Recipe", "line a\nline b\nline c")
		gt.NoError(t, err).Required()

		updated, err := uc.Update(ctx, dana, created.ID, "Recipe v2", "single line")
		gt.NoError(t, err).Required()
		gt.Value(t, updated.Title).Equal("Recipe v2")

		query := make([]float32, model.EmbeddingDimension)
		query[0] = 1
		chunks, err := repo.Chunk().FindByEmbedding(ctx, "user-dana", query, 10)
		gt.NoError(t, err).Required()
		gt.Array(t, chunks).Length(1)
		gt.Value(t, chunks[0].Content).Equal("single line")
	})

	t.Run("another user cannot update", func(t *testing.T) {
		uc, _ := newNotesUseCase(t)
		ctx := context.Background()

		created, err := uc.Create(ctx, dana, "Private", "my plans")
		gt.NoError(t, err).Required()

		_, err = uc.Update(ctx, eve, created.ID, "stolen", "gone")
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, usecase.ErrNoteAccessDenied)).True()
	})
}

func TestNotesDelete(t *testing.T) {
	dana := auth.NewIdentity("user-dana", "dana@example.com", "Dana")
	eve := auth.NewIdentity("user-eve", "eve@example.com", "Eve")

	t.Run("removes the note and its chunks", func(t *testing.T) {
		uc, repo := newNotesUseCase(t)
		ctx := context.Background()

		created, err := uc.Create(ctx, dana, "Temp", "short lived")
		gt.NoError(t, err).Required()

		gt.NoError(t, uc.Delete(ctx, dana, created.ID)).Required()

		_, err = repo.Note().Get(ctx, created.ID)
		gt.Value(t, err).NotNil()

		exists, err := repo.Chunk().ExistsForNote(ctx, created.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).False()
	})

	t.Run("another user cannot delete", func(t *testing.T) {
		uc, _ := newNotesUseCase(t)
		ctx := context.Background()

		created, err := uc.Create(ctx, dana, "Private", "my plans")
		gt.NoError(t, err).Required()

		err = uc.Delete(ctx, eve, created.ID)
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, usecase.ErrNoteAccessDenied)).True()
	})
}
