package syncer

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/interfaces"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/service/chunker"
	"github.com/notelens/notelens/pkg/service/embedding"
	"github.com/notelens/notelens/pkg/utils/logging"
)

// Syncer keeps the embedding index consistent with note bodies. A
// note's chunks are always rebuilt as a whole: delete everything, then
// embed and insert the new set in one batch.
type Syncer struct {
	repo     interfaces.Repository
	embedder *embedding.Embedder

	mu    sync.Mutex
	locks map[model.NoteID]*noteLock
}

type noteLock struct {
	mu   sync.Mutex
	refs int
}

func New(repo interfaces.Repository, embedder *embedding.Embedder) *Syncer {
	return &Syncer{
		repo:     repo,
		embedder: embedder,
		locks:    make(map[model.NoteID]*noteLock),
	}
}

// lockNote serializes syncs of the same note. Different notes proceed
// concurrently.
func (s *Syncer) lockNote(id model.NoteID) func() {
	s.mu.Lock()
	l, exists := s.locks[id]
	if !exists {
		l = &noteLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

// SyncNote rebuilds the embedding index entries for the note from its
// current body. If the embedding call fails the index holds zero
// entries for the note, never a partial set, and the note is simply
// unretrievable until the next sync attempt.
func (s *Syncer) SyncNote(ctx context.Context, note *model.Note) error {
	unlock := s.lockNote(note.ID)
	defer unlock()

	if err := s.repo.Chunk().DeleteByNote(ctx, note.ID); err != nil {
		return goerr.Wrap(err, "failed to delete existing chunks", goerr.V("noteID", note.ID))
	}

	contents := chunker.Split(note.Body)
	if len(contents) == 0 {
		logging.From(ctx).Debug("note has no embeddable content", "noteID", note.ID)
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, contents)
	if err != nil {
		return goerr.Wrap(err, "failed to embed note chunks",
			goerr.V("noteID", note.ID), goerr.V("chunks", len(contents)))
	}

	chunks := make([]*model.EmbeddingChunk, len(contents))
	for i, content := range contents {
		chunks[i] = &model.EmbeddingChunk{
			NoteID:    note.ID,
			UserID:    note.UserID,
			Content:   content,
			Embedding: vectors[i],
		}
	}

	if err := s.repo.Chunk().Insert(ctx, chunks); err != nil {
		return goerr.Wrap(err, "failed to insert chunks", goerr.V("noteID", note.ID))
	}

	logging.From(ctx).Info("synced note to embedding index",
		"noteID", note.ID, "chunks", len(chunks))

	return nil
}

// RemoveNote drops all index entries of the note
func (s *Syncer) RemoveNote(ctx context.Context, noteID model.NoteID) error {
	unlock := s.lockNote(noteID)
	defer unlock()

	if err := s.repo.Chunk().DeleteByNote(ctx, noteID); err != nil {
		return goerr.Wrap(err, "failed to delete chunks", goerr.V("noteID", noteID))
	}

	return nil
}
