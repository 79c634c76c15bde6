package interfaces

import (
	"context"

	"github.com/notelens/notelens/pkg/domain/model"
)

// ChunkRepository defines the interface for the embedding index. The
// index is append/delete only: a stored chunk is never mutated.
type ChunkRepository interface {
	// Insert appends the given chunks to the index
	Insert(ctx context.Context, chunks []*model.EmbeddingChunk) error

	// DeleteByNote removes all chunks of the given note. Deleting a
	// note that has no chunks is a no-op, not an error.
	DeleteByNote(ctx context.Context, noteID model.NoteID) error

	// ExistsForNote reports whether the note has any stored chunks
	ExistsForNote(ctx context.Context, noteID model.NoteID) (bool, error)

	// FindByEmbedding returns up to limit chunks owned by userID,
	// ranked by cosine similarity to the given embedding, descending.
	// The user filter is applied before ranking. Ties are broken by
	// insertion order. An unknown user yields an empty result.
	FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.EmbeddingChunk, error)
}
