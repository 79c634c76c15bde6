package model

import (
	"time"

	"github.com/google/uuid"
)

// EmbeddingDimension is the dimension of the embedding vector
// Gemini text-embedding-004 uses 768 dimensions
const EmbeddingDimension = 768

// ChunkID is a UUID-based identifier for an EmbeddingChunk
type ChunkID string

// NewChunkID generates a new UUID v4 ChunkID
func NewChunkID() ChunkID {
	return ChunkID(uuid.New().String())
}

func (id ChunkID) String() string {
	return string(id)
}

// EmbeddingChunk is one embedded fragment of a note body. Chunks are
// immutable: an edit to the note deletes its chunks and inserts new
// ones, it never updates a stored chunk in place.
type EmbeddingChunk struct {
	ID        ChunkID
	NoteID    NoteID
	UserID    string // Denormalized owner, filter key for retrieval
	Content   string
	Embedding []float32
	CreatedAt time.Time
}
