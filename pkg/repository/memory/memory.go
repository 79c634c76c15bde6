package memory

import (
	"github.com/notelens/notelens/pkg/domain/interfaces"
)

// Repository is an alias for Memory to match the pattern
type Repository = Memory

// Memory is an in-process repository for local development and tests
type Memory struct {
	notes  *noteRepository
	chunks *chunkRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		notes:  newNoteRepository(),
		chunks: newChunkRepository(),
	}
}

func (m *Memory) Note() interfaces.NoteRepository {
	return m.notes
}

func (m *Memory) Chunk() interfaces.ChunkRepository {
	return m.chunks
}

func (m *Memory) Close() error {
	return nil
}
