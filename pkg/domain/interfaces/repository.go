package interfaces

// Repository defines the interface for data persistence
type Repository interface {
	Note() NoteRepository
	Chunk() ChunkRepository

	Close() error
}
