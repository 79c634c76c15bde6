package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/notelens/notelens/pkg/domain/model"
)

// chunkRepository keeps chunks in a slice so that similarity ties are
// broken by insertion order, matching the persistent backend's stable
// ordering.
type chunkRepository struct {
	mu     sync.RWMutex
	chunks []*model.EmbeddingChunk
}

func newChunkRepository() *chunkRepository {
	return &chunkRepository{}
}

func copyChunk(c *model.EmbeddingChunk) *model.EmbeddingChunk {
	copied := &model.EmbeddingChunk{
		ID:        c.ID,
		NoteID:    c.NoteID,
		UserID:    c.UserID,
		Content:   c.Content,
		CreatedAt: c.CreatedAt,
	}
	if c.Embedding != nil {
		copied.Embedding = make([]float32, len(c.Embedding))
		copy(copied.Embedding, c.Embedding)
	}
	return copied
}

func (r *chunkRepository) Insert(ctx context.Context, chunks []*model.EmbeddingChunk) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, c := range chunks {
		created := copyChunk(c)
		if created.ID == "" {
			created.ID = model.NewChunkID()
		}
		if created.CreatedAt.IsZero() {
			created.CreatedAt = now
		}
		r.chunks = append(r.chunks, created)
	}

	return nil
}

func (r *chunkRepository) DeleteByNote(ctx context.Context, noteID model.NoteID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	remaining := r.chunks[:0]
	for _, c := range r.chunks {
		if c.NoteID != noteID {
			remaining = append(remaining, c)
		}
	}
	r.chunks = remaining

	return nil
}

func (r *chunkRepository) ExistsForNote(ctx context.Context, noteID model.NoteID) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.chunks {
		if c.NoteID == noteID {
			return true, nil
		}
	}

	return false, nil
}

func (r *chunkRepository) FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.EmbeddingChunk, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		chunk *model.EmbeddingChunk
		score float64
	}

	// Filter by owner before ranking so one user's notes never appear
	// in another user's results
	var candidates []scored
	for _, c := range r.chunks {
		if c.UserID != userID || len(c.Embedding) == 0 {
			continue
		}
		s := cosineSimilarity(embedding, c.Embedding)
		candidates = append(candidates, scored{chunk: copyChunk(c), score: s})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.EmbeddingChunk, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].chunk
	}

	return result, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}

	return dot / denom
}
