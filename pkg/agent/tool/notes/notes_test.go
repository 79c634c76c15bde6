package notes_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/notelens/notelens/pkg/agent/tool/notes"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/repository/memory"
	"github.com/notelens/notelens/pkg/service/embedding"
)

// mockLLMClient embeds every input as a unit vector along axis 0, so
// stored chunks along axis 0 are perfect matches.
type mockLLMClient struct{}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, errors.New("not implemented")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	vectors := make([][]float64, len(input))
	for i := range vectors {
		v := make([]float64, dimension)
		v[0] = 1
		vectors[i] = v
	}
	return vectors, nil
}

func axisVector(axis int, weight float32) []float32 {
	v := make([]float32, model.EmbeddingDimension)
	v[axis] = weight
	return v
}

func seedChunk(t *testing.T, repo *memory.Memory, userID, content string, embedding []float32) {
	t.Helper()
	err := repo.Chunk().Insert(context.Background(), []*model.EmbeddingChunk{{
		NoteID:    model.NewNoteID(),
		UserID:    userID,
		Content:   content,
		Embedding: embedding,
	}})
	gt.NoError(t, err).Required()
}

func newSearchTool(t *testing.T, repo *memory.Memory, userID string) gollem.Tool {
	t.Helper()

	embedder, err := embedding.New(&mockLLMClient{})
	gt.NoError(t, err).Required()

	tools := notes.New(repo, embedder, userID)
	gt.Array(t, tools).Length(1)
	gt.Value(t, tools[0].Spec().Name).Equal(notes.SearchToolName)
	return tools[0]
}

func TestSearchNotesTool(t *testing.T) {
	t.Run("returns most similar chunks first", func(t *testing.T) {
		repo := memory.New()
		seedChunk(t, repo, "user-1", "weak match", axisVector(1, 1))
		seedChunk(t, repo, "user-1", "strong match", axisVector(0, 1))

		searchTool := newSearchTool(t, repo, "user-1")

		result, err := searchTool.Run(context.Background(), map[string]any{"query": "anything"})
		gt.NoError(t, err).Required()

		gt.Value(t, result["found"]).Equal(true)
		contents, ok := result["notes"].([]string)
		gt.Bool(t, ok).True()
		gt.Value(t, contents[0]).Equal("strong match")
	})

	t.Run("never returns another user's chunks", func(t *testing.T) {
		repo := memory.New()
		seedChunk(t, repo, "bob", "bob's secret", axisVector(0, 1))
		seedChunk(t, repo, "alice", "alice's note", axisVector(0, 0.5))

		searchTool := newSearchTool(t, repo, "alice")

		result, err := searchTool.Run(context.Background(), map[string]any{"query": "secret"})
		gt.NoError(t, err).Required()

		contents, ok := result["notes"].([]string)
		gt.Bool(t, ok).True()
		gt.Array(t, contents).Length(1)
		gt.Value(t, contents[0]).Equal("alice's note")
	})

	t.Run("zero matches reports found false", func(t *testing.T) {
		repo := memory.New()

		searchTool := newSearchTool(t, repo, "user-1")

		result, err := searchTool.Run(context.Background(), map[string]any{"query": "anything"})
		gt.NoError(t, err).Required()

		gt.Value(t, result["found"]).Equal(false)
		contents, ok := result["notes"].([]string)
		gt.Bool(t, ok).True()
		gt.Array(t, contents).Length(0)
	})

	t.Run("caps results at default limit", func(t *testing.T) {
		repo := memory.New()
		for i := 0; i < 8; i++ {
			seedChunk(t, repo, "user-1", "chunk", axisVector(0, 1))
		}

		searchTool := newSearchTool(t, repo, "user-1")

		result, err := searchTool.Run(context.Background(), map[string]any{"query": "chunk"})
		gt.NoError(t, err).Required()

		contents, ok := result["notes"].([]string)
		gt.Bool(t, ok).True()
		gt.Array(t, contents).Length(5)
	})

	t.Run("honors explicit limit argument", func(t *testing.T) {
		repo := memory.New()
		for i := 0; i < 4; i++ {
			seedChunk(t, repo, "user-1", "chunk", axisVector(0, 1))
		}

		searchTool := newSearchTool(t, repo, "user-1")

		result, err := searchTool.Run(context.Background(), map[string]any{
			"query": "chunk",
			"limit": float64(2),
		})
		gt.NoError(t, err).Required()

		contents, ok := result["notes"].([]string)
		gt.Bool(t, ok).True()
		gt.Array(t, contents).Length(2)
	})

	t.Run("missing query is an error", func(t *testing.T) {
		repo := memory.New()

		searchTool := newSearchTool(t, repo, "user-1")

		_, err := searchTool.Run(context.Background(), map[string]any{})
		gt.Value(t, err).NotNil()
	})
}
