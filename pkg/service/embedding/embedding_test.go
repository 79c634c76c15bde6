package embedding_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/service/embedding"
)

type mockLLMClient struct {
	generateEmbeddingFn func(ctx context.Context, dimension int, input []string) ([][]float64, error)
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, errors.New("not implemented")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	if c.generateEmbeddingFn != nil {
		return c.generateEmbeddingFn(ctx, dimension, input)
	}
	return nil, nil
}

func fakeVectors(n int) [][]float64 {
	vectors := make([][]float64, n)
	for i := range vectors {
		v := make([]float64, model.EmbeddingDimension)
		v[i%model.EmbeddingDimension] = 1
		vectors[i] = v
	}
	return vectors
}

func TestEmbed(t *testing.T) {
	t.Run("batches all contents into one call", func(t *testing.T) {
		var calls int
		var gotInput []string
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				calls++
				gotInput = input
				gt.Value(t, dimension).Equal(model.EmbeddingDimension)
				return fakeVectors(len(input)), nil
			},
		}

		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()

		vectors, err := embedder.Embed(context.Background(), []string{"a", "b", "c"})
		gt.NoError(t, err).Required()

		gt.Value(t, calls).Equal(1)
		gt.Array(t, gotInput).Equal([]string{"a", "b", "c"})
		gt.Array(t, vectors).Length(3)
		for _, v := range vectors {
			gt.Array(t, v).Length(model.EmbeddingDimension)
		}
	})

	t.Run("vectors align with input order", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return fakeVectors(len(input)), nil
			},
		}

		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()

		vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
		gt.NoError(t, err).Required()

		gt.Value(t, vectors[0][0]).Equal(float32(1))
		gt.Value(t, vectors[1][1]).Equal(float32(1))
	})

	t.Run("empty input yields no call", func(t *testing.T) {
		var calls int
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				calls++
				return nil, nil
			},
		}

		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()

		vectors, err := embedder.Embed(context.Background(), nil)
		gt.NoError(t, err).Required()
		gt.Array(t, vectors).Length(0)
		gt.Value(t, calls).Equal(0)
	})

	t.Run("provider failure maps to ErrProviderFailed", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return nil, errors.New("quota exceeded")
			},
		}

		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()

		_, err = embedder.Embed(context.Background(), []string{"a"})
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, embedding.ErrProviderFailed)).True()
	})

	t.Run("deadline exceeded maps to ErrProviderTimeout", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}

		embedder, err := embedding.New(client, embedding.WithTimeout(10*time.Millisecond))
		gt.NoError(t, err).Required()

		_, err = embedder.Embed(context.Background(), []string{"a"})
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, embedding.ErrProviderTimeout)).True()
	})

	t.Run("count mismatch maps to ErrProviderFailed", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return fakeVectors(1), nil
			},
		}

		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()

		_, err = embedder.Embed(context.Background(), []string{"a", "b"})
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, embedding.ErrProviderFailed)).True()
	})

	t.Run("dimension mismatch maps to ErrProviderFailed", func(t *testing.T) {
		client := &mockLLMClient{
			generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
				return [][]float64{{0.1, 0.2}}, nil
			},
		}

		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()

		_, err = embedder.Embed(context.Background(), []string{"a"})
		gt.Value(t, err).NotNil()
		gt.Bool(t, errors.Is(err, embedding.ErrProviderFailed)).True()
	})
}

func TestEmbedOne(t *testing.T) {
	client := &mockLLMClient{
		generateEmbeddingFn: func(ctx context.Context, dimension int, input []string) ([][]float64, error) {
			gt.Array(t, input).Length(1)
			return fakeVectors(1), nil
		},
	}

	embedder, err := embedding.New(client)
	gt.NoError(t, err).Required()

	vec, err := embedder.EmbedOne(context.Background(), "query text")
	gt.NoError(t, err).Required()
	gt.Array(t, vec).Length(model.EmbeddingDimension)
}
