package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/notelens/notelens/pkg/domain/model"
)

var (
	// ErrProviderFailed indicates the embedding provider rejected or
	// failed the batch call
	ErrProviderFailed = goerr.New("embedding provider request failed")

	// ErrProviderTimeout indicates the embedding call exceeded its
	// deadline
	ErrProviderTimeout = goerr.New("embedding provider timed out")
)

const defaultTimeout = 30 * time.Second

// Embedder turns note text into fixed-dimension vectors via the LLM
// client's embedding capability.
type Embedder struct {
	llmClient gollem.LLMClient
	timeout   time.Duration
}

type Option func(*Embedder)

// WithTimeout sets the per-call deadline for embedding requests
func WithTimeout(d time.Duration) Option {
	return func(x *Embedder) {
		x.timeout = d
	}
}

func New(llmClient gollem.LLMClient, opts ...Option) (*Embedder, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	x := &Embedder{
		llmClient: llmClient,
		timeout:   defaultTimeout,
	}

	for _, opt := range opts {
		opt(x)
	}

	return x, nil
}

// Embed embeds all contents in a single provider call. The returned
// vectors align positionally with the input. Either all inputs are
// embedded or an error is returned, so callers never see a partial
// batch.
func (x *Embedder) Embed(ctx context.Context, contents []string) ([][]float32, error) {
	if len(contents) == 0 {
		return [][]float32{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	embeddings, err := x.llmClient.GenerateEmbedding(ctx, model.EmbeddingDimension, contents)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, goerr.Wrap(ErrProviderTimeout, "embedding call exceeded deadline",
				goerr.V("timeout", x.timeout), goerr.V("batchSize", len(contents)))
		}
		return nil, goerr.Wrap(ErrProviderFailed, "batch embedding call failed",
			goerr.V("cause", err.Error()), goerr.V("batchSize", len(contents)))
	}

	if len(embeddings) != len(contents) {
		return nil, goerr.Wrap(ErrProviderFailed, "embedding count mismatch",
			goerr.V("want", len(contents)), goerr.V("got", len(embeddings)))
	}

	result := make([][]float32, len(embeddings))
	for i, emb := range embeddings {
		if len(emb) != model.EmbeddingDimension {
			return nil, goerr.Wrap(ErrProviderFailed, "embedding dimension mismatch",
				goerr.V("want", model.EmbeddingDimension), goerr.V("got", len(emb)))
		}

		vec := make([]float32, len(emb))
		for j, v := range emb {
			vec[j] = float32(v)
		}
		result[i] = vec
	}

	return result, nil
}

// EmbedOne embeds a single text, used for retrieval queries
func (x *Embedder) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := x.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
