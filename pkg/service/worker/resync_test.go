package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gollem"
	"github.com/m-mizutani/gt"
	"github.com/notelens/notelens/pkg/domain/model"
	"github.com/notelens/notelens/pkg/repository/memory"
	"github.com/notelens/notelens/pkg/service/embedding"
	"github.com/notelens/notelens/pkg/service/syncer"
	"github.com/notelens/notelens/pkg/service/worker"
)

type mockLLMClient struct {
	mu   sync.Mutex
	fail bool
}

func (c *mockLLMClient) NewSession(ctx context.Context, options ...gollem.SessionOption) (gollem.Session, error) {
	return nil, errors.New("not implemented")
}

func (c *mockLLMClient) GenerateEmbedding(ctx context.Context, dimension int, input []string) ([][]float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return nil, errors.New("provider down")
	}

	vectors := make([][]float64, len(input))
	for i := range vectors {
		v := make([]float64, dimension)
		v[i%dimension] = 1
		vectors[i] = v
	}
	return vectors, nil
}

func (c *mockLLMClient) setFail(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = fail
}

func TestResyncWorker(t *testing.T) {
	t.Run("re-embeds notes that have no chunks", func(t *testing.T) {
		client := &mockLLMClient{}
		repo := memory.New()
		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()
		svc := syncer.New(repo, embedder)
		ctx := context.Background()

		// Simulate a note whose initial sync failed: stored but
		// without chunks
		note, err := repo.Note().Create(ctx, &model.Note{
			UserID: "user-1",
			Title:  "failed note",
			Body:   "line one\nline two",
		})
		gt.NoError(t, err).Required()

		w := worker.NewResyncWorker(repo, svc, 20*time.Millisecond)
		gt.NoError(t, w.Start(ctx)).Required()
		defer w.Stop()

		deadline := time.After(2 * time.Second)
		for {
			exists, err := repo.Chunk().ExistsForNote(ctx, note.ID)
			gt.NoError(t, err).Required()
			if exists {
				break
			}
			select {
			case <-deadline:
				t.Fatal("note was not resynced before deadline")
			case <-time.After(10 * time.Millisecond):
			}
		}
	})

	t.Run("skips notes that already have chunks", func(t *testing.T) {
		client := &mockLLMClient{}
		repo := memory.New()
		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()
		svc := syncer.New(repo, embedder)
		ctx := context.Background()

		note, err := repo.Note().Create(ctx, &model.Note{
			UserID: "user-1",
			Title:  "synced note",
			Body:   "content",
		})
		gt.NoError(t, err).Required()
		gt.NoError(t, svc.SyncNote(ctx, note)).Required()

		// A provider outage must not matter for in-sync notes
		client.setFail(true)

		w := worker.NewResyncWorker(repo, svc, 20*time.Millisecond)
		gt.NoError(t, w.Start(ctx)).Required()

		time.Sleep(100 * time.Millisecond)
		w.Stop()

		exists, err := repo.Chunk().ExistsForNote(ctx, note.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).True()
	})

	t.Run("skips notes without embeddable content", func(t *testing.T) {
		client := &mockLLMClient{}
		repo := memory.New()
		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()
		svc := syncer.New(repo, embedder)
		ctx := context.Background()

		note, err := repo.Note().Create(ctx, &model.Note{
			UserID: "user-1",
			Title:  "blank note",
			Body:   "\n \n",
		})
		gt.NoError(t, err).Required()

		w := worker.NewResyncWorker(repo, svc, 20*time.Millisecond)
		gt.NoError(t, w.Start(ctx)).Required()

		time.Sleep(100 * time.Millisecond)
		w.Stop()

		exists, err := repo.Chunk().ExistsForNote(ctx, note.ID)
		gt.NoError(t, err).Required()
		gt.Bool(t, exists).False()
	})

	t.Run("one failing note does not block the others", func(t *testing.T) {
		client := &mockLLMClient{}
		repo := memory.New()
		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()
		svc := syncer.New(repo, embedder)
		ctx := context.Background()

		// Provider initially down so both notes start chunkless
		client.setFail(true)

		a, err := repo.Note().Create(ctx, &model.Note{UserID: "u", Title: "a", Body: "alpha"})
		gt.NoError(t, err).Required()
		b, err := repo.Note().Create(ctx, &model.Note{UserID: "u", Title: "b", Body: "bravo"})
		gt.NoError(t, err).Required()

		client.setFail(false)

		w := worker.NewResyncWorker(repo, svc, 20*time.Millisecond)
		gt.NoError(t, w.Start(ctx)).Required()
		defer w.Stop()

		deadline := time.After(2 * time.Second)
		for {
			existsA, err := repo.Chunk().ExistsForNote(ctx, a.ID)
			gt.NoError(t, err).Required()
			existsB, err := repo.Chunk().ExistsForNote(ctx, b.ID)
			gt.NoError(t, err).Required()
			if existsA && existsB {
				break
			}
			select {
			case <-deadline:
				t.Fatal("notes were not resynced before deadline")
			case <-time.After(10 * time.Millisecond):
			}
		}
	})

	t.Run("Stop terminates the loop", func(t *testing.T) {
		client := &mockLLMClient{}
		repo := memory.New()
		embedder, err := embedding.New(client)
		gt.NoError(t, err).Required()
		svc := syncer.New(repo, embedder)

		w := worker.NewResyncWorker(repo, svc, time.Hour)
		gt.NoError(t, w.Start(context.Background())).Required()

		done := make(chan struct{})
		go func() {
			w.Stop()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Stop did not return")
		}
	})
}
