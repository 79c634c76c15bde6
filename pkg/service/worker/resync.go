package worker

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/notelens/notelens/pkg/domain/interfaces"
	"github.com/notelens/notelens/pkg/service/chunker"
	"github.com/notelens/notelens/pkg/service/syncer"
	"github.com/notelens/notelens/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// ResyncWorker retries embedding for notes whose sync previously
// failed: notes with embeddable content but no chunks in the index.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type ResyncWorker struct {
	repo        interfaces.Repository
	syncer      *syncer.Syncer
	interval    time.Duration
	concurrency int
	stopCh      chan struct{}
	doneCh      chan struct{}
}

const defaultResyncConcurrency = 4

// NewResyncWorker creates a worker that re-embeds failed notes every
// interval
func NewResyncWorker(repo interfaces.Repository, sync *syncer.Syncer, interval time.Duration) *ResyncWorker {
	return &ResyncWorker{
		repo:        repo,
		syncer:      sync,
		interval:    interval,
		concurrency: defaultResyncConcurrency,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background resync loop. It does not block server
// startup.
func (w *ResyncWorker) Start(ctx context.Context) error {
	logging.Default().Info("Resync worker starting", "interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *ResyncWorker) Stop() {
	logging.Default().Info("Resync worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("Resync worker stopped")
}

func (w *ResyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.resync(ctx); err != nil {
				// Log error but continue worker
				logging.Default().Error("Resync cycle failed (will retry next interval)",
					"error", err.Error())
			}

		case <-w.stopCh:
			logging.Default().Info("Resync worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("Resync worker context cancelled")
			return
		}
	}
}

// resync performs a single cycle. A failure on one note never stops
// the others; errors are logged and retried on the next cycle.
func (w *ResyncWorker) resync(ctx context.Context) error {
	notes, err := w.repo.Note().List(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to list notes for resync")
	}

	var eg errgroup.Group
	eg.SetLimit(w.concurrency)

	var resynced int
	for _, note := range notes {
		if len(chunker.Split(note.Body)) == 0 {
			continue
		}

		exists, err := w.repo.Chunk().ExistsForNote(ctx, note.ID)
		if err != nil {
			return goerr.Wrap(err, "failed to check chunks", goerr.V("noteID", note.ID))
		}
		if exists {
			continue
		}

		resynced++
		eg.Go(func() error {
			if err := w.syncer.SyncNote(ctx, note); err != nil {
				logging.From(ctx).Error("Failed to resync note (will retry next interval)",
					"noteID", note.ID, "error", err.Error())
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return goerr.Wrap(err, "resync group failed")
	}

	if resynced > 0 {
		logging.From(ctx).Info("Resync cycle completed", "attempted", resynced)
	}

	return nil
}
