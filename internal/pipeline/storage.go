package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/audita/internal/metrics"
	"github.com/starford/audita/internal/store"
)

// Storage is the persistence stage run loop: it drains the storage
// queue and bulk-indexes each batch into the document store. Failures
// are contained per batch; only queue closure terminates the loop.
type Storage struct {
	pipeline *Pipeline
	repo     store.Repository
	metrics  *metrics.Metrics
}

// NewStorage creates a persistence stage instance.
func NewStorage(p *Pipeline, repo store.Repository, m *metrics.Metrics) *Storage {
	return &Storage{pipeline: p, repo: repo, metrics: m}
}

// Run consumes the storage queue until it closes.
func (s *Storage) Run(ctx context.Context) error {
	for {
		batch, ok := s.pipeline.Storage.Receive()
		if !ok {
			return nil
		}
		s.metrics.StorageQueueSize.Set(float64(s.pipeline.Storage.Len()))

		start := time.Now()
		if err := s.repo.Store(ctx, batch); err != nil {
			slog.Error("batch store failed",
				slog.String("batch_id", batch.ID),
				slog.String("error", err.Error()))
			s.metrics.StorageErrors.Inc()
			continue
		}
		s.metrics.StorageLatency.Observe(time.Since(start).Seconds())

		slog.Info("batch stored",
			slog.String("batch_id", batch.ID),
			slog.Int("documents", len(batch.Documents)))
	}
}
