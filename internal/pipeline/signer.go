package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/audita/internal/anchor"
	"github.com/starford/audita/internal/metrics"
	"github.com/starford/audita/internal/models"
)

// Signer is the anchoring stage run loop: it drains the signer queue
// and publishes each batch's fingerprint through the anchorer. A failed
// batch is reported and does not stop the loop; only queue closure
// terminates it.
type Signer struct {
	pipeline *Pipeline
	anchorer *anchor.Anchorer
	metrics  *metrics.Metrics
}

// NewSigner creates an anchoring stage instance.
func NewSigner(p *Pipeline, a *anchor.Anchorer, m *metrics.Metrics) *Signer {
	return &Signer{pipeline: p, anchorer: a, metrics: m}
}

// Run consumes the signer queue until it closes. Instances sharing the
// queue compete for batches; the anchorer's nonce counter and pending
// semaphore are shared across all of them.
func (s *Signer) Run(ctx context.Context) error {
	for {
		batch, ok := s.pipeline.Signer.Receive()
		if !ok {
			return nil
		}
		s.metrics.SignerQueueSize.Set(float64(s.pipeline.Signer.Len()))

		start := time.Now()
		fp := models.Fingerprint{ID: batch.ID, Hash: batch.Digest}
		if err := s.anchorer.Publish(ctx, fp); err != nil {
			slog.Error("batch anchoring failed",
				slog.String("batch_id", batch.ID),
				slog.String("error", err.Error()))
			s.metrics.SignerErrors.Inc()
			continue
		}
		s.metrics.SignerLatency.Observe(time.Since(start).Seconds())

		slog.Info("batch anchored", slog.String("batch_id", batch.ID))
	}
}
