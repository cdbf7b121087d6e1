package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/starford/audita/internal/digest"
	"github.com/starford/audita/internal/metrics"
	"github.com/starford/audita/internal/models"
)

// Worker is the batching stage: it accumulates submitted documents and
// emits an immutable Batch to the signer and storage queues every time
// the buffer reaches the configured size. When the document queue
// closes with a non-empty buffer, one final partial batch is emitted so
// no document is ever dropped at shutdown.
type Worker struct {
	pipeline  *Pipeline
	batchSize int
	metrics   *metrics.Metrics
}

// NewWorker creates a batching stage instance.
func NewWorker(p *Pipeline, batchSize int, m *metrics.Metrics) *Worker {
	return &Worker{pipeline: p, batchSize: batchSize, metrics: m}
}

// Run consumes the document queue until it closes. Several instances
// may run concurrently over the same queue; each keeps its own buffer
// and flushes it independently.
func (w *Worker) Run(ctx context.Context) error {
	buffer := make([]models.Document, 0, w.batchSize)

	for {
		doc, ok := w.pipeline.Documents.Receive()
		if !ok {
			break
		}
		buffer = append(buffer, doc)
		w.metrics.WorkerQueueSize.Set(float64(w.pipeline.Documents.Len()))

		if len(buffer) >= w.batchSize {
			if err := w.flush(ctx, buffer); err != nil {
				return err
			}
			buffer = make([]models.Document, 0, w.batchSize)
		}
	}

	// Final partial flush on queue closure.
	if len(buffer) > 0 {
		if err := w.flush(ctx, buffer); err != nil {
			return err
		}
	}
	return nil
}

func (w *Worker) flush(ctx context.Context, docs []models.Document) error {
	start := time.Now()

	d, err := digest.Sum(docs)
	if err != nil {
		// A document that unmarshalled from JSON cannot fail to
		// marshal again; reaching here is an invariant violation.
		// The batch is reported and dropped, the loop stays alive.
		slog.Error("batch digest failed", slog.Int("documents", len(docs)), slog.String("error", err.Error()))
		w.metrics.BatchErrors.Inc()
		return nil
	}

	batch := &models.Batch{
		ID:        uuid.NewString(),
		Documents: docs,
		Digest:    d,
	}

	if err := w.pipeline.Signer.Send(ctx, batch); err != nil {
		return err
	}
	if err := w.pipeline.Storage.Send(ctx, batch); err != nil {
		return err
	}

	w.metrics.BatchesTotal.Inc()
	w.metrics.BatchSize.Set(float64(len(docs)))
	w.metrics.BatchLatency.Observe(time.Since(start).Seconds())

	slog.Debug("batch emitted",
		slog.String("batch_id", batch.ID),
		slog.Int("documents", len(docs)),
		slog.String("digest", d.Hex()))
	return nil
}
