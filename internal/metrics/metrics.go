// Package metrics wires the process-wide Prometheus registry. One
// Metrics value is built at startup and shared by reference with every
// stage; counters and gauges are safe for concurrent update.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every instrument the pipeline reports into.
type Metrics struct {
	registry *prometheus.Registry

	DocsTotal     prometheus.Counter
	BatchesTotal  prometheus.Counter
	BatchErrors   prometheus.Counter
	SignerErrors  prometheus.Counter
	StorageErrors prometheus.Counter

	WorkerQueueSize  prometheus.Gauge
	SignerQueueSize  prometheus.Gauge
	StorageQueueSize prometheus.Gauge
	BatchSize        prometheus.Gauge

	BatchLatency   prometheus.Histogram
	SignerLatency  prometheus.Histogram
	StorageLatency prometheus.Histogram
}

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// New builds a fresh registry with every instrument registered.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		DocsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "audita_docs_total",
			Help: "Total number of documents accepted for batching.",
		}),
		BatchesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "audita_batches_total",
			Help: "Total number of batches emitted.",
		}),
		BatchErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "audita_batches_error_total",
			Help: "Total number of batch processing errors.",
		}),
		SignerErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "audita_signer_errors_total",
			Help: "Total number of anchoring failures.",
		}),
		StorageErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "audita_storage_errors_total",
			Help: "Total number of storage failures.",
		}),

		WorkerQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audita_worker_queue_size",
			Help: "Current size of the document queue.",
		}),
		SignerQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audita_signer_queue_size",
			Help: "Current size of the signer queue.",
		}),
		StorageQueueSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audita_storage_queue_size",
			Help: "Current size of the storage queue.",
		}),
		BatchSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "audita_batch_size",
			Help: "Size of the last emitted batch.",
		}),

		BatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "audita_batch_processing_latency_seconds",
			Help:    "Batch digest-and-emit latency in seconds.",
			Buckets: latencyBuckets,
		}),
		SignerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "audita_signer_request_latency_seconds",
			Help:    "Ledger anchoring latency in seconds.",
			Buckets: latencyBuckets,
		}),
		StorageLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "audita_storage_request_latency_seconds",
			Help:    "Storage bulk-write latency in seconds.",
			Buckets: latencyBuckets,
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
