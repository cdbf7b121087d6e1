// Package api implements the Audita REST API using chi.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/starford/audita/internal/anchor"
	"github.com/starford/audita/internal/apperr"
	"github.com/starford/audita/internal/metrics"
	"github.com/starford/audita/internal/models"
	"github.com/starford/audita/internal/pipeline"
	"github.com/starford/audita/internal/store"
)

// Storage hash lookups are cached briefly: anchored digests never
// change, so a short TTL only bounds staleness for ids still in flight.
const (
	hashCacheSize = 1000
	hashCacheTTL  = 60 * time.Second
)

// HashResponse is the payload for both hash read endpoints.
type HashResponse struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// Handler holds API route handlers.
type Handler struct {
	pipeline  *pipeline.Pipeline
	anchorer  *anchor.Anchorer
	store     store.Repository
	metrics   *metrics.Metrics
	hashCache *expirable.LRU[string, HashResponse]
}

// NewHandler creates a new Handler.
func NewHandler(p *pipeline.Pipeline, a *anchor.Anchorer, repo store.Repository, m *metrics.Metrics) *Handler {
	return &Handler{
		pipeline:  p,
		anchorer:  a,
		store:     repo,
		metrics:   m,
		hashCache: expirable.NewLRU[string, HashResponse](hashCacheSize, nil, hashCacheTTL),
	}
}

// SubmitDocument handles POST /api/documents: it enqueues one document
// for batching. The only acknowledgement is admission to the queue;
// storage and anchoring happen asynchronously.
func (h *Handler) SubmitDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)

	var doc models.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if len(doc) == 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("document must not be empty"))
		return
	}

	if err := h.pipeline.Documents.Send(r.Context(), doc); err != nil {
		slog.Error("enqueue document failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, errorBody("ingestion unavailable"))
		return
	}
	h.metrics.DocsTotal.Inc()

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GetLedgerHash handles GET /api/blockchain/{id}: the anchored digest
// for a batch id, read from the ledger.
func (h *Handler) GetLedgerHash(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	d, err := h.anchorer.Digest(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no records found for the given batch id"))
			return
		}
		slog.Error("ledger hash lookup failed", slog.String("batch_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, HashResponse{ID: id, Hash: d.Hex()})
}

// GetStorageHash handles GET /api/storage/{id}: the digest recomputed
// from the documents persisted for a batch id.
func (h *Handler) GetStorageHash(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if cached, ok := h.hashCache.Get(id); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	batch, err := h.store.Retrieve(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("no records found for the given batch id"))
			return
		}
		slog.Error("storage hash lookup failed", slog.String("batch_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}

	resp := HashResponse{ID: id, Hash: batch.Digest.Hex()}
	h.hashCache.Add(id, resp)
	writeJSON(w, http.StatusOK, resp)
}

// SearchDocuments handles POST /api/search: a structured boolean query
// over the stored documents.
func (h *Handler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var req struct {
		Query models.Query `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}

	docs, err := h.store.Search(r.Context(), &req.Query)
	if err != nil {
		slog.Error("search failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"docs": docs})
}
