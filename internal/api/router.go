package api

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	// Ingress.
	r.Post("/documents", h.SubmitDocument)

	// Read paths.
	r.Get("/blockchain/{id}", h.GetLedgerHash)
	r.Get("/storage/{id}", h.GetStorageHash)
	r.Post("/search", h.SearchDocuments)

	return r
}
