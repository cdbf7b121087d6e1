// Package store persists batched documents in a searchable backend and
// serves the retrieve and search read paths. The Elasticsearch adapter
// is the production backend; Memory backs tests and local runs.
package store

import (
	"context"

	"github.com/starford/audita/internal/models"
)

// Records carry their owning batch id and ordinal position in these
// sideband fields so original order is recoverable; both are stripped
// from search hits before they leave the repository.
const (
	FieldBatchID = "audita_id"
	FieldOrd     = "audita_ord"
)

// Ad-hoc search caps results at searchSize; retrieve-by-id pages with
// pageSize, the backend's hard cap on a single result page.
const (
	searchSize = 50
	pageSize   = 10_000
)

// Repository is the document store surface.
type Repository interface {
	// Store bulk-indexes every document of the batch. A partial bulk
	// failure fails the whole call.
	Store(ctx context.Context, batch *models.Batch) error
	// Retrieve rebuilds the batch for an id with documents in their
	// original order, or returns apperr.ErrNotFound.
	Retrieve(ctx context.Context, id string) (*models.Batch, error)
	// Search executes a compiled boolean query, capped at the search
	// page size.
	Search(ctx context.Context, query *models.Query) (models.QueryResult, error)
}
