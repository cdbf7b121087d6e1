package store

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	elasticsearch "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/starford/audita/internal/apperr"
	"github.com/starford/audita/internal/digest"
	"github.com/starford/audita/internal/models"
)

// Elastic indexes batches into date-partitioned indices. The index
// name comes from formatting the write time with indexLayout (a Go
// time layout such as "audita-2006.01.02").
type Elastic struct {
	client      *elasticsearch.Client
	indexLayout string
}

// NewElastic builds the client. Certificate validation is disabled, as
// deployments front the engine with self-signed certs.
func NewElastic(url, username, password, indexLayout string) (*Elastic, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{url},
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: new elasticsearch client: %w", err)
	}
	return &Elastic{client: client, indexLayout: indexLayout}, nil
}

// Store bulk-indexes the batch's documents, tagging each with the
// batch id and its ordinal so order is recoverable. Any reported bulk
// error fails the whole call.
func (e *Elastic) Store(ctx context.Context, batch *models.Batch) error {
	index := time.Now().Format(e.indexLayout)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for i, doc := range batch.Documents {
		src := make(models.Document, len(doc)+2)
		for k, v := range doc {
			src[k] = v
		}
		src[FieldBatchID] = batch.ID
		src[FieldOrd] = i

		if err := enc.Encode(map[string]any{"create": map[string]any{"_index": index}}); err != nil {
			return fmt.Errorf("store: encode bulk action: %w", err)
		}
		if err := enc.Encode(src); err != nil {
			return fmt.Errorf("store: encode document %d: %w", i, err)
		}
	}

	res, err := e.client.Bulk(bytes.NewReader(buf.Bytes()), e.client.Bulk.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("store: bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("store: bulk insert failed: %s", res.String())
	}

	var body struct {
		Errors bool `json:"errors"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return fmt.Errorf("store: decode bulk response: %w", err)
	}
	if body.Errors {
		return fmt.Errorf("store: bulk insert reported item failures for batch %s", batch.ID)
	}
	return nil
}

// Retrieve fetches every record tagged with the id in ordinal order,
// paging with search_after past the engine's single-page cap, and
// rebuilds the batch including its recomputed digest.
func (e *Elastic) Retrieve(ctx context.Context, id string) (*models.Batch, error) {
	var documents []models.Document
	var after []any

	for {
		body := map[string]any{
			"query": map[string]any{
				"term": map[string]any{FieldBatchID + ".keyword": id},
			},
			"sort": []any{map[string]any{FieldOrd: "asc"}},
			"size": pageSize,
		}
		if after != nil {
			body["search_after"] = after
		}

		hits, err := e.search(ctx, body)
		if err != nil {
			return nil, err
		}
		if len(hits) == 0 {
			break
		}

		for _, hit := range hits {
			delete(hit.Source, FieldBatchID)
			delete(hit.Source, FieldOrd)
			documents = append(documents, hit.Source)
		}
		after = hits[len(hits)-1].Sort
	}

	if len(documents) == 0 {
		return nil, apperr.ErrNotFound
	}

	d, err := digest.Sum(documents)
	if err != nil {
		return nil, fmt.Errorf("store: recompute digest for %s: %w", id, err)
	}
	return &models.Batch{ID: id, Documents: documents, Digest: d}, nil
}

// Search compiles and runs the query, sorted by ordinal and capped at
// the search page size. The tagging fields are stripped from each hit.
func (e *Elastic) Search(ctx context.Context, query *models.Query) (models.QueryResult, error) {
	compiled, err := Compile(query)
	if err != nil {
		return nil, err
	}

	hits, err := e.search(ctx, map[string]any{
		"query": compiled,
		"sort":  []any{map[string]any{FieldOrd: "asc"}},
		"size":  searchSize,
	})
	if err != nil {
		return nil, err
	}

	results := make(models.QueryResult, 0, len(hits))
	for _, hit := range hits {
		id, ok := hit.Source[FieldBatchID].(string)
		if !ok {
			continue
		}
		delete(hit.Source, FieldBatchID)
		delete(hit.Source, FieldOrd)
		results = append(results, models.DocumentQuery{ID: id, Source: hit.Source})
	}
	return results, nil
}

type searchHit struct {
	Source models.Document `json:"_source"`
	Sort   []any           `json:"sort"`
}

func (e *Elastic) search(ctx context.Context, body map[string]any) ([]searchHit, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("store: encode search body: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithContext(ctx),
		e.client.Search.WithBody(bytes.NewReader(raw)),
	)
	if err != nil {
		return nil, fmt.Errorf("store: search request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("store: search failed: %s", res.String())
	}
	return decodeHits(res)
}

func decodeHits(res *esapi.Response) ([]searchHit, error) {
	var body struct {
		Hits struct {
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("store: decode search response: %w", err)
	}
	return body.Hits.Hits, nil
}
