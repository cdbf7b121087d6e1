package store

import (
	"context"
	"encoding/json"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/audita/internal/apperr"
	"github.com/starford/audita/internal/digest"
	"github.com/starford/audita/internal/models"
)

// Memory is an in-process Repository used by tests and runs with the
// Elasticsearch backend disabled. It evaluates queries directly
// against the stored documents with the same semantics the compiler
// targets.
type Memory struct {
	mu      sync.RWMutex
	records []models.DocumentStorable
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{}
}

// Store appends every document of the batch with its tagging fields.
func (m *Memory) Store(ctx context.Context, batch *models.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, doc := range batch.Documents {
		m.records = append(m.records, models.DocumentStorable{
			BatchID: batch.ID,
			Ord:     i,
			Doc:     doc,
		})
	}
	return nil
}

// Retrieve rebuilds the batch for an id with documents in ordinal
// order.
func (m *Memory) Retrieve(ctx context.Context, id string) (*models.Batch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []models.DocumentStorable
	for _, rec := range m.records {
		if rec.BatchID == id {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return nil, apperr.ErrNotFound
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Ord < matched[j].Ord })

	documents := make([]models.Document, len(matched))
	for i, rec := range matched {
		documents[i] = rec.Doc
	}
	d, err := digest.Sum(documents)
	if err != nil {
		return nil, err
	}
	return &models.Batch{ID: id, Documents: documents, Digest: d}, nil
}

// Search evaluates the query over every stored record, capped at the
// search page size.
func (m *Memory) Search(ctx context.Context, query *models.Query) (models.QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make(models.QueryResult, 0)
	for _, rec := range m.records {
		ok, err := matches(query, rec.Doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		results = append(results, models.DocumentQuery{ID: rec.BatchID, Source: rec.Doc})
		if len(results) >= searchSize {
			break
		}
	}
	return results, nil
}

// Count returns the number of stored records.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func matches(q *models.Query, doc models.Document) (bool, error) {
	if q.IsEmpty() {
		return true, nil
	}

	for _, cond := range q.And {
		ok, err := evalCondition(&cond, doc)
		if err != nil || !ok {
			return false, err
		}
	}

	if len(q.Or) > 0 {
		any := false
		for _, cond := range q.Or {
			ok, err := evalCondition(&cond, doc)
			if err != nil {
				return false, err
			}
			if ok {
				any = true
				break
			}
		}
		if !any {
			return false, nil
		}
	}

	for _, cond := range q.Not {
		ok, err := evalCondition(&cond, doc)
		if err != nil {
			return false, err
		}
		if ok {
			return false, nil
		}
	}
	return true, nil
}

func evalCondition(cond *models.Condition, doc models.Document) (bool, error) {
	val, present := doc[cond.Field]
	if !present {
		return false, nil
	}
	op := &cond.Op

	switch op.Type {
	case models.OpEqString, models.OpNeqString, models.OpContains, models.OpStartsWith, models.OpEndsWith, models.OpRegex:
		field, ok := val.(string)
		if !ok {
			return false, nil
		}
		want, err := op.StringValue()
		if err != nil {
			return false, err
		}
		switch op.Type {
		case models.OpEqString:
			return field == want, nil
		case models.OpNeqString:
			return field != want, nil
		case models.OpContains:
			return strings.Contains(field, want), nil
		case models.OpStartsWith:
			return strings.HasPrefix(field, want), nil
		case models.OpEndsWith:
			return strings.HasSuffix(field, want), nil
		default:
			matched, err := regexp.MatchString(want, field)
			if err != nil {
				return false, err
			}
			return matched, nil
		}

	case models.OpEqInt, models.OpNeqInt, models.OpGtInt, models.OpLtInt:
		field, ok := intField(val)
		if !ok {
			return false, nil
		}
		want, err := op.IntValue()
		if err != nil {
			return false, err
		}
		switch op.Type {
		case models.OpEqInt:
			return field == want, nil
		case models.OpNeqInt:
			return field != want, nil
		case models.OpGtInt:
			return field > want, nil
		default:
			return field < want, nil
		}

	case models.OpBetweenInt:
		field, ok := intField(val)
		if !ok {
			return false, nil
		}
		min, max, err := op.IntRange()
		if err != nil {
			return false, err
		}
		return field >= min && field <= max, nil

	case models.OpEqDate, models.OpNeqDate, models.OpAfterDate, models.OpBeforeDate:
		field, ok := dateField(val)
		if !ok {
			return false, nil
		}
		want, err := op.TimeValue()
		if err != nil {
			return false, err
		}
		switch op.Type {
		case models.OpEqDate:
			return field.Equal(want), nil
		case models.OpNeqDate:
			return !field.Equal(want), nil
		case models.OpAfterDate:
			return field.After(want), nil
		default:
			return field.Before(want), nil
		}

	case models.OpBetweenDate:
		field, ok := dateField(val)
		if !ok {
			return false, nil
		}
		from, to, err := op.TimeRange()
		if err != nil {
			return false, err
		}
		return !field.Before(from) && !field.After(to), nil
	}
	return false, nil
}

// intField normalizes the numeric representations a decoded JSON
// document may carry.
func intField(val any) (int64, bool) {
	switch v := val.(type) {
	case float64:
		return int64(v), true
	case int:
		return int64(v), true
	case int64:
		return v, true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func dateField(val any) (time.Time, bool) {
	s, ok := val.(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	return t, err == nil
}
