// Package testutil provides shared test helpers for building documents
// and queries.
package testutil

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/starford/audita/internal/models"
)

// Documents returns n distinct documents with an integer field "n"
// running from 1 to n and a string field "name".
func Documents(n int) []models.Document {
	docs := make([]models.Document, n)
	for i := range docs {
		docs[i] = models.Document{
			"n":    float64(i + 1),
			"name": fmt.Sprintf("record-%d", i+1),
		}
	}
	return docs
}

// Condition builds a condition with the value marshalled into the
// operator payload.
func Condition(t *testing.T, field string, op models.OperatorType, value any) models.Condition {
	t.Helper()
	raw, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal operator value: %v", err)
	}
	return models.Condition{
		Field: field,
		Op:    models.Operator{Type: op, Value: raw},
	}
}
