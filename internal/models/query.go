package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OperatorType enumerates the closed set of condition operators.
type OperatorType string

// Operator variants. String operators carry a string value, integer
// operators an integer (a pair for BetweenInt), date operators an
// RFC 3339 timestamp (a pair for BetweenDate).
const (
	OpEqString    OperatorType = "EqString"
	OpNeqString   OperatorType = "NeqString"
	OpContains    OperatorType = "Contains"
	OpStartsWith  OperatorType = "StartsWith"
	OpEndsWith    OperatorType = "EndsWith"
	OpRegex       OperatorType = "Regex"
	OpEqInt       OperatorType = "EqInt"
	OpNeqInt      OperatorType = "NeqInt"
	OpGtInt       OperatorType = "GtInt"
	OpLtInt       OperatorType = "LtInt"
	OpBetweenInt  OperatorType = "BetweenInt"
	OpEqDate      OperatorType = "EqDate"
	OpNeqDate     OperatorType = "NeqDate"
	OpAfterDate   OperatorType = "AfterDate"
	OpBeforeDate  OperatorType = "BeforeDate"
	OpBetweenDate OperatorType = "BetweenDate"
)

// Operator is one predicate variant plus its payload. The payload stays
// raw until a consumer decodes it with the accessor matching the type.
type Operator struct {
	Type  OperatorType    `json:"type"`
	Value json.RawMessage `json:"value"`
}

// StringValue decodes the payload of a string-valued operator.
func (o *Operator) StringValue() (string, error) {
	var s string
	if err := json.Unmarshal(o.Value, &s); err != nil {
		return "", fmt.Errorf("models: operator %s: %w", o.Type, err)
	}
	return s, nil
}

// IntValue decodes the payload of an integer-valued operator.
func (o *Operator) IntValue() (int64, error) {
	var n int64
	if err := json.Unmarshal(o.Value, &n); err != nil {
		return 0, fmt.Errorf("models: operator %s: %w", o.Type, err)
	}
	return n, nil
}

// IntRange decodes the [min, max] payload of BetweenInt.
func (o *Operator) IntRange() (min, max int64, err error) {
	var pair [2]int64
	if err := json.Unmarshal(o.Value, &pair); err != nil {
		return 0, 0, fmt.Errorf("models: operator %s: %w", o.Type, err)
	}
	return pair[0], pair[1], nil
}

// TimeValue decodes the RFC 3339 payload of a date-valued operator.
func (o *Operator) TimeValue() (time.Time, error) {
	s, err := o.StringValue()
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("models: operator %s: %w", o.Type, err)
	}
	return t, nil
}

// TimeRange decodes the [from, to] RFC 3339 payload of BetweenDate.
func (o *Operator) TimeRange() (from, to time.Time, err error) {
	var pair [2]string
	if err := json.Unmarshal(o.Value, &pair); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("models: operator %s: %w", o.Type, err)
	}
	if from, err = time.Parse(time.RFC3339, pair[0]); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("models: operator %s: %w", o.Type, err)
	}
	if to, err = time.Parse(time.RFC3339, pair[1]); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("models: operator %s: %w", o.Type, err)
	}
	return from, to, nil
}

// Condition applies one operator to one document field.
type Condition struct {
	Field string   `json:"field"`
	Op    Operator `json:"op"`
}

// Query is a one-level boolean combination of conditions: every And
// condition must match, at least one Or condition must match when any
// are present, and no Not condition may match. An empty query matches
// every record.
type Query struct {
	And []Condition `json:"and,omitempty"`
	Or  []Condition `json:"or,omitempty"`
	Not []Condition `json:"not,omitempty"`
}

// IsEmpty reports whether the query has no conditions at all.
func (q *Query) IsEmpty() bool {
	return len(q.And) == 0 && len(q.Or) == 0 && len(q.Not) == 0
}

// DocumentQuery is one search hit: the owning batch id plus the
// original document with the internal tagging fields stripped.
type DocumentQuery struct {
	ID     string   `json:"id"`
	Source Document `json:"source"`
}

// QueryResult is the ordered list of search hits.
type QueryResult []DocumentQuery
