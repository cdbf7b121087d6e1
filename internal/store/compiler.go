package store

import (
	"fmt"
	"time"

	"github.com/starford/audita/internal/models"
)

// Compile translates a boolean query into the Elasticsearch query DSL.
// An empty query compiles to match_all. Otherwise And conditions become
// required clauses, Or conditions optional clauses with at least one
// required to match, and Not conditions excluded clauses.
func Compile(q *models.Query) (map[string]any, error) {
	if q.IsEmpty() {
		return map[string]any{"match_all": map[string]any{}}, nil
	}

	boolQuery := map[string]any{}

	must, err := compileConditions(q.And)
	if err != nil {
		return nil, err
	}
	if len(must) > 0 {
		boolQuery["must"] = must
	}

	should, err := compileConditions(q.Or)
	if err != nil {
		return nil, err
	}
	if len(should) > 0 {
		boolQuery["should"] = should
		boolQuery["minimum_should_match"] = 1
	}

	mustNot, err := compileConditions(q.Not)
	if err != nil {
		return nil, err
	}
	if len(mustNot) > 0 {
		boolQuery["must_not"] = mustNot
	}

	return map[string]any{"bool": boolQuery}, nil
}

func compileConditions(conds []models.Condition) ([]any, error) {
	if len(conds) == 0 {
		return nil, nil
	}
	out := make([]any, 0, len(conds))
	for _, cond := range conds {
		compiled, err := compileCondition(&cond)
		if err != nil {
			return nil, err
		}
		out = append(out, compiled)
	}
	return out, nil
}

// compileCondition maps one operator variant to its primitive
// Elasticsearch predicate. These are the leaves: the and/or/not lists
// combine them at a single level.
func compileCondition(cond *models.Condition) (map[string]any, error) {
	field := cond.Field
	op := &cond.Op

	switch op.Type {
	case models.OpEqString:
		val, err := op.StringValue()
		if err != nil {
			return nil, err
		}
		return term(field+".keyword", val), nil
	case models.OpNeqString:
		val, err := op.StringValue()
		if err != nil {
			return nil, err
		}
		return not(term(field, val)), nil
	case models.OpContains:
		val, err := op.StringValue()
		if err != nil {
			return nil, err
		}
		return wildcard(field, "*"+val+"*"), nil
	case models.OpStartsWith:
		val, err := op.StringValue()
		if err != nil {
			return nil, err
		}
		return map[string]any{"prefix": map[string]any{field: val}}, nil
	case models.OpEndsWith:
		val, err := op.StringValue()
		if err != nil {
			return nil, err
		}
		return wildcard(field, "*"+val), nil
	case models.OpRegex:
		val, err := op.StringValue()
		if err != nil {
			return nil, err
		}
		return map[string]any{"regexp": map[string]any{field: val}}, nil
	case models.OpEqInt:
		val, err := op.IntValue()
		if err != nil {
			return nil, err
		}
		return term(field, val), nil
	case models.OpNeqInt:
		val, err := op.IntValue()
		if err != nil {
			return nil, err
		}
		return not(term(field, val)), nil
	case models.OpGtInt:
		val, err := op.IntValue()
		if err != nil {
			return nil, err
		}
		return rangeQuery(field, map[string]any{"gt": val}), nil
	case models.OpLtInt:
		val, err := op.IntValue()
		if err != nil {
			return nil, err
		}
		return rangeQuery(field, map[string]any{"lt": val}), nil
	case models.OpBetweenInt:
		min, max, err := op.IntRange()
		if err != nil {
			return nil, err
		}
		return rangeQuery(field, map[string]any{"gte": min, "lte": max}), nil
	case models.OpEqDate:
		val, err := op.TimeValue()
		if err != nil {
			return nil, err
		}
		return term(field, val.Format(time.RFC3339)), nil
	case models.OpNeqDate:
		val, err := op.TimeValue()
		if err != nil {
			return nil, err
		}
		return not(term(field, val.Format(time.RFC3339))), nil
	case models.OpAfterDate:
		val, err := op.TimeValue()
		if err != nil {
			return nil, err
		}
		return rangeQuery(field, map[string]any{"gt": val.Format(time.RFC3339)}), nil
	case models.OpBeforeDate:
		val, err := op.TimeValue()
		if err != nil {
			return nil, err
		}
		return rangeQuery(field, map[string]any{"lt": val.Format(time.RFC3339)}), nil
	case models.OpBetweenDate:
		from, to, err := op.TimeRange()
		if err != nil {
			return nil, err
		}
		return rangeQuery(field, map[string]any{"gte": from.Format(time.RFC3339), "lte": to.Format(time.RFC3339)}), nil
	default:
		return nil, fmt.Errorf("store: unknown operator %q", op.Type)
	}
}

func term(field string, val any) map[string]any {
	return map[string]any{"term": map[string]any{field: val}}
}

func wildcard(field, pattern string) map[string]any {
	return map[string]any{"wildcard": map[string]any{field: pattern}}
}

func rangeQuery(field string, bounds map[string]any) map[string]any {
	return map[string]any{"range": map[string]any{field: bounds}}
}

func not(inner map[string]any) map[string]any {
	return map[string]any{"bool": map[string]any{"must_not": inner}}
}
