package store

import (
	"reflect"
	"testing"

	"github.com/starford/audita/internal/models"
	"github.com/starford/audita/internal/testutil"
)

func TestCompile_EmptyQueryMatchesAll(t *testing.T) {
	got, err := Compile(&models.Query{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := map[string]any{"match_all": map[string]any{}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compile = %v, want %v", got, want)
	}
}

func TestCompile_AndBecomesMust(t *testing.T) {
	q := &models.Query{
		And: []models.Condition{
			testutil.Condition(t, "status", models.OpEqString, "open"),
			testutil.Condition(t, "n", models.OpGtInt, 2),
		},
	}
	got, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := map[string]any{
		"bool": map[string]any{
			"must": []any{
				map[string]any{"term": map[string]any{"status.keyword": "open"}},
				map[string]any{"range": map[string]any{"n": map[string]any{"gt": int64(2)}}},
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compile = %#v, want %#v", got, want)
	}
}

func TestCompile_OrBecomesShouldWithMinimumMatch(t *testing.T) {
	q := &models.Query{
		Or: []models.Condition{
			testutil.Condition(t, "name", models.OpStartsWith, "rec"),
			testutil.Condition(t, "name", models.OpEndsWith, "7"),
		},
	}
	got, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := map[string]any{
		"bool": map[string]any{
			"should": []any{
				map[string]any{"prefix": map[string]any{"name": "rec"}},
				map[string]any{"wildcard": map[string]any{"name": "*7"}},
			},
			"minimum_should_match": 1,
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compile = %#v, want %#v", got, want)
	}
}

func TestCompile_NotBecomesMustNot(t *testing.T) {
	q := &models.Query{
		Not: []models.Condition{
			testutil.Condition(t, "level", models.OpEqString, "debug"),
		},
	}
	got, err := Compile(q)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := map[string]any{
		"bool": map[string]any{
			"must_not": []any{
				map[string]any{"term": map[string]any{"level.keyword": "debug"}},
			},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Compile = %#v, want %#v", got, want)
	}
}

func TestCompileCondition_OperatorLeaves(t *testing.T) {
	cases := []struct {
		name string
		cond models.Condition
		want map[string]any
	}{
		{
			name: "contains wraps with wildcards",
			cond: testutil.Condition(t, "msg", models.OpContains, "err"),
			want: map[string]any{"wildcard": map[string]any{"msg": "*err*"}},
		},
		{
			name: "regex",
			cond: testutil.Condition(t, "msg", models.OpRegex, "^e.*r$"),
			want: map[string]any{"regexp": map[string]any{"msg": "^e.*r$"}},
		},
		{
			name: "string inequality excludes the term",
			cond: testutil.Condition(t, "status", models.OpNeqString, "open"),
			want: map[string]any{"bool": map[string]any{"must_not": map[string]any{"term": map[string]any{"status": "open"}}}},
		},
		{
			name: "integer equality",
			cond: testutil.Condition(t, "n", models.OpEqInt, 5),
			want: map[string]any{"term": map[string]any{"n": int64(5)}},
		},
		{
			name: "integer range",
			cond: testutil.Condition(t, "n", models.OpBetweenInt, [2]int64{2, 4}),
			want: map[string]any{"range": map[string]any{"n": map[string]any{"gte": int64(2), "lte": int64(4)}}},
		},
		{
			name: "less than",
			cond: testutil.Condition(t, "n", models.OpLtInt, 9),
			want: map[string]any{"range": map[string]any{"n": map[string]any{"lt": int64(9)}}},
		},
		{
			name: "date after",
			cond: testutil.Condition(t, "ts", models.OpAfterDate, "2025-06-01T00:00:00Z"),
			want: map[string]any{"range": map[string]any{"ts": map[string]any{"gt": "2025-06-01T00:00:00Z"}}},
		},
		{
			name: "date between",
			cond: testutil.Condition(t, "ts", models.OpBetweenDate, [2]string{"2025-06-01T00:00:00Z", "2025-06-30T00:00:00Z"}),
			want: map[string]any{"range": map[string]any{"ts": map[string]any{"gte": "2025-06-01T00:00:00Z", "lte": "2025-06-30T00:00:00Z"}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := compileCondition(&tc.cond)
			if err != nil {
				t.Fatalf("compileCondition: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("compileCondition = %#v, want %#v", got, tc.want)
			}
		})
	}
}

func TestCompileCondition_UnknownOperator(t *testing.T) {
	cond := models.Condition{Field: "n", Op: models.Operator{Type: "Unknown"}}
	if _, err := compileCondition(&cond); err == nil {
		t.Fatal("unknown operator must fail compilation")
	}
}
