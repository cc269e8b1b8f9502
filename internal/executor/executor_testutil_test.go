package executor

import (
	"testing"

	language "github.com/hanpama/hotgraph/internal/language"
)

// mustParseQuery parses and validates a GraphQL query and fails the test on error.
func mustParseQuery(t *testing.T, sch *language.Schema, q string) *language.QueryDocument {
	t.Helper()
	d, err := language.ParseQuery(q)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if errs := language.Validate(sch, d); len(errs) > 0 {
		t.Fatalf("validation error: %v", errs)
	}
	return d
}

// mustLoadSchema loads an SDL schema and fails the test on error.
func mustLoadSchema(t *testing.T, sdl string) *language.Schema {
	t.Helper()
	sch, err := language.LoadSchema(&language.Source{Name: "test.graphql", Input: sdl})
	if err != nil {
		t.Fatalf("schema error: %v", err)
	}
	return sch
}
