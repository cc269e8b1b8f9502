package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const petSchema = `
	type Query { pets: [Pet!]!, flag: Boolean }
	interface Pet { name: String! }
	type Dog implements Pet { name: String!, barks: Boolean }
	type Cat implements Pet { name: String!, lives: Int }
`

func TestCollect_FragmentsOnInterface(t *testing.T) {
	sch := mustLoadSchema(t, petSchema)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.pets": NewMockValueResolver([]any{
			map[string]any{"__typename": "Dog", "name": "rex", "barks": true},
			map[string]any{"__typename": "Cat", "name": "tom", "lives": 9},
		}),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, sch, `
		{
			pets {
				__typename
				name
				... on Dog { barks }
				...CatFields
			}
		}
		fragment CatFields on Cat { lives }
	`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{
		Data: map[string]any{"pets": []any{
			map[string]any{"__typename": "Dog", "name": "rex", "barks": true},
			map[string]any{"__typename": "Cat", "name": "tom", "lives": 9},
		}},
	}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_SkipAndInclude(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { a: String, b: String, c: String }`)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
		"Query.c": NewMockValueResolver("C"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, sch, `query Q($skip: Boolean!) { a @skip(if: $skip) b @include(if: false) c }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "Q", map[string]any{"skip": true}, nil)

	wantRes := &ExecutionResult{Data: map[string]any{"c": "C"}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_AliasesAndArguments(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { greet(name: String = "world"): String }`)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.greet": func(ctx context.Context, src any, args map[string]any) (any, error) {
			return "hello " + args["name"].(string), nil
		},
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, sch, `{ one: greet two: greet(name: "gopher") }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	wantRes := &ExecutionResult{Data: map[string]any{"one": "hello world", "two": "hello gopher"}}
	if diff := cmp.Diff(wantRes, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	var paths []Path
	for _, c := range rt.Calls() {
		paths = append(paths, c.Path)
	}
	if diff := cmp.Diff([]Path{{"one"}, {"two"}}, paths); diff != "" {
		t.Fatalf("call paths mismatch (-want +got):\n%s", diff)
	}
}

func TestExecute_MutationRunsSerially(t *testing.T) {
	sch := mustLoadSchema(t, `
		type Query { noop: String }
		type Mutation { first: String, second: String }
	`)
	rt := NewMockRuntime(map[string]MockResolver{
		"Mutation.first":  NewMockValueResolver("1"),
		"Mutation.second": NewMockValueResolver("2"),
	})
	exec := NewExecutor(rt, sch)
	doc := mustParseQuery(t, sch, `mutation { second first }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	if diff := cmp.Diff(&ExecutionResult{Data: map[string]any{"first": "1", "second": "2"}}, gotRes); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	calls := rt.Calls()
	if len(calls) != 2 || calls[0].Field != "second" || calls[1].Field != "first" {
		t.Fatalf("unexpected call order: %+v", calls)
	}
}

func TestExecute_VariableCoercionError(t *testing.T) {
	sch := mustLoadSchema(t, `type Query { greet(name: String!): String }`)
	exec := NewExecutor(NewMockRuntime(nil), sch)
	doc := mustParseQuery(t, sch, `query Q($name: String!) { greet(name: $name) }`)

	gotRes := exec.ExecuteRequest(context.Background(), doc, "Q", nil, nil)

	if gotRes.Data != nil || len(gotRes.Errors) != 1 || gotRes.Errors[0].Kind != KindValidation {
		t.Fatalf("expected a single validation error, got %+v", gotRes)
	}
}
