package schema

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/hotgraph/internal/executor"
	language "github.com/hanpama/hotgraph/internal/language"
	provider "github.com/hanpama/hotgraph/internal/provider"
)

func weatherProvider() *provider.Func {
	return &provider.Func{
		Type: "weather",
		Schema: `
			enum Sky { CLEAR CLOUDY }
			type Weather { city: String!, sky: Sky }
			extend type Query { weather(city: String!): Weather }
		`,
		Fields: map[string]executor.FieldFunc{
			"Query.weather": func(ctx context.Context, _ any, args map[string]any) (any, error) {
				return map[string]any{"city": args["city"], "sky": "CLEAR"}, nil
			},
		},
		Codes: []string{"WEATHER_UNAVAILABLE", "NOT_FOUND"},
	}
}

func counterProvider() *provider.Func {
	return &provider.Func{
		Type:   "counter",
		Schema: `extend type Query { count: Int! } extend type Mutation { increment(by: Int = 1): Int! }`,
		Fields: map[string]executor.FieldFunc{
			"Query.count":        provider.Value(1),
			"Mutation.increment": provider.Value(2),
		},
		Codes: []string{"NOT_FOUND"},
	}
}

func TestBuild_Empty(t *testing.T) {
	b, err := NewBuilder(zerolog.Nop()).Build(context.Background(), nil)
	require.NoError(t, err)

	require.Equal(t, []string{"errorCodes"}, b.QueryFields)
	require.Empty(t, b.MutationFields)
	require.Nil(t, b.Schema.Mutation)
	require.Equal(t, []string{}, b.ErrorCodes)

	res := execute(t, b, `{ errorCodes }`)
	if diff := cmp.Diff(&executor.ExecutionResult{Data: map[string]any{"errorCodes": []any{}}}, res); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_MergesProviders(t *testing.T) {
	b, err := NewBuilder(zerolog.Nop()).Build(context.Background(), []provider.FieldProvider{weatherProvider(), counterProvider()})
	require.NoError(t, err)

	require.Equal(t, []string{"errorCodes", "weather", "count"}, b.QueryFields)
	require.Equal(t, []string{"increment"}, b.MutationFields)
	require.Equal(t, []string{"counter", "weather"}, b.FieldTypes)
	require.Equal(t, []string{"NOT_FOUND", "WEATHER_UNAVAILABLE"}, b.ErrorCodes)
	require.True(t, b.HasResolver("Mutation.increment"))

	res := execute(t, b, `{ errorCodes weather(city: "Seoul") { city sky } count }`)
	want := &executor.ExecutionResult{Data: map[string]any{
		"errorCodes": []any{"NOT_FOUND", "WEATHER_UNAVAILABLE"},
		"weather":    map[string]any{"city": "Seoul", "sky": "CLEAR"},
		"count":      1,
	}}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}

	res = execute(t, b, `mutation { increment }`)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"increment": 2}, res.Data)
}

func TestBuild_Idempotent(t *testing.T) {
	builder := NewBuilder(zerolog.Nop())
	ps := []provider.FieldProvider{weatherProvider(), counterProvider()}

	first, err := builder.Build(context.Background(), ps)
	require.NoError(t, err)
	second, err := builder.Build(context.Background(), ps)
	require.NoError(t, err)

	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, first.Generation+1, second.Generation)
	require.Equal(t, first.QueryFields, second.QueryFields)
	require.Equal(t, first.MutationFields, second.MutationFields)
	require.Equal(t, Render(first.Schema), Render(second.Schema))
}

func TestBuild_Errors(t *testing.T) {
	cases := map[string][]provider.FieldProvider{
		"syntax":       {&provider.Func{Type: "bad", Schema: `extend type Query {`}},
		"unknown type": {&provider.Func{Type: "bad", Schema: `extend type Query { a: Missing }`}},
		"duplicate field": {
			&provider.Func{Type: "a", Schema: `extend type Query { x: Int }`},
			&provider.Func{Type: "b", Schema: `extend type Query { x: Int }`},
		},
		"duplicate resolver": {
			&provider.Func{Type: "a", Schema: `extend type Query { x: Int }`, Fields: map[string]executor.FieldFunc{"Query.x": provider.Value(1)}},
			&provider.Func{Type: "b", Schema: `type B { y: Int }`, Fields: map[string]executor.FieldFunc{"Query.x": provider.Value(2)}},
		},
		"resolver for unknown field": {
			&provider.Func{Type: "a", Schema: `extend type Query { x: Int }`, Fields: map[string]executor.FieldFunc{"Query.y": provider.Value(1)}},
		},
		"errorCodes taken": {
			&provider.Func{Type: "a", Schema: `extend type Query { x: Int }`, Fields: map[string]executor.FieldFunc{"Query.errorCodes": provider.Value(1)}},
		},
	}
	for name, ps := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewBuilder(zerolog.Nop()).Build(context.Background(), ps)
			require.Error(t, err)
		})
	}
}

func TestBuild_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewBuilder(zerolog.Nop()).Build(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBuild_SkipsNilProviders(t *testing.T) {
	b, err := NewBuilder(zerolog.Nop()).Build(context.Background(), []provider.FieldProvider{nil, counterProvider()})
	require.NoError(t, err)
	require.Equal(t, []string{"counter"}, b.FieldTypes)
}

func TestSerializeLeafValue(t *testing.T) {
	b, err := NewBuilder(zerolog.Nop()).Build(context.Background(), []provider.FieldProvider{weatherProvider()})
	require.NoError(t, err)
	ctx := context.Background()

	v, err := b.SerializeLeafValue(ctx, "Int", float64(3))
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = b.SerializeLeafValue(ctx, "Int", 1.5)
	require.Error(t, err)

	_, err = b.SerializeLeafValue(ctx, "Int", int64(1)<<40)
	require.Error(t, err)

	v, err = b.SerializeLeafValue(ctx, "ID", 7)
	require.NoError(t, err)
	require.Equal(t, "7", v)

	v, err = b.SerializeLeafValue(ctx, "Sky", "CLOUDY")
	require.NoError(t, err)
	require.Equal(t, "CLOUDY", v)

	_, err = b.SerializeLeafValue(ctx, "Sky", "RAIN")
	require.Error(t, err)
}

func TestRender(t *testing.T) {
	b, err := NewBuilder(zerolog.Nop()).Build(context.Background(), []provider.FieldProvider{weatherProvider(), counterProvider()})
	require.NoError(t, err)

	want := `type Mutation {
  increment(by: Int = 1): Int!
}

type Query {
  """
  Error codes the fields of this endpoint may report.
  """
  errorCodes: [String!]!
  weather(city: String!): Weather
  count: Int!
}

enum Sky {
  CLEAR
  CLOUDY
}

type Weather {
  city: String!
  sky: Sky
}
`
	if diff := cmp.Diff(want, Render(b.Schema)); diff != "" {
		t.Fatalf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderSkipsBuiltInDirectives(t *testing.T) {
	p := &provider.Func{
		Type:   "cached",
		Schema: `directive @cached(ttl: Int) on FIELD_DEFINITION extend type Query { hits: Int @cached(ttl: 5) }`,
	}
	b, err := NewBuilder(zerolog.Nop()).Build(context.Background(), []provider.FieldProvider{p})
	require.NoError(t, err)

	sdl := Render(b.Schema)
	require.Contains(t, sdl, "directive @cached")
	for _, name := range []string{"@skip", "@include", "@deprecated", "@specifiedBy"} {
		require.NotContains(t, sdl, "directive "+name)
	}
}

func execute(t *testing.T, b *Bundle, query string) *executor.ExecutionResult {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	require.Empty(t, language.Validate(b.Schema, doc))
	return executor.NewExecutor(b, b.Schema).ExecuteRequest(context.Background(), doc, "", nil, nil)
}
