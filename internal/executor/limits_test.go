package executor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const nestedSchema = `
	type Query { node: Node }
	type Node { id: String, child: Node }
`

func TestMeasure(t *testing.T) {
	sch := mustLoadSchema(t, nestedSchema)
	doc := mustParseQuery(t, sch, `
		{ node { id child { ...F } } }
		fragment F on Node { id child { id } }
	`)

	depth, complexity := Measure(doc, doc.Operations[0])

	require.Equal(t, 4, depth)
	require.Equal(t, 6, complexity)
}

func TestLimits_Depth(t *testing.T) {
	sch := mustLoadSchema(t, nestedSchema)
	rt := NewMockRuntime(nil)
	exec := NewExecutor(rt, sch, WithMaxDepth(2))
	doc := mustParseQuery(t, sch, `{ node { child { id } } }`)

	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	require.Nil(t, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, KindValidation, res.Errors[0].Kind)
	require.True(t, strings.HasPrefix(res.Errors[0].Message, "maximum query depth exceeded 3 > 2"))
	require.Empty(t, rt.Calls(), "no field may resolve when the limit is exceeded")
}

func TestLimits_Complexity(t *testing.T) {
	sch := mustLoadSchema(t, nestedSchema)
	exec := NewExecutor(NewMockRuntime(nil), sch, WithMaxComplexity(2))
	doc := mustParseQuery(t, sch, `{ node { id child { id } } }`)

	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	require.Len(t, res.Errors, 1)
	require.Equal(t, "maximum query complexity exceeded 4 > 2", res.Errors[0].Message)
}

func TestLimits_DisabledWithZero(t *testing.T) {
	sch := mustLoadSchema(t, nestedSchema)
	exec := NewExecutor(NewMockRuntime(map[string]MockResolver{
		"Query.node": NewMockValueResolver(map[string]any{"id": "1"}),
	}), sch, WithMaxDepth(0), WithMaxComplexity(0))
	doc := mustParseQuery(t, sch, `{ node { id child { child { child { id } } } } }`)

	res := exec.ExecuteRequest(context.Background(), doc, "", nil, nil)

	require.Empty(t, res.Errors)
}

func TestPathString(t *testing.T) {
	require.Equal(t, "/", Path{}.String())
	require.Equal(t, "/a/b[1]/c", Path{"a", "b", 1, "c"}.String())
}
