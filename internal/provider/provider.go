// Package provider defines field providers, the units that contribute
// types and root fields to the served schema.
package provider

import (
	"context"
	"sort"

	executor "github.com/hanpama/hotgraph/internal/executor"
)

// FieldProvider contributes a slice of the schema.
//
// SDL may declare types and "extend type Query" or "extend type Mutation"
// blocks. Resolvers are keyed "Type.field". Fields without a resolver read
// the field name from a map[string]any source.
type FieldProvider interface {
	FieldType() string
	SDL() string
	Resolvers() map[string]executor.FieldFunc
	ErrorCodes() []string
}

// Binder receives provider lifecycle changes.
type Binder interface {
	Bind(p FieldProvider)
	Unbind(p FieldProvider)
}

// Func is a FieldProvider implemented in Go.
type Func struct {
	Type   string
	Schema string
	Fields map[string]executor.FieldFunc
	Codes  []string
}

func (f *Func) FieldType() string                        { return f.Type }
func (f *Func) SDL() string                              { return f.Schema }
func (f *Func) Resolvers() map[string]executor.FieldFunc { return f.Fields }
func (f *Func) ErrorCodes() []string                     { return f.Codes }

// Value returns a FieldFunc that always resolves to v.
func Value(v any) executor.FieldFunc {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

// SortedTypes returns the field types of ps in ascending order.
func SortedTypes(ps []FieldProvider) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.FieldType())
	}
	sort.Strings(out)
	return out
}
