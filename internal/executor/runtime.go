package executor

import (
	"context"
)

// Runtime defines the host integration surface for field resolution,
// abstract type resolution and leaf-value serialization used by the Executor.
//
// General contract
//   - The Executor resolves fields depth-first in document order. Mutation
//     root fields therefore run serially.
//   - Errors returned from ResolveField are handed to the configured
//     ErrorHandler, which turns them into located GraphQL errors. If the
//     field's return type is Non-Null, the Executor propagates the null to
//     the nearest nullable ancestor.
//   - Implementations must be safe for concurrent use. One Runtime serves
//     every request executed against the same schema bundle.
//   - Implementations must not mutate source or args values.
//
// Object/field identifiers
//   - objectType is the GraphQL type name (e.g. "User").
//   - field is the GraphQL field name on that type (e.g. "posts").
//   - source is the parent object value (nil for root fields unless the
//     caller passed an initial value).
//   - args is the map of argument names to coerced Go values.
//
// A panic raised by an implementation is not recovered by the Executor.
type Runtime interface {
	// ResolveField resolves the raw value of a field. Return (nil, nil) to
	// produce a GraphQL null for nullable fields.
	ResolveField(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error)

	// ResolveType determines the concrete object type name for a value of an
	// abstract GraphQL type (interface or union).
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go
	// value. For enums, return the symbolic name as string.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// FieldFunc resolves a single field. Field providers contribute FieldFuncs
// keyed by "Type.field".
type FieldFunc func(ctx context.Context, source any, args map[string]any) (any, error)

type pathKey struct{}

// PathFromContext returns the response path of the field being resolved.
// Resolvers use it to address the errors they return.
func PathFromContext(ctx context.Context) Path {
	p, _ := ctx.Value(pathKey{}).(Path)
	return p
}

func withPath(ctx context.Context, p Path) context.Context {
	return context.WithValue(ctx, pathKey{}, p)
}
