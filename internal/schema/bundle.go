// Package schema merges field providers into executable schema bundles.
package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	executor "github.com/hanpama/hotgraph/internal/executor"
	language "github.com/hanpama/hotgraph/internal/language"
)

// Bundle is one immutable build of the served schema: the merged type
// system plus the resolvers of the providers it was built from. A Bundle
// is safe for concurrent use and implements executor.Runtime.
type Bundle struct {
	ID         string
	Generation uint64

	Schema *language.Schema

	// QueryFields and MutationFields are the root field names in
	// declaration order.
	QueryFields    []string
	MutationFields []string

	// FieldTypes are the field types of the providers, sorted.
	FieldTypes []string
	ErrorCodes []string

	resolvers map[string]executor.FieldFunc
}

var _ executor.Runtime = (*Bundle)(nil)

// HasResolver reports whether key ("Type.field") has a resolver.
func (b *Bundle) HasResolver(key string) bool {
	_, ok := b.resolvers[key]
	return ok
}

func (b *Bundle) ResolveField(ctx context.Context, objectType string, field string, source any, args map[string]any) (any, error) {
	if r := b.resolvers[objectType+"."+field]; r != nil {
		return r(ctx, source, args)
	}
	if src, ok := source.(map[string]any); ok {
		return src[field], nil
	}
	return nil, nil
}

// TypeNamer is implemented by resolver results of abstract types.
type TypeNamer interface {
	GraphQLTypeName() string
}

func (b *Bundle) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	switch v := value.(type) {
	case TypeNamer:
		return v.GraphQLTypeName(), nil
	case map[string]any:
		if name, ok := v["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve concrete type of %s from %T", abstractType, value)
}

func (b *Bundle) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		return serializeFloat(value)
	case "String":
		return serializeString(value)
	case "Boolean":
		if v, ok := value.(bool); ok {
			return v, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent %T", value)
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case int, int32, int64:
			return fmt.Sprint(v), nil
		}
		return nil, fmt.Errorf("ID cannot represent %T", value)
	}
	def := b.Schema.Types[typeName]
	if def != nil && def.Kind == language.Enum {
		s, err := serializeString(value)
		if err != nil {
			return nil, err
		}
		if def.EnumValues.ForName(s.(string)) == nil {
			return nil, fmt.Errorf("%s cannot represent value %q", typeName, s)
		}
		return s, nil
	}
	// custom scalars pass through
	return value, nil
}

func serializeInt(value any) (any, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint32:
		n = int64(v)
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("Int cannot represent non-integer value %v", v)
		}
		n = int64(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil, fmt.Errorf("Int cannot represent %q", v)
		}
		n = i
	default:
		return nil, fmt.Errorf("Int cannot represent %T", value)
	}
	if n > math.MaxInt32 || n < math.MinInt32 {
		return nil, fmt.Errorf("Int cannot represent non 32-bit signed integer value %d", n)
	}
	return int(n), nil
}

func serializeFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		return v.Float64()
	}
	return nil, fmt.Errorf("Float cannot represent %T", value)
}

func serializeString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	case int:
		return strconv.Itoa(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return nil, fmt.Errorf("String cannot represent %T", value)
}
