// Package introspection answers the __schema and __type root fields and the
// fields of the introspection types for a loaded schema.
package introspection

import (
	"context"
	"sort"

	executor "github.com/hanpama/hotgraph/internal/executor"
	language "github.com/hanpama/hotgraph/internal/language"
)

// Wrap returns a Runtime that resolves introspection fields against sch and
// delegates everything else to base. The introspection types themselves
// come with the schema prelude.
func Wrap(base executor.Runtime, sch *language.Schema) executor.Runtime {
	return &runtime{base: base, schema: sch}
}

type runtime struct {
	base   executor.Runtime
	schema *language.Schema
}

// wrappedType is a LIST or NON_NULL type reference. Named references are
// resolved to their *language.Definition.
type wrappedType struct {
	kind   string
	ofType *language.Type
}

// inputValue unifies argument and input field definitions.
type inputValue struct {
	name        string
	description string
	typ         *language.Type
	def         *language.Value
	directives  language.DirectiveList
}

func (r *runtime) ResolveField(ctx context.Context, objectType, field string, source any, args map[string]any) (any, error) {
	switch src := source.(type) {
	case *language.Schema:
		if v, ok := r.resolveSchemaField(src, field); ok {
			return v, nil
		}
	case *language.Definition:
		if v, ok := r.resolveTypeField(src, field, args); ok {
			return v, nil
		}
	case *wrappedType:
		if v, ok := r.resolveWrappedField(src, field); ok {
			return v, nil
		}
	case *language.FieldDefinition:
		if v, ok := r.resolveFieldField(src, field, args); ok {
			return v, nil
		}
	case *inputValue:
		if v, ok := r.resolveInputValueField(src, field); ok {
			return v, nil
		}
	case *language.EnumValueDefinition:
		if v, ok := resolveEnumValueField(src, field); ok {
			return v, nil
		}
	case *language.DirectiveDefinition:
		if v, ok := r.resolveDirectiveField(src, field, args); ok {
			return v, nil
		}
	}

	if r.schema.Query != nil && objectType == r.schema.Query.Name {
		switch field {
		case "__schema":
			return r.schema, nil
		case "__type":
			name, _ := args["name"].(string)
			if def := r.schema.Types[name]; def != nil {
				return def, nil
			}
			return nil, nil
		}
	}

	return r.base.ResolveField(ctx, objectType, field, source, args)
}

func (r *runtime) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, abstractType, value)
}

func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	switch typ {
	case "__TypeKind", "__DirectiveLocation":
		return value, nil
	}
	if s, ok := value.(*string); ok {
		value = *s
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

// --- __Schema ---

func (r *runtime) resolveSchemaField(sch *language.Schema, field string) (any, bool) {
	switch field {
	case "description":
		return optString(sch.Description), true
	case "types":
		out := make([]*language.Definition, 0, len(sch.Types))
		for _, t := range sch.Types {
			out = append(out, t)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, true
	case "queryType":
		return sch.Query, true
	case "mutationType":
		return sch.Mutation, true
	case "subscriptionType":
		return sch.Subscription, true
	case "directives":
		out := make([]*language.DirectiveDefinition, 0, len(sch.Directives))
		for _, d := range sch.Directives {
			out = append(out, d)
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
		return out, true
	}
	return nil, false
}

// --- __Type ---

func (r *runtime) resolveTypeField(t *language.Definition, field string, args map[string]any) (any, bool) {
	switch field {
	case "kind":
		return string(t.Kind), true
	case "name":
		return t.Name, true
	case "description":
		return optString(t.Description), true
	case "specifiedByURL":
		if d := t.Directives.ForName("specifiedBy"); d != nil {
			if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
				return arg.Value.Raw, true
			}
		}
		return nil, true
	case "fields":
		if t.Kind != language.Object && t.Kind != language.Interface {
			return nil, true
		}
		includeDeprecated := boolArg(args, "includeDeprecated", false)
		out := []*language.FieldDefinition{}
		for _, f := range t.Fields {
			if len(f.Name) > 1 && f.Name[:2] == "__" {
				continue
			}
			if !includeDeprecated && isDeprecated(f.Directives) {
				continue
			}
			out = append(out, f)
		}
		return out, true
	case "interfaces":
		if t.Kind != language.Object && t.Kind != language.Interface {
			return nil, true
		}
		out := []*language.Definition{}
		for _, name := range t.Interfaces {
			if def := r.schema.Types[name]; def != nil {
				out = append(out, def)
			}
		}
		return out, true
	case "possibleTypes":
		if t.Kind != language.Interface && t.Kind != language.Union {
			return nil, true
		}
		pts := append([]*language.Definition(nil), r.schema.GetPossibleTypes(t)...)
		sort.Slice(pts, func(i, j int) bool { return pts[i].Name < pts[j].Name })
		return pts, true
	case "enumValues":
		if t.Kind != language.Enum {
			return nil, true
		}
		includeDeprecated := boolArg(args, "includeDeprecated", false)
		out := []*language.EnumValueDefinition{}
		for _, ev := range t.EnumValues {
			if !includeDeprecated && isDeprecated(ev.Directives) {
				continue
			}
			out = append(out, ev)
		}
		return out, true
	case "inputFields":
		if t.Kind != language.InputObject {
			return nil, true
		}
		includeDeprecated := boolArg(args, "includeDeprecated", false)
		out := []*inputValue{}
		for _, f := range t.Fields {
			if !includeDeprecated && isDeprecated(f.Directives) {
				continue
			}
			out = append(out, &inputValue{name: f.Name, description: f.Description, typ: f.Type, def: f.DefaultValue, directives: f.Directives})
		}
		return out, true
	case "isOneOf":
		return t.Kind == language.InputObject && t.Directives.ForName("oneOf") != nil, true
	case "ofType":
		return nil, true
	}
	return nil, false
}

// typeRef converts a type reference into a __Type source.
func (r *runtime) typeRef(t *language.Type) any {
	if t == nil {
		return nil
	}
	if t.NonNull {
		inner := *t
		inner.NonNull = false
		return &wrappedType{kind: "NON_NULL", ofType: &inner}
	}
	if t.Elem != nil {
		return &wrappedType{kind: "LIST", ofType: t.Elem}
	}
	if def := r.schema.Types[t.NamedType]; def != nil {
		return def
	}
	return nil
}

func (r *runtime) resolveWrappedField(t *wrappedType, field string) (any, bool) {
	switch field {
	case "kind":
		return t.kind, true
	case "ofType":
		return r.typeRef(t.ofType), true
	case "fields", "interfaces", "possibleTypes", "enumValues", "inputFields",
		"name", "description", "specifiedByURL":
		return nil, true
	case "isOneOf":
		return false, true
	}
	return nil, false
}

// --- __Field ---

func (r *runtime) resolveFieldField(f *language.FieldDefinition, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return f.Name, true
	case "description":
		return optString(f.Description), true
	case "args":
		return arguments(f.Arguments, args), true
	case "type":
		return r.typeRef(f.Type), true
	case "isDeprecated":
		return isDeprecated(f.Directives), true
	case "deprecationReason":
		return deprecationReason(f.Directives), true
	}
	return nil, false
}

func arguments(list language.ArgumentDefinitionList, args map[string]any) []*inputValue {
	includeDeprecated := boolArg(args, "includeDeprecated", false)
	out := []*inputValue{}
	for _, a := range list {
		if !includeDeprecated && isDeprecated(a.Directives) {
			continue
		}
		out = append(out, &inputValue{name: a.Name, description: a.Description, typ: a.Type, def: a.DefaultValue, directives: a.Directives})
	}
	return out
}

// --- __InputValue ---

func (r *runtime) resolveInputValueField(a *inputValue, field string) (any, bool) {
	switch field {
	case "name":
		return a.name, true
	case "description":
		return optString(a.description), true
	case "type":
		return r.typeRef(a.typ), true
	case "defaultValue":
		if a.def == nil {
			return nil, true
		}
		return a.def.String(), true
	case "isDeprecated":
		return isDeprecated(a.directives), true
	case "deprecationReason":
		return deprecationReason(a.directives), true
	}
	return nil, false
}

// --- __EnumValue ---

func resolveEnumValueField(ev *language.EnumValueDefinition, field string) (any, bool) {
	switch field {
	case "name":
		return ev.Name, true
	case "description":
		return optString(ev.Description), true
	case "isDeprecated":
		return isDeprecated(ev.Directives), true
	case "deprecationReason":
		return deprecationReason(ev.Directives), true
	}
	return nil, false
}

// --- __Directive ---

func (r *runtime) resolveDirectiveField(d *language.DirectiveDefinition, field string, args map[string]any) (any, bool) {
	switch field {
	case "name":
		return d.Name, true
	case "description":
		return optString(d.Description), true
	case "isRepeatable":
		return d.IsRepeatable, true
	case "locations":
		locs := make([]string, len(d.Locations))
		for i, l := range d.Locations {
			locs[i] = string(l)
		}
		return locs, true
	case "args":
		return arguments(d.Arguments, args), true
	}
	return nil, false
}

// --- helpers ---

func isDeprecated(list language.DirectiveList) bool {
	return list.ForName("deprecated") != nil
}

func deprecationReason(list language.DirectiveList) *string {
	d := list.ForName("deprecated")
	if d == nil {
		return nil
	}
	reason := "No longer supported"
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		reason = arg.Value.Raw
	}
	return &reason
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func boolArg(args map[string]any, name string, def bool) bool {
	if v, ok := args[name].(bool); ok {
		return v
	}
	return def
}
