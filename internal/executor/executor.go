package executor

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	language "github.com/hanpama/hotgraph/internal/language"
)

// Path is a response path, root first. Elements are field response names
// (string) or list indices (int).
type Path []PathElement

type PathElement any

// String renders p as "/a/b[1]/c".
func (p Path) String() string {
	var b strings.Builder
	for _, elem := range p {
		switch v := elem.(type) {
		case int:
			b.WriteString("[" + strconv.Itoa(v) + "]")
		default:
			b.WriteString("/" + fmt.Sprint(v))
		}
	}
	if b.Len() == 0 {
		return "/"
	}
	return b.String()
}

const (
	DefaultMaxDepth      = 100
	DefaultMaxComplexity = 1000
)

// Options configures an Executor. Zero limits disable the check.
type Options struct {
	MaxDepth      int
	MaxComplexity int
	ErrorHandler  ErrorHandler
}

type Option func(*Options)

func WithMaxDepth(n int) Option              { return func(o *Options) { o.MaxDepth = n } }
func WithMaxComplexity(n int) Option         { return func(o *Options) { o.MaxComplexity = n } }
func WithErrorHandler(h ErrorHandler) Option { return func(o *Options) { o.ErrorHandler = h } }
func WithOptions(opt Options) Option         { return func(o *Options) { *o = opt } }

// executionState holds the state during query execution
type executionState struct {
	runtime        Runtime
	schema         *language.Schema
	document       *language.QueryDocument
	variableValues map[string]any
	context        context.Context
	errorHandler   ErrorHandler
	errors         []GraphQLError
}

// Executor runs validated operations against one schema and runtime.
type Executor struct {
	runtime Runtime
	schema  *language.Schema
	opt     Options
}

func NewExecutor(runtime Runtime, schema *language.Schema, opts ...Option) *Executor {
	op := Options{MaxDepth: DefaultMaxDepth, MaxComplexity: DefaultMaxComplexity}
	for _, f := range opts {
		f(&op)
	}
	if op.ErrorHandler == nil {
		op.ErrorHandler = DefaultErrorHandler
	}
	return &Executor{runtime: runtime, schema: schema, opt: op}
}

// ExecuteRequest executes one operation of a document that has already been
// validated with language.Validate against the executor's schema.
func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := document.Operations.ForName(operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found", Kind: KindValidation}}}
	}

	if errs := e.checkLimits(document, operation); len(errs) > 0 {
		return &ExecutionResult{Errors: errs}
	}

	coercedVariableValues, err := language.VariableValues(e.schema, operation, variableValues)
	if err != nil {
		ge := GraphQLError{Message: err.Error(), Kind: KindValidation}
		if le, ok := language.AsError(err); ok {
			ge.Message = le.Message
			ge.Locations = le.Locations
		}
		return &ExecutionResult{Errors: []GraphQLError{ge}}
	}

	var rootType *language.Definition
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.Query
	case language.Mutation:
		rootType = e.schema.Mutation
	case language.Subscription:
		return &ExecutionResult{Errors: []GraphQLError{{Message: "subscriptions are not supported", Kind: KindValidation}}}
	}
	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation), Kind: KindValidation}}}
	}

	state := &executionState{
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		variableValues: coercedVariableValues,
		context:        ctx,
		errorHandler:   e.opt.ErrorHandler,
	}

	data := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{})
	if data == nil {
		return &ExecutionResult{Data: nil, Errors: state.errors}
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// executeSelectionSet returns nil when a Non-Null field resolved to null, so
// the caller can propagate the null upward.
func executeSelectionSet(state *executionState, objectType *language.Definition, selectionSet language.SelectionSet, objectValue any, path Path) map[string]any {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any, len(groupedFields.orderedFields()))

	for _, collectedField := range groupedFields.orderedFields() {
		responseName := collectedField.ResponseName
		fields := collectedField.Fields
		fieldPath := appendPath(path, responseName)

		fieldDef := getFieldDefinition(objectType, fields[0])
		fieldResult := executeField(state, objectType, fieldDef, objectValue, fields, fieldPath)

		if fields[0].Name == "__typename" {
			resultMap[responseName] = fieldResult
			continue
		}
		if fieldDef == nil {
			continue
		}

		if fieldDef.Type.NonNull && isNullish(fieldResult) {
			return nil
		}
		if isNullish(fieldResult) {
			resultMap[responseName] = nil
		} else {
			resultMap[responseName] = fieldResult
		}
	}

	return resultMap
}

func executeField(state *executionState, objectType *language.Definition, fieldDef *language.FieldDefinition, objectValue any, fields []*language.Field, path Path) any {
	field := fields[0]
	if field.Name == "__typename" {
		return objectType.Name
	}
	if fieldDef == nil {
		state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", field.Name, objectType.Name), path, KindValidation)
		return nil
	}

	args := field.ArgumentMap(state.variableValues)
	ctx := withPath(state.context, path)
	value, err := state.runtime.ResolveField(ctx, objectType.Name, field.Name, objectValue, args)
	if err != nil {
		state.errors = append(state.errors, state.errorHandler.HandleFieldError(ctx, path, err)...)
		return nil
	}
	return completeValue(state, fieldDef.Type, fields, value, path)
}

func completeValue(state *executionState, fieldType *language.Type, fields []*language.Field, result any, path Path) any {
	if fieldType.NonNull {
		if isNullish(result) {
			if !state.hasErrorAtPath(path) {
				state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path.String()), path, KindInternal)
			}
			return nil
		}
		inner := *fieldType
		inner.NonNull = false
		completed := completeValue(state, &inner, fields, result, path)
		if isNullish(completed) {
			// error already recorded at the failing path
			return nil
		}
		return completed
	}

	if isNullish(result) {
		return nil
	}

	if fieldType.Elem != nil {
		return completeListValue(state, fieldType, fields, result, path)
	}

	typeDef := state.schema.Types[fieldType.NamedType]
	if typeDef == nil {
		state.addError(fmt.Sprintf("Unknown type: %s", fieldType.NamedType), path, KindInternal)
		return nil
	}

	switch typeDef.Kind {
	case language.Scalar, language.Enum:
		serialized, err := state.runtime.SerializeLeafValue(state.context, typeDef.Name, result)
		if err != nil {
			state.addError(err.Error(), path, KindInternal)
			return nil
		}
		return serialized
	case language.Object:
		return completeObjectValue(state, typeDef, fields, result, path)
	case language.Interface, language.Union:
		return completeAbstractValue(state, typeDef, fields, result, path)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeDef.Kind), path, KindInternal)
		return nil
	}
}

func completeListValue(state *executionState, listType *language.Type, fields []*language.Field, result any, path Path) any {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path, KindInternal)
			return nil
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := listType.Elem
	completed := make([]any, len(items))
	for i, item := range items {
		v := completeValue(state, inner, fields, item, appendPath(path, i))
		if inner.NonNull && isNullish(v) {
			return nil
		}
		completed[i] = v
	}
	return completed
}

func completeObjectValue(state *executionState, objectType *language.Definition, fields []*language.Field, result any, path Path) any {
	sub := mergeSelectionSets(fields)
	obj := executeSelectionSet(state, objectType, sub, result, path)
	if obj == nil {
		return nil
	}
	return obj
}

func completeAbstractValue(state *executionState, abstractType *language.Definition, fields []*language.Field, result any, path Path) any {
	typeName, err := state.runtime.ResolveType(state.context, abstractType.Name, result)
	if err != nil {
		state.addError(err.Error(), path, KindInternal)
		return nil
	}
	objectType := state.schema.Types[typeName]
	if objectType == nil || objectType.Kind != language.Object || !possibleType(state.schema, abstractType, objectType) {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType.Name, typeName), path, KindInternal)
		return nil
	}
	return completeObjectValue(state, objectType, fields, result, path)
}

func possibleType(sch *language.Schema, abstractType, objectType *language.Definition) bool {
	for _, t := range sch.GetPossibleTypes(abstractType) {
		if t.Name == objectType.Name {
			return true
		}
	}
	return false
}

func appendPath(path Path, elem PathElement) Path {
	newPath := make(Path, len(path)+1)
	copy(newPath, path)
	newPath[len(path)] = elem
	return newPath
}

func pathElementValue(pe language.PathElement) PathElement {
	switch v := pe.(type) {
	case language.PathIndex:
		return int(v)
	case language.PathName:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (state *executionState) addError(message string, path Path, kind ErrorKind) {
	state.errors = append(state.errors, GraphQLError{Message: message, Path: path, Kind: kind})
}

// hasErrorAtPath reports whether an error with the given path already exists.
func (state *executionState) hasErrorAtPath(path Path) bool {
	for _, err := range state.errors {
		if reflect.DeepEqual(err.Path, path) {
			return true
		}
	}
	return false
}

// mergeSelectionSets merges selection sets from multiple fields
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
