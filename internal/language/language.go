package language

import (
	"errors"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"github.com/vektah/gqlparser/v2/parser"
	"github.com/vektah/gqlparser/v2/validator"
	_ "github.com/vektah/gqlparser/v2/validator/rules"
)

// ParseQuery parses an executable document without validating it.
// Syntax errors are returned as *Error.
func ParseQuery(source string) (*QueryDocument, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// ParseSchema parses a schema document. The name shows up in error positions.
func ParseSchema(name, source string) (*SchemaDocument, error) {
	doc, err := parser.ParseSchema(&ast.Source{Name: name, Input: source})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// LoadSchema merges and validates the given sources on top of the GraphQL
// prelude (built-in scalars, directives and introspection types).
func LoadSchema(sources ...*Source) (*Schema, error) {
	sch, err := gqlparser.LoadSchema(sources...)
	if err != nil {
		return nil, err
	}
	return sch, nil
}

// Validate checks doc against sch and annotates its fields with their
// definitions. The executor relies on those annotations.
func Validate(sch *Schema, doc *QueryDocument) ErrorList {
	return validator.Validate(sch, doc)
}

// VariableValues coerces raw JSON variables for op.
func VariableValues(sch *Schema, op *OperationDefinition, vars map[string]any) (map[string]any, error) {
	coerced, err := validator.VariableValues(sch, op, vars)
	if err != nil {
		return nil, err
	}
	return coerced, nil
}

// AsError unwraps err into a located GraphQL error when it carries one.
func AsError(err error) (*Error, bool) {
	var ge *gqlerror.Error
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
