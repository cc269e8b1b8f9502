package executor

import language "github.com/hanpama/hotgraph/internal/language"

// ErrorKind tells where an error was produced. It decides whether the error
// is shown to the client or replaced by a generic message.
type ErrorKind int

const (
	// KindInternal is an unclassified fault raised while executing.
	KindInternal ErrorKind = iota
	// KindSyntax is a query that could not be parsed.
	KindSyntax
	// KindValidation is a query that does not fit the schema or the limits.
	KindValidation
	// KindField is a structured domain message addressed to a field path.
	KindField
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindValidation:
		return "validation"
	case KindField:
		return "field"
	default:
		return "internal"
	}
}

// GraphQLError represents an error that occurred during execution
type GraphQLError struct {
	Message    string              `json:"message"`
	Locations  []language.Location `json:"locations,omitempty"`
	Path       Path                `json:"path,omitempty"`
	Extensions map[string]any      `json:"extensions,omitempty"`
	Kind       ErrorKind           `json:"-"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult represents the result of executing a GraphQL query
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// ErrorsFromList converts parser or validator errors into GraphQLErrors of
// the given kind.
func ErrorsFromList(list language.ErrorList, kind ErrorKind) []GraphQLError {
	out := make([]GraphQLError, 0, len(list))
	for _, e := range list {
		if e == nil {
			continue
		}
		ge := GraphQLError{Message: e.Message, Locations: e.Locations, Extensions: e.Extensions, Kind: kind}
		for _, pe := range e.Path {
			ge.Path = append(ge.Path, pathElementValue(pe))
		}
		out = append(out, ge)
	}
	return out
}

// ErrorFromParse converts the error returned by language.ParseQuery.
func ErrorFromParse(err error) GraphQLError {
	if ge, ok := language.AsError(err); ok {
		return GraphQLError{Message: ge.Message, Locations: ge.Locations, Kind: KindSyntax}
	}
	return GraphQLError{Message: err.Error(), Kind: KindSyntax}
}
