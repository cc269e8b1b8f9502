package executor

import "context"

// ErrorHandler converts the error returned by a field resolver into zero or
// more GraphQL errors. path is the response path of the failing field.
type ErrorHandler interface {
	HandleFieldError(ctx context.Context, path Path, err error) []GraphQLError
}

// ErrorHandlerFunc adapts a function to ErrorHandler.
type ErrorHandlerFunc func(ctx context.Context, path Path, err error) []GraphQLError

func (f ErrorHandlerFunc) HandleFieldError(ctx context.Context, path Path, err error) []GraphQLError {
	return f(ctx, path, err)
}

// DefaultErrorHandler reports err as a single internal error at path.
var DefaultErrorHandler ErrorHandler = ErrorHandlerFunc(func(_ context.Context, path Path, err error) []GraphQLError {
	return []GraphQLError{{
		Message: "Exception while fetching data (" + path.String() + ") : " + err.Error(),
		Path:    path,
		Kind:    KindInternal,
	}}
})
