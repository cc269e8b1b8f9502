package fielderr

import (
	"github.com/rs/zerolog"

	executor "github.com/hanpama/hotgraph/internal/executor"
)

// GenericMessage replaces internal errors in responses.
const GenericMessage = "Internal Server Error(s) while executing query"

// Classifier reports whether an error is the client's fault.
type Classifier func(executor.GraphQLError) bool

// DefaultClassifier accepts query syntax and validation errors.
func DefaultClassifier(e executor.GraphQLError) bool {
	return e.Kind == executor.KindSyntax || e.Kind == executor.KindValidation
}

// IsClientError accepts errors translated from structured domain messages
// and whatever DefaultClassifier accepts.
func IsClientError(e executor.GraphQLError) bool {
	return e.Kind == executor.KindField || DefaultClassifier(e)
}

// Process keeps the client errors of errs in order. Internal errors are
// logged and replaced by a single GenericMessage error appended at the end.
func Process(log zerolog.Logger, errs []executor.GraphQLError) []executor.GraphQLError {
	return ProcessWith(log, IsClientError, errs)
}

// ProcessWith is Process with a custom classifier.
func ProcessWith(log zerolog.Logger, isClient Classifier, errs []executor.GraphQLError) []executor.GraphQLError {
	if len(errs) == 0 {
		return errs
	}
	var out []executor.GraphQLError
	internal := 0
	for _, e := range errs {
		if isClient(e) {
			out = append(out, e)
			continue
		}
		internal++
		log.Debug().Str("path", e.Path.String()).Str("error", e.Message).Msg("internal error while executing query")
	}
	if internal > 0 {
		out = append(out, executor.GraphQLError{Message: GenericMessage, Kind: executor.KindInternal})
	}
	return out
}
