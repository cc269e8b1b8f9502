package fielderr

import (
	"context"
	"errors"

	executor "github.com/hanpama/hotgraph/internal/executor"
)

// Translator is an executor.ErrorHandler. A *FieldError anywhere in the
// error chain yields one error per message; anything else goes to
// Fallback.
type Translator struct {
	Fallback executor.ErrorHandler
}

// NewTranslator returns a Translator falling back to
// executor.DefaultErrorHandler.
func NewTranslator() *Translator {
	return &Translator{Fallback: executor.DefaultErrorHandler}
}

// Translate returns the addressed errors of err and whether err was a
// structured domain failure.
func Translate(err error) ([]PathAddressedError, bool) {
	var fe *FieldError
	if !errors.As(err, &fe) {
		return nil, false
	}
	out := make([]PathAddressedError, len(fe.Messages))
	for i, m := range fe.Messages {
		out[i] = addressed(m)
	}
	return out, true
}

func (t *Translator) HandleFieldError(ctx context.Context, path executor.Path, err error) []executor.GraphQLError {
	if addressedErrs, ok := Translate(err); ok {
		out := make([]executor.GraphQLError, len(addressedErrs))
		for i, e := range addressedErrs {
			out[i] = e.GraphQLError()
		}
		return out
	}
	fallback := t.Fallback
	if fallback == nil {
		fallback = executor.DefaultErrorHandler
	}
	return fallback.HandleFieldError(ctx, path, err)
}
