// Package fielderr turns resolver failures into GraphQL errors.
//
// A resolver reports a domain failure by returning a *FieldError carrying
// one Message per offending field. Every other error is a generic fault.
// The Translator installed as the executor's ErrorHandler addresses each
// Message at its own path; Process decides afterwards which errors the
// client may see.
package fielderr

import (
	"fmt"
	"strings"

	executor "github.com/hanpama/hotgraph/internal/executor"
)

// Message is a structured domain message. Path segments are field names
// (string) or list indices (int), root first.
type Message struct {
	Path []any
	Text string
	Code string
}

// At builds a Message addressed at path.
func At(text string, path ...any) Message {
	return Message{Path: path, Text: text}
}

// WithCode returns a copy of m carrying an error code.
func (m Message) WithCode(code string) Message {
	m.Code = code
	return m
}

// FieldError is a domain failure carrying one or more messages.
type FieldError struct {
	Messages []Message
}

// New returns a FieldError for msgs.
func New(msgs ...Message) *FieldError {
	return &FieldError{Messages: msgs}
}

func (e *FieldError) Error() string {
	texts := make([]string, len(e.Messages))
	for i, m := range e.Messages {
		texts[i] = m.Text
	}
	return strings.Join(texts, "; ")
}

// PathAddressedError is one message placed at a response path.
type PathAddressedError struct {
	Path       executor.Path
	Message    string
	Extensions map[string]any
}

func (e PathAddressedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// GraphQLError converts e into a client visible executor error.
func (e PathAddressedError) GraphQLError() executor.GraphQLError {
	return executor.GraphQLError{
		Message:    e.Message,
		Path:       e.Path,
		Extensions: e.Extensions,
		Kind:       executor.KindField,
	}
}

func addressed(m Message) PathAddressedError {
	path := make(executor.Path, 0, len(m.Path))
	for _, seg := range m.Path {
		path = append(path, segment(seg))
	}
	out := PathAddressedError{Path: path, Message: m.Text}
	if m.Code != "" {
		out.Extensions = map[string]any{"code": m.Code}
	}
	return out
}

// segment normalizes numeric segments to int so paths built from decoded
// JSON compare equal to paths built by the executor.
func segment(seg any) executor.PathElement {
	switch v := seg.(type) {
	case string:
		return v
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case uint:
		return int(v)
	case float64:
		return int(v)
	default:
		return fmt.Sprint(v)
	}
}
