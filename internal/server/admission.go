package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultMaxRequestBytes = 1_000_000
	DefaultMaxBatchSize    = 10
)

// AdmissionKind tells why a request was rejected before dispatch.
type AdmissionKind int

const (
	MissingLength AdmissionKind = iota + 1
	InvalidLength
	PayloadTooLarge
	BatchTooLarge
	MalformedPayload
	UnsupportedMediaType
)

func (k AdmissionKind) String() string {
	switch k {
	case MissingLength:
		return "missing_length"
	case InvalidLength:
		return "invalid_length"
	case PayloadTooLarge:
		return "payload_too_large"
	case BatchTooLarge:
		return "batch_too_large"
	case MalformedPayload:
		return "malformed_payload"
	case UnsupportedMediaType:
		return "unsupported_media_type"
	default:
		return "unknown"
	}
}

// AdmissionError rejects a whole request. Message is written verbatim as
// the response body.
type AdmissionError struct {
	Kind    AdmissionKind
	Status  int
	Message string
}

func (e *AdmissionError) Error() string { return e.Message }

func lengthMessage(limit int64) string {
	return fmt.Sprintf("Invalid Content-Length header value. The Content-Length must be an integer less than or equal to %d bytes", limit)
}

// CheckContentLength validates the raw Content-Length header against limit
// and returns the declared length.
func CheckContentLength(header string, limit int64) (int64, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0, &AdmissionError{Kind: MissingLength, Status: http.StatusLengthRequired, Message: "Content-Length header is required."}
	}
	n, err := strconv.ParseInt(header, 10, 64)
	if err != nil || n < 0 {
		return 0, &AdmissionError{Kind: InvalidLength, Status: http.StatusBadRequest, Message: lengthMessage(limit)}
	}
	if n > limit {
		return 0, &AdmissionError{Kind: PayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Message: lengthMessage(limit)}
	}
	return n, nil
}

// Envelope is a request body split into raw operation payloads. Batch
// records whether the body was a JSON array.
type Envelope struct {
	Operations []json.RawMessage
	Batch      bool
}

func malformed(reason string) *AdmissionError {
	return &AdmissionError{Kind: MalformedPayload, Status: http.StatusBadRequest, Message: "Malformed request payload: " + reason}
}

// ParseEnvelope parses body as a single operation object or an array of
// them. An empty array is a valid batch of zero operations.
func ParseEnvelope(body []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{}, malformed("empty body")
	}
	switch trimmed[0] {
	case '[':
		var ops []json.RawMessage
		if err := json.Unmarshal(trimmed, &ops); err != nil {
			return Envelope{}, malformed(err.Error())
		}
		return Envelope{Operations: ops, Batch: true}, nil
	case '{':
		if !json.Valid(trimmed) {
			return Envelope{}, malformed("invalid JSON")
		}
		return Envelope{Operations: []json.RawMessage{json.RawMessage(trimmed)}}, nil
	default:
		return Envelope{}, malformed("expected an object or an array")
	}
}

// SplitOperations returns the operations of env in order. A batch larger
// than max is rejected; a single operation never is.
func SplitOperations(env Envelope, max int) ([]json.RawMessage, error) {
	if env.Batch && max >= 0 && len(env.Operations) > max {
		return nil, &AdmissionError{
			Kind:    BatchTooLarge,
			Status:  http.StatusTooManyRequests,
			Message: fmt.Sprintf("Invalid batch request size. The batch request size must be an integer less than or equal to %d", max),
		}
	}
	return env.Operations, nil
}

// AssembleResponse joins per-operation results with array framing for a
// batch and returns the single result unwrapped otherwise.
func AssembleResponse(results []json.RawMessage, batch bool) []byte {
	if !batch {
		if len(results) == 0 {
			return []byte("null")
		}
		return results[0]
	}
	var b bytes.Buffer
	b.WriteByte('[')
	for i, r := range results {
		if i > 0 {
			b.WriteByte(',')
		}
		b.Write(r)
	}
	b.WriteByte(']')
	return b.Bytes()
}

// GraphQLRequest is one operation payload.
type GraphQLRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
	Extensions    map[string]any `json:"extensions,omitempty"`
}

// DecodeOperations decodes every payload before any of them runs, so a
// bad element rejects the whole request.
func DecodeOperations(raws []json.RawMessage) ([]GraphQLRequest, error) {
	out := make([]GraphQLRequest, len(raws))
	for i, raw := range raws {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&out[i]); err != nil {
			return nil, malformed(fmt.Sprintf("operation %d: %v", i, err))
		}
	}
	return out, nil
}
