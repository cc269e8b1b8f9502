package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the GraphQL endpoint receives a request.
// Context carries the request context.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler completes. Operations is the
// number of operations dispatched, zero when admission rejected the request.
type HTTPFinish struct {
	Request    *http.Request
	Status     int
	Batch      bool
	Operations int
	Duration   time.Duration
}

// AdmissionRejected is emitted when a request is rejected before dispatch.
type AdmissionRejected struct {
	Kind   string
	Status int
}
