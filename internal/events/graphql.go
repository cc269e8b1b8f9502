package events

import "time"

// GraphQLStart is emitted before executing one operation of a request.
type GraphQLStart struct {
	BundleID      string
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing one operation. Errors are the
// errors before client/internal classification.
type GraphQLFinish struct {
	BundleID       string
	Query          string
	OperationName  string
	OperationType  string
	Errors         []error
	InternalErrors int
	Duration       time.Duration
}
