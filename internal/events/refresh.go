package events

import "time"

// RefreshTriggered is emitted for every refresh trigger, coalesced or not.
type RefreshTriggered struct {
	Reason string
}

// RebuildStart is emitted when a schema rebuild begins.
type RebuildStart struct {
	Reason    string
	Providers int
}

// RebuildFinish is emitted when a schema rebuild ends. On failure Err is
// set and the previously active bundle keeps serving.
type RebuildFinish struct {
	Reason     string
	BundleID   string
	Generation uint64
	Providers  int
	Err        error
	Duration   time.Duration
}
