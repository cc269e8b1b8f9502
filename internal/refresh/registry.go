package refresh

import (
	"errors"
	"fmt"
	"sync"

	schema "github.com/hanpama/hotgraph/internal/schema"
)

// ActiveBundleRegistry publishes schema bundles to the request path.
// The coordinator always deactivates the current bundle before activating
// its successor.
type ActiveBundleRegistry interface {
	Activate(b *schema.Bundle) error
	Deactivate(b *schema.Bundle)
}

var (
	ErrRegistryClosed = errors.New("bundle registry closed")
	ErrAlreadyActive  = errors.New("another bundle is active")
)

// Registry is the in-process ActiveBundleRegistry. Current keeps returning
// a deactivated bundle until its successor is activated, so readers see
// exactly one bundle once the first one was activated.
type Registry struct {
	mu     sync.RWMutex
	active *schema.Bundle
	served *schema.Bundle
	closed bool
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Activate(b *schema.Bundle) error {
	if b == nil {
		return errors.New("activate nil bundle")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if r.active != nil && r.active != b {
		return fmt.Errorf("activate %s: %w: %s", b.ID, ErrAlreadyActive, r.active.ID)
	}
	r.active = b
	r.served = b
	return nil
}

func (r *Registry) Deactivate(b *schema.Bundle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if b == nil || r.active != b {
		return
	}
	r.active = nil
}

// Current returns the bundle requests should run against, or nil before
// the first activation.
func (r *Registry) Current() *schema.Bundle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.served
}

// Active returns the activated bundle. It is nil between a Deactivate and
// the following Activate.
func (r *Registry) Active() *schema.Bundle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

// Close rejects further activations. The served bundle stays readable.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}
