package refresh

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	schema "github.com/hanpama/hotgraph/internal/schema"
)

func TestRegistry_ServesUntilSuccessorActivated(t *testing.T) {
	r := NewRegistry()
	require.Nil(t, r.Current())

	a := &schema.Bundle{ID: "a"}
	b := &schema.Bundle{ID: "b"}
	require.NoError(t, r.Activate(a))

	r.Deactivate(a)
	require.Same(t, a, r.Current())
	require.Nil(t, r.Active())

	require.NoError(t, r.Activate(b))
	require.Same(t, b, r.Current())
}

func TestRegistry_RejectsSecondActiveBundle(t *testing.T) {
	r := NewRegistry()
	a := &schema.Bundle{ID: "a"}
	require.NoError(t, r.Activate(a))
	require.ErrorIs(t, r.Activate(&schema.Bundle{ID: "b"}), ErrAlreadyActive)
	require.NoError(t, r.Activate(a), "re-activating the active bundle is allowed")

	r.Deactivate(&schema.Bundle{ID: "other"})
	require.Same(t, a, r.Active(), "deactivating a foreign bundle is a no-op")
}

func TestRegistry_Close(t *testing.T) {
	r := NewRegistry()
	a := &schema.Bundle{ID: "a"}
	require.NoError(t, r.Activate(a))
	r.Close()
	r.Deactivate(a)
	require.ErrorIs(t, r.Activate(&schema.Bundle{ID: "b"}), ErrRegistryClosed)
	require.Same(t, a, r.Current())
}

func TestRegistry_ReadersNeverSeeNil(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Activate(&schema.Bundle{ID: "0"}))

	var stop atomic.Bool
	var sawNil atomic.Bool
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !stop.Load() {
				if r.Current() == nil {
					sawNil.Store(true)
				}
			}
		}()
	}
	prev := r.Current()
	for i := 0; i < 1000; i++ {
		next := &schema.Bundle{ID: "n"}
		r.Deactivate(prev)
		require.NoError(t, r.Activate(next))
		prev = next
	}
	stop.Store(true)
	wg.Wait()
	require.False(t, sawNil.Load())
}
