package refresh

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	executor "github.com/hanpama/hotgraph/internal/executor"
	provider "github.com/hanpama/hotgraph/internal/provider"
	schema "github.com/hanpama/hotgraph/internal/schema"
)

var errBuild = errors.New("build failed")

// countingBuilder wraps schema.Builder and records how builds overlap.
type countingBuilder struct {
	inner *schema.Builder
	delay time.Duration
	fail  atomic.Bool

	calls      atomic.Int32
	running    atomic.Int32
	maxRunning atomic.Int32
}

func newCountingBuilder() *countingBuilder {
	return &countingBuilder{inner: schema.NewBuilder(zerolog.Nop())}
}

func (b *countingBuilder) Build(ctx context.Context, ps []provider.FieldProvider) (*schema.Bundle, error) {
	b.calls.Add(1)
	n := b.running.Add(1)
	defer b.running.Add(-1)
	for {
		max := b.maxRunning.Load()
		if n <= max || b.maxRunning.CompareAndSwap(max, n) {
			break
		}
	}
	if b.delay > 0 {
		time.Sleep(b.delay)
	}
	if b.fail.Load() {
		return nil, errBuild
	}
	return b.inner.Build(ctx, ps)
}

func fieldProvider(name string) *provider.Func {
	return &provider.Func{
		Type:   name,
		Schema: "extend type Query { " + name + ": String }",
		Fields: map[string]executor.FieldFunc{"Query." + name: provider.Value(name)},
	}
}

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// manual returns a coordinator without a sweep goroutine, driven by a
// fake clock.
func manual(b SchemaBuilder, r ActiveBundleRegistry, ps []provider.FieldProvider, opts ...Option) (*Coordinator, *FakeClock) {
	clk := NewFakeClock(epoch)
	opts = append([]Option{WithClock(clk), WithSweepInterval(0), WithWindow(time.Second)}, opts...)
	return New(b, r, ps, opts...), clk
}
