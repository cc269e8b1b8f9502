// Package refresh coalesces bursts of provider changes into single,
// serialized schema rebuilds and publishes the result.
package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	eventbus "github.com/hanpama/hotgraph/internal/eventbus"
	events "github.com/hanpama/hotgraph/internal/events"
	provider "github.com/hanpama/hotgraph/internal/provider"
	schema "github.com/hanpama/hotgraph/internal/schema"
)

// SchemaBuilder materializes a bundle from the current providers.
type SchemaBuilder interface {
	Build(ctx context.Context, providers []provider.FieldProvider) (*schema.Bundle, error)
}

const (
	DefaultWindow        = time.Second
	DefaultSweepInterval = time.Second
)

type Options struct {
	// Window is the quiet period after the last trigger before a rebuild.
	Window time.Duration

	// MaxDelay bounds how long a steady stream of triggers can postpone a
	// rebuild. 0 means unbounded.
	MaxDelay time.Duration

	// SweepInterval is the period of the background sweep. 0 disables the
	// sweep goroutine; Sweep must then be called by the owner.
	SweepInterval time.Duration

	// RebuildTimeout bounds each rebuild started by the sweep. 0 means none.
	RebuildTimeout time.Duration

	Clock  Clock
	Logger zerolog.Logger
}

type Option func(*Options)

func WithWindow(d time.Duration) Option         { return func(o *Options) { o.Window = d } }
func WithMaxDelay(d time.Duration) Option       { return func(o *Options) { o.MaxDelay = d } }
func WithSweepInterval(d time.Duration) Option  { return func(o *Options) { o.SweepInterval = d } }
func WithRebuildTimeout(d time.Duration) Option { return func(o *Options) { o.RebuildTimeout = d } }
func WithClock(c Clock) Option                  { return func(o *Options) { o.Clock = c } }
func WithLogger(l zerolog.Logger) Option        { return func(o *Options) { o.Logger = l } }

// Coordinator owns the provider collection and the active bundle.
//
// Trigger, Bind and Unbind never block on a rebuild. Rebuilds are
// serialized: concurrent callers queue on the rebuild mutex.
type Coordinator struct {
	builder  SchemaBuilder
	registry ActiveBundleRegistry
	opt      Options
	logger   zerolog.Logger
	store    *triggerStore

	mu        sync.Mutex
	providers []provider.FieldProvider

	rebuildMu sync.Mutex
	active    *schema.Bundle

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New returns a running Coordinator. When providers is non-empty a
// refresh is triggered right away.
func New(builder SchemaBuilder, registry ActiveBundleRegistry, providers []provider.FieldProvider, opts ...Option) *Coordinator {
	op := Options{
		Window:        DefaultWindow,
		SweepInterval: DefaultSweepInterval,
		Clock:         RealClock{},
		Logger:        zerolog.Nop(),
	}
	for _, f := range opts {
		f(&op)
	}
	c := &Coordinator{
		builder:   builder,
		registry:  registry,
		opt:       op,
		logger:    op.Logger.With().Str("component", "refresh").Logger(),
		store:     &triggerStore{window: op.Window, maxDelay: op.MaxDelay},
		providers: append([]provider.FieldProvider(nil), providers...),
		stopCh:    make(chan struct{}),
	}
	if len(c.providers) > 0 {
		c.Trigger(fmt.Sprintf("starting with %d field providers", len(c.providers)))
	}
	if op.SweepInterval > 0 {
		c.wg.Add(1)
		go c.sweepLoop()
	}
	return c
}

// Trigger marks a refresh as pending. reason is diagnostic only.
func (c *Coordinator) Trigger(reason string) {
	c.store.mark(c.opt.Clock.Now(), reason)
	c.logger.Trace().Str("reason", reason).Msg("refresh triggered")
	eventbus.Publish(context.Background(), events.RefreshTriggered{Reason: reason})
}

// HandleRefreshRequest is the explicit refresh lifecycle signal.
func (c *Coordinator) HandleRefreshRequest(reason string) {
	if reason == "" {
		reason = "refresh requested"
	}
	c.Trigger(reason)
}

// Bind adds p to the provider collection. Binding nil is ignored.
func (c *Coordinator) Bind(p provider.FieldProvider) {
	if p == nil {
		c.logger.Warn().Msg("ignoring nil field provider")
		return
	}
	c.mu.Lock()
	c.providers = append(c.providers, p)
	c.mu.Unlock()
	c.Trigger("binding field provider " + p.FieldType())
}

// Unbind removes p, compared by identity, from the provider collection.
// Unbinding nil or a provider that is not bound still triggers a refresh.
func (c *Coordinator) Unbind(p provider.FieldProvider) {
	if p == nil {
		c.Trigger("unbinding nil field provider")
		return
	}
	c.mu.Lock()
	for i, q := range c.providers {
		if q == p {
			c.providers = append(c.providers[:i:i], c.providers[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	c.Trigger("unbinding field provider " + p.FieldType())
}

// Providers returns a snapshot of the provider collection.
func (c *Coordinator) Providers() []provider.FieldProvider {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]provider.FieldProvider(nil), c.providers...)
}

// Pending reports whether a refresh is pending and its current reason.
func (c *Coordinator) Pending() (bool, string) {
	pending, reason, _ := c.store.snapshot()
	return pending, reason
}

// Active returns the bundle installed by the last successful rebuild.
func (c *Coordinator) Active() *schema.Bundle {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()
	return c.active
}

// Sweep rebuilds once when the pending trigger has expired and reports
// whether it did.
func (c *Coordinator) Sweep() bool {
	reason, ok := c.store.expire(c.opt.Clock.Now())
	if !ok {
		return false
	}
	ctx := context.Background()
	if c.opt.RebuildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opt.RebuildTimeout)
		defer cancel()
	}
	// the error was logged and published by Rebuild
	_ = c.rebuild(ctx, reason)
	return true
}

// Rebuild builds a bundle from the current providers and swaps it in.
// On failure the previous bundle stays active.
func (c *Coordinator) Rebuild(ctx context.Context) error {
	return c.rebuild(ctx, "explicit rebuild")
}

func (c *Coordinator) rebuild(ctx context.Context, reason string) (err error) {
	c.rebuildMu.Lock()
	defer c.rebuildMu.Unlock()

	providers := c.Providers()
	start := time.Now()
	eventbus.Publish(ctx, events.RebuildStart{Reason: reason, Providers: len(providers)})
	finish := events.RebuildFinish{Reason: reason, Providers: len(providers)}
	defer func() {
		finish.Err = err
		finish.Duration = time.Since(start)
		eventbus.Publish(ctx, finish)
	}()

	c.logger.Debug().Str("reason", reason).Int("providers", len(providers)).Msg("rebuilding schema")
	next, err := c.builder.Build(ctx, providers)
	if err != nil {
		c.logger.Error().Err(err).Str("reason", reason).Msg("schema rebuild failed, keeping previous schema")
		return fmt.Errorf("build schema: %w", err)
	}

	prev := c.active
	if prev != nil {
		c.registry.Deactivate(prev)
	}
	if err := c.registry.Activate(next); err != nil {
		c.logger.Error().Err(err).Str("bundle", next.ID).Msg("activating schema failed, restoring previous schema")
		if prev != nil {
			if rerr := c.registry.Activate(prev); rerr != nil {
				c.logger.Error().Err(rerr).Str("bundle", prev.ID).Msg("restoring previous schema failed")
			}
		}
		return fmt.Errorf("activate schema: %w", err)
	}
	c.active = next
	finish.BundleID = next.ID
	finish.Generation = next.Generation

	c.logger.Info().
		Str("bundle", next.ID).
		Uint64("generation", next.Generation).
		Strs("field_types", next.FieldTypes).
		Dur("took", time.Since(start)).
		Msg("schema rebuilt")
	return nil
}

func (c *Coordinator) sweepLoop() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opt.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			// a tick racing with Shutdown must not start a rebuild
			select {
			case <-c.stopCh:
				return
			default:
			}
			c.Sweep()
		case <-c.stopCh:
			return
		}
	}
}

// Shutdown stops the sweep and waits for a sweep in progress, including
// its rebuild, to finish. It is safe to call more than once.
func (c *Coordinator) Shutdown() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}
