package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	config "github.com/hanpama/hotgraph/internal/config"
	eventbus "github.com/hanpama/hotgraph/internal/eventbus"
	logging "github.com/hanpama/hotgraph/internal/logging"
	metrics "github.com/hanpama/hotgraph/internal/metrics"
	otel "github.com/hanpama/hotgraph/internal/otel"
	provider "github.com/hanpama/hotgraph/internal/provider"
	refresh "github.com/hanpama/hotgraph/internal/refresh"
	schema "github.com/hanpama/hotgraph/internal/schema"
	server "github.com/hanpama/hotgraph/internal/server"
)

func newServeCmd() *cobra.Command {
	// env provides the flag defaults; flags override
	cfg, loadErr := config.Load()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL HTTP endpoint",
		Long: `Run the GraphQL endpoint. Provider manifests in the providers directory
are bound at startup and re-bound when they change; schema rebuilds are
debounced so bursts of changes produce one rebuild.

Environment variables (HOTGRAPH_*) set the defaults of every flag:
  HOTGRAPH_ADDR, HOTGRAPH_PROVIDERS_DIR, HOTGRAPH_REFRESH_WINDOW,
  HOTGRAPH_MAX_BATCH_SIZE, HOTGRAPH_LOG_LEVEL, HOTGRAPH_REDIS_ADDR, ...

Routes:
  POST /graphql   GraphQL requests, single or batched
  POST /refresh   request a schema refresh (cluster-wide with redis)
  GET  /healthz   200 once a schema is active
  GET  /metrics   Prometheus metrics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loadErr != nil {
				return loadErr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	f.StringVar(&cfg.ProvidersDir, "providers", cfg.ProvidersDir, "providers directory to watch")
	f.DurationVar(&cfg.RefreshWindow, "refresh.window", cfg.RefreshWindow, "quiet period before a schema rebuild")
	f.DurationVar(&cfg.SweepInterval, "refresh.sweep", cfg.SweepInterval, "refresh deadline check interval")
	f.DurationVar(&cfg.RefreshMaxDelay, "refresh.max-delay", cfg.RefreshMaxDelay, "longest a pending refresh can be postponed (0: no cap)")
	f.Int64Var(&cfg.MaxRequestBytes, "server.max-request-bytes", cfg.MaxRequestBytes, "largest accepted Content-Length")
	f.IntVar(&cfg.MaxBatchSize, "server.max-batch", cfg.MaxBatchSize, "largest accepted batch")
	f.IntVar(&cfg.MaxDepth, "graphql.max-depth", cfg.MaxDepth, "maximum query depth (0: unlimited)")
	f.IntVar(&cfg.MaxComplexity, "graphql.max-complexity", cfg.MaxComplexity, "maximum selected fields (0: unlimited)")
	f.BoolVar(&cfg.Introspection, "graphql.introspection", cfg.Introspection, "enable GraphQL introspection")
	f.DurationVar(&cfg.Timeout, "server.timeout", cfg.Timeout, "per-request timeout")
	f.BoolVar(&cfg.Pretty, "server.pretty", cfg.Pretty, "pretty-print JSON responses")
	f.StringVar(&cfg.CORSOrigins, "server.cors", cfg.CORSOrigins, "comma separated allowed origins")
	f.StringVar(&cfg.LogLevel, "log.level", cfg.LogLevel, "log level")
	f.StringVar(&cfg.LogFormat, "log.format", cfg.LogFormat, "log format: json or console")
	f.StringVar(&cfg.OTelEndpoint, "otel.endpoint", cfg.OTelEndpoint, "OTLP collector endpoint")
	f.StringVar(&cfg.OTelService, "otel.service", cfg.OTelService, "OpenTelemetry service name")
	f.StringVar(&cfg.RedisAddr, "redis.addr", cfg.RedisAddr, "redis address for cluster-wide refresh requests")
	f.StringVar(&cfg.RedisChannel, "redis.channel", cfg.RedisChannel, "redis refresh channel")
	f.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "expose /metrics")
	return cmd
}

// app is the wired process: everything serve starts, in one place so the
// router can be tested without listening.
type app struct {
	logger      zerolog.Logger
	registry    *refresh.Registry
	coordinator *refresh.Coordinator
	handler     *server.Handler
	relay       *refresh.RedisRelay
	gatherer    prometheus.Gatherer
	closers     []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{logger: logger}

	bus := eventbus.New()
	eventbus.Use(bus)
	a.closers = append(a.closers, logging.Subscribe(bus, logger), func() { eventbus.Use(nil) })

	shutdownOTel, err := otel.Setup(ctx, bus, cfg.OTelEndpoint, cfg.OTelService)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("otel setup: %w", err)
	}
	a.closers = append(a.closers, func() { _ = shutdownOTel(context.Background()) })

	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.closers = append(a.closers, metrics.NewWithRegistry(reg).Subscribe(bus))
		a.gatherer = reg
	}

	a.registry = refresh.NewRegistry()
	a.coordinator = refresh.New(schema.NewBuilder(logger), a.registry, nil,
		refresh.WithWindow(cfg.RefreshWindow),
		refresh.WithMaxDelay(cfg.RefreshMaxDelay),
		refresh.WithSweepInterval(cfg.SweepInterval),
		refresh.WithRebuildTimeout(cfg.RebuildTimeout),
		refresh.WithLogger(logger),
	)
	a.closers = append(a.closers, a.registry.Close, a.coordinator.Shutdown)

	// serve the built-in schema until providers arrive
	if err := a.coordinator.Rebuild(ctx); err != nil {
		a.Close()
		return nil, err
	}

	sopts := []server.Option{
		server.WithTimeout(cfg.Timeout),
		server.WithMaxRequestBytes(cfg.MaxRequestBytes),
		server.WithMaxBatchSize(cfg.MaxBatchSize),
		server.WithMaxDepth(cfg.MaxDepth),
		server.WithMaxComplexity(cfg.MaxComplexity),
		server.WithIntrospection(cfg.Introspection),
		server.WithCORS(cfg.Origins()...),
		server.WithLogger(logger),
	}
	if cfg.Pretty {
		sopts = append(sopts, server.WithPretty())
	}
	a.handler, err = server.New(a.registry, sopts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("server init: %w", err)
	}
	return a, nil
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	watcher, err := provider.NewWatcher(cfg.ProvidersDir, a.coordinator, logger)
	if err != nil {
		return err
	}
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("watch providers: %w", err)
	}
	defer watcher.Stop()

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		a.relay = refresh.NewRedisRelay(client, cfg.RedisChannel, a.coordinator, logger)
		go func() {
			if err := a.relay.Run(ctx); err != nil {
				logger.Error().Err(err).Msg("redis refresh relay stopped")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("GraphQL server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
