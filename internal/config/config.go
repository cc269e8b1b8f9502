// Package config loads hotgraph settings from HOTGRAPH_* environment
// variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config is the process configuration. Defaults are given in the struct
// tags; cobra flags override individual fields.
type Config struct {
	Addr         string `env:"HOTGRAPH_ADDR,default=:8080"`
	ProvidersDir string `env:"HOTGRAPH_PROVIDERS_DIR,default=providers"`

	RefreshWindow   time.Duration `env:"HOTGRAPH_REFRESH_WINDOW,default=1s"`
	SweepInterval   time.Duration `env:"HOTGRAPH_SWEEP_INTERVAL,default=1s"`
	RefreshMaxDelay time.Duration `env:"HOTGRAPH_REFRESH_MAX_DELAY,default=10s"`
	RebuildTimeout  time.Duration `env:"HOTGRAPH_REBUILD_TIMEOUT,default=30s"`

	MaxRequestBytes int64         `env:"HOTGRAPH_MAX_REQUEST_BYTES,default=1000000"`
	MaxBatchSize    int           `env:"HOTGRAPH_MAX_BATCH_SIZE,default=10"`
	MaxDepth        int           `env:"HOTGRAPH_MAX_DEPTH,default=100"`
	MaxComplexity   int           `env:"HOTGRAPH_MAX_COMPLEXITY,default=1000"`
	Timeout         time.Duration `env:"HOTGRAPH_TIMEOUT,default=10s"`
	Pretty          bool          `env:"HOTGRAPH_PRETTY,default=false"`
	Introspection   bool          `env:"HOTGRAPH_INTROSPECTION,default=true"`
	// CORSOrigins is a comma separated origin list. Empty disables CORS.
	CORSOrigins string `env:"HOTGRAPH_CORS_ORIGINS"`

	LogLevel  string `env:"HOTGRAPH_LOG_LEVEL,default=info"`
	LogFormat string `env:"HOTGRAPH_LOG_FORMAT,default=json"`

	OTelEndpoint string `env:"HOTGRAPH_OTEL_ENDPOINT"`
	OTelService  string `env:"HOTGRAPH_OTEL_SERVICE,default=hotgraph"`

	RedisAddr    string `env:"HOTGRAPH_REDIS_ADDR"`
	RedisChannel string `env:"HOTGRAPH_REDIS_CHANNEL,default=hotgraph:refresh"`

	Metrics bool `env:"HOTGRAPH_METRICS,default=true"`
}

// Load decodes the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: addr is required")
	case c.RefreshWindow <= 0:
		return errors.New("config: refresh window must be positive")
	case c.SweepInterval <= 0:
		return errors.New("config: sweep interval must be positive")
	case c.RefreshMaxDelay < 0:
		return errors.New("config: refresh max delay must not be negative")
	case c.MaxRequestBytes <= 0:
		return errors.New("config: max request bytes must be positive")
	case c.MaxBatchSize < 0:
		return errors.New("config: max batch size must not be negative")
	}
	return nil
}

// Origins splits CORSOrigins.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
