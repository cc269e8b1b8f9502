package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	want := Config{
		Addr:            ":8080",
		ProvidersDir:    "providers",
		RefreshWindow:   time.Second,
		SweepInterval:   time.Second,
		RefreshMaxDelay: 10 * time.Second,
		RebuildTimeout:  30 * time.Second,
		MaxRequestBytes: 1_000_000,
		MaxBatchSize:    10,
		MaxDepth:        100,
		MaxComplexity:   1000,
		Timeout:         10 * time.Second,
		Introspection:   true,
		LogLevel:        "info",
		LogFormat:       "json",
		OTelService:     "hotgraph",
		RedisChannel:    "hotgraph:refresh",
		Metrics:         true,
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("HOTGRAPH_ADDR", "127.0.0.1:9000")
	t.Setenv("HOTGRAPH_REFRESH_WINDOW", "250ms")
	t.Setenv("HOTGRAPH_MAX_BATCH_SIZE", "3")
	t.Setenv("HOTGRAPH_CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Addr)
	require.Equal(t, 250*time.Millisecond, cfg.RefreshWindow)
	require.Equal(t, 3, cfg.MaxBatchSize)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Origins())
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("HOTGRAPH_REFRESH_WINDOW", "0s")
	_, err := Load()
	require.Error(t, err)
}

func TestOriginsEmpty(t *testing.T) {
	require.Nil(t, Config{}.Origins())
}
