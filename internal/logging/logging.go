// Package logging builds the process logger and logs bus events.
package logging

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	eventbus "github.com/hanpama/hotgraph/internal/eventbus"
	events "github.com/hanpama/hotgraph/internal/events"
	reqid "github.com/hanpama/hotgraph/internal/reqid"
)

// New returns a logger writing to stdout. format "console" selects the
// human readable writer; anything else writes JSON. An unknown level falls
// back to info.
func New(level, format string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Subscribe logs request completions and rebuild outcomes published on b.
func Subscribe(b *eventbus.Bus, logger zerolog.Logger) (unsubscribe func()) {
	unsubs := []func(){
		eventbus.On(b, func(ctx context.Context, e events.HTTPFinish) {
			ev := logger.Info()
			if e.Status >= 500 {
				ev = logger.Error()
			}
			if rid, ok := reqid.FromContext(ctx); ok {
				ev = ev.Str("request_id", rid)
			}
			if e.Request != nil {
				ev = ev.Str("method", e.Request.Method).Str("path", e.Request.URL.Path)
			}
			ev.Int("status", e.Status).
				Bool("batch", e.Batch).
				Int("operations", e.Operations).
				Dur("duration", e.Duration).
				Msg("request completed")
		}),
		eventbus.On(b, func(_ context.Context, e events.RefreshTriggered) {
			logger.Trace().Str("reason", e.Reason).Msg("schema refresh triggered")
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
