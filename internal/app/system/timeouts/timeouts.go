// Package timeouts holds the context deadlines handlers put around store
// calls and outbound delivery.
//
// Tiers:
//   - Ping: health checks
//   - Short: single-document reads, code issue/verify
//   - Medium: roster and mission statistics queries
//   - Long: invitation commit (multi-collection, transactional)
//   - Batch: spreadsheet-driven previews with thousands of candidates
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds timeout values. Zero values are ignored by Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Batch  time.Duration
}

// Defaults are the values used until Configure or ConfigureFromEnv runs.
var Defaults = Config{
	Ping:   2 * time.Second,
	Short:  5 * time.Second,
	Medium: 10 * time.Second,
	Long:   30 * time.Second,
	Batch:  60 * time.Second,
}

var (
	mu  sync.RWMutex
	cur = Defaults
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(cur)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }
func Batch() time.Duration  { return get(func(c Config) time.Duration { return c.Batch }) }

// Current returns the active configuration, for startup logging.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return cur
}

// Configure overrides the non-zero fields of cfg.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	merge(&cur.Ping, cfg.Ping)
	merge(&cur.Short, cfg.Short)
	merge(&cur.Medium, cfg.Medium)
	merge(&cur.Long, cfg.Long)
	merge(&cur.Batch, cfg.Batch)
}

func merge(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

// Reset restores the defaults. Tests use it.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	cur = Defaults
}

// ConfigureFromEnv reads TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM,
// TIMEOUT_LONG and TIMEOUT_BATCH (Go duration strings). Unset or invalid
// values are skipped. Returns how many were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for _, e := range []struct {
		key string
		dst *time.Duration
	}{
		{"TIMEOUT_PING", &cfg.Ping},
		{"TIMEOUT_SHORT", &cfg.Short},
		{"TIMEOUT_MEDIUM", &cfg.Medium},
		{"TIMEOUT_LONG", &cfg.Long},
		{"TIMEOUT_BATCH", &cfg.Batch},
	} {
		v := os.Getenv(e.key)
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*e.dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// WithTimeout wraps context.WithTimeout; the returned cancel logs a warning
// when the deadline was what ended the operation.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "invitation commit")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
