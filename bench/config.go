package bench

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"imgbench/cache"
	"imgbench/fetch"
)

// DefaultSettleDelay is the pause between consecutive sequential jobs.
const DefaultSettleDelay = 100 * time.Millisecond

// Loader is the part of fetch.Loader the runner needs.
type Loader interface {
	Load(ctx context.Context, req fetch.Request) ([]byte, error)
}

type Config struct {
	Loader Loader
	// Cache is cleared before every batch, outside the timed window.
	Cache cache.Cache
	// SettleDelay between sequential jobs; DefaultSettleDelay when zero,
	// none when negative.
	SettleDelay time.Duration
	// Workers bounds parallel mode; unbounded when zero.
	Workers int
	// Timeout per job; none when zero.
	Timeout time.Duration
	// Validate inspects loaded bytes; an error marks the measurement failed.
	Validate func([]byte) error
	Logger   logrus.FieldLogger
}

func (c Config) settleDelay() time.Duration {
	switch {
	case c.SettleDelay < 0:
		return 0
	case c.SettleDelay == 0:
		return DefaultSettleDelay
	}

	return c.SettleDelay
}
