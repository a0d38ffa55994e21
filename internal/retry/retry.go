package retry

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

type Config struct {
	MaxAttempts uint
	InitialWait time.Duration
	MaxWait     time.Duration
}

// DefaultConfig backs off exponentially from 1s over 5 attempts.
func DefaultConfig() Config {
	return Config{
		MaxAttempts: 5,
		InitialWait: 1 * time.Second,
		MaxWait:     16 * time.Second,
	}
}

// Do calls fn until it succeeds, returns a Permanent error, the attempts
// are exhausted or ctx is done.
func Do[T any](ctx context.Context, log *slog.Logger, cfg Config, fn func() (T, error)) (T, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = cfg.InitialWait
	if cfg.MaxWait > 0 {
		bo.MaxInterval = cfg.MaxWait
	}

	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 1
	}
	return backoff.Retry(ctx, fn,
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, wait time.Duration) {
			if log != nil {
				log.Warn("retrying after error", "error", err, "wait", wait)
			}
		}),
	)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	return backoff.Permanent(err)
}
