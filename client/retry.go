package client

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/avast/retry-go"
	"github.com/karstforge/speleosync/internal/logging"
)

// RetryConfig bounds the retry orchestration around remote calls. Delay
// before attempt k (k >= 2) is BaseDelay doubled per prior retry.
type RetryConfig struct {
	Attempts  uint
	BaseDelay time.Duration
}

const defaultAttempts = 3
const defaultBaseDelay = 500 * time.Millisecond

func (c RetryConfig) withDefaults() RetryConfig {
	if c.Attempts == 0 {
		c.Attempts = defaultAttempts
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}

	return c
}

// retryDo runs op with bounded exponential backoff, retrying only errors
// classified retryable by IsRetryable. The error of the last attempt is
// surfaced unmasked.
func retryDo(ctx context.Context, cfg RetryConfig, what string, op func() error) error {
	cfg = cfg.withDefaults()

	return retry.Do(
		op,
		retry.Context(ctx),
		retry.Attempts(cfg.Attempts),
		retry.Delay(cfg.BaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			logging.Logger.Warnf("%s attempt %d failed, backing off: %s", what, n+1, err)
		}),
	)
}

// IsRetryable reports whether err is transient: connection failures,
// timeouts and 5xx responses. Auth failures, validation errors and local
// precondition failures are fatal.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Status >= 500
	}

	if errors.Is(err, ErrNetwork) {
		// ErrTimeout wraps ErrNetwork and is covered here as well.
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
