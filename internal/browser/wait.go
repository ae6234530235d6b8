package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgnsrekt/storefront_e2e/internal/errs"
)

// DefaultPollInterval is how often waits re-check their condition.
const DefaultPollInterval = 500 * time.Millisecond

// Condition reports whether an awaited state has been reached.
type Condition func(ctx context.Context) (bool, error)

// poll checks cond immediately and then every interval until it holds,
// timeout elapses or ctx is done. Condition errors are retried; the last
// one is reported on timeout.
func poll(ctx context.Context, cond Condition, timeout, interval time.Duration, timeoutMsg string) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		ok, err := cond(ctx)
		if err == nil && ok {
			return nil
		}
		if err != nil {
			lastErr = err
			slog.Debug("wait condition error", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			if timeoutMsg == "" {
				timeoutMsg = fmt.Sprintf("condition not met within %s", timeout)
			}
			return errs.Wrap(errs.CodeTimeout, timeoutMsg, lastErr)
		case <-ticker.C:
		}
	}
}
