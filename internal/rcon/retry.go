package rcon

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultRetries   = 3
	DefaultBaseDelay = time.Second
)

// SendWithRetry issues command, retrying transient failures with
// exponential backoff (baseDelay, 2*baseDelay, 4*baseDelay, ...). The
// retry budget is bounded so a dead server cannot starve a scheduler
// tick; context cancellation aborts immediately. Commands are delivered
// at least once, so callers must keep them idempotent.
func (c *Client) SendWithRetry(ctx context.Context, command string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.baseDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0

	attempt := 0
	return backoff.Retry(ctx, func() (string, error) {
		attempt++
		resp, err := c.Send(ctx, command)
		if err != nil {
			slog.DebugContext(ctx, "command attempt failed",
				"server", c.info.ServerID, "attempt", attempt, "error", err)
			return "", err
		}
		return resp, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(uint(c.retries)+1))
}
