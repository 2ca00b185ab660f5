// Package driver runs a manager's Tick on a fixed interval. Ticks are
// synchronous, so a tick can never overlap itself; a slow tick delays
// the next one instead of racing it.
package driver

import (
	"context"
	"log/slog"
	"time"
)

const DefaultInterval = time.Minute

type Manager interface {
	Tick(context.Context) error
}

// ManagerFunc adapts a bare function to the Manager interface.
type ManagerFunc func(context.Context) error

func (f ManagerFunc) Tick(ctx context.Context) error { return f(ctx) }

type Driver struct {
	name     string
	interval time.Duration
	manager  Manager
}

func New(name string, m Manager, opts ...DriverOpt) *Driver {
	d := &Driver{
		name:     name,
		interval: DefaultInterval,
		manager:  m,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start runs the tick loop until ctx is canceled. A failed tick is
// logged and the loop keeps going; the work is reattempted on the next
// interval.
func (d *Driver) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "driver started", "driver", d.name, "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "driver stopped", "driver", d.name)
			return nil
		case <-ticker.C:
			if err := d.manager.Tick(ctx); err != nil {
				slog.ErrorContext(ctx, "tick failed", "driver", d.name, "error", err)
			}
		}
	}
}
