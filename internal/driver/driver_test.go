package driver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

func TestDriver_TicksUntilCanceled(t *testing.T) {
	var ticks atomic.Int32
	d := New("test", ManagerFunc(func(context.Context) error {
		ticks.Add(1)
		return nil
	}), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 105*time.Millisecond)
	defer cancel()

	err := d.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := ticks.Load(); n < 5 {
		t.Errorf("expected at least 5 ticks, got %d", n)
	}
}

func TestDriver_SurvivesTickErrors(t *testing.T) {
	var ticks atomic.Int32
	d := New("test", ManagerFunc(func(context.Context) error {
		ticks.Add(1)
		return errors.New("boom")
	}), WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := d.Start(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The loop must keep ticking after a failure.
	if n := ticks.Load(); n < 2 {
		t.Errorf("expected ticking to continue after errors, got %d ticks", n)
	}
}

func TestDriver_DefaultInterval(t *testing.T) {
	d := New("test", ManagerFunc(func(context.Context) error { return nil }))
	testutil.AssertEqual(t, "interval", d.interval, DefaultInterval)
}
