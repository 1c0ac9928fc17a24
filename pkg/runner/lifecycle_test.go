package runner

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeDrainer struct {
	delay   time.Duration
	drained atomic.Bool
}

func (d *fakeDrainer) Drain() error {
	time.Sleep(d.delay)
	d.drained.Store(true)
	return nil
}

func TestRunStopsWhenWorkReturns(t *testing.T) {
	d := &fakeDrainer{}
	var started, stopped atomic.Bool
	r := NewLifecycleRunner(
		func(ctx context.Context) error { return nil },
		d,
		Hooks{
			OnStart: func() { started.Store(true) },
			OnStop:  func() { stopped.Store(true) },
		},
		time.Second,
	)
	r.DisableBanner()

	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if !started.Load() || !stopped.Load() {
		t.Fatalf("hooks not invoked: start=%v stop=%v", started.Load(), stopped.Load())
	}
	if !d.drained.Load() {
		t.Fatalf("drainer not invoked")
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped, got %d", r.State())
	}
}

func TestStopCancelsWork(t *testing.T) {
	r := NewLifecycleRunner(
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
		nil, Hooks{}, time.Second,
	)
	r.DisableBanner()

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()

	deadline := time.Now().Add(time.Second)
	for r.State() != StateRunning {
		if time.Now().After(deadline) {
			t.Fatalf("runner never reached running state")
		}
		time.Sleep(time.Millisecond)
	}
	if err := r.Stop(); err != nil {
		t.Fatalf("stop error: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("run did not return after stop")
	}
}

func TestWorkErrorPropagates(t *testing.T) {
	want := errors.New("event device gone")
	r := NewLifecycleRunner(
		func(ctx context.Context) error { return want },
		nil, Hooks{}, time.Second,
	)
	r.DisableBanner()
	if err := r.Run(context.Background()); !errors.Is(err, want) {
		t.Fatalf("expected work error, got %v", err)
	}
}

func TestDrainTimeout(t *testing.T) {
	d := &fakeDrainer{delay: 200 * time.Millisecond}
	r := NewLifecycleRunner(
		func(ctx context.Context) error { return nil },
		d, Hooks{}, 10*time.Millisecond,
	)
	r.DisableBanner()
	err := r.Run(context.Background())
	if err == nil || err.Error() != "drain timeout" {
		t.Fatalf("expected drain timeout, got %v", err)
	}
}

func TestSecondRunRejected(t *testing.T) {
	r := NewLifecycleRunner(func(ctx context.Context) error { return nil }, nil, Hooks{}, time.Second)
	r.DisableBanner()
	if err := r.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("second run must be rejected")
	}
}
