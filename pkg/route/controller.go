package route

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/logging"
)

// Profile is the hardware audio mode of the shared Bluetooth card. Exactly
// one profile is active at a time.
type Profile int

const (
	ProfileOff Profile = iota
	ProfileCapture
	ProfilePlayback
)

func (p Profile) String() string {
	switch p {
	case ProfileOff:
		return "OFF"
	case ProfileCapture:
		return "CAPTURE"
	case ProfilePlayback:
		return "PLAYBACK"
	default:
		return "UNKNOWN"
	}
}

// Switcher issues the underlying card profile change. Implementations do not
// wait for the hardware to settle; the controller owns that.
type Switcher interface {
	Apply(ctx context.Context, target Profile) error
}

// Delays holds the per-target settle intervals. The hardware renegotiates
// after each switch, so dependent I/O must not start before the interval
// elapses.
type Delays struct {
	ToOff        time.Duration
	ToCapture    time.Duration
	ToPlayback   time.Duration
	StartupReset time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		ToOff:        400 * time.Millisecond,
		ToCapture:    800 * time.Millisecond,
		ToPlayback:   700 * time.Millisecond,
		StartupReset: time.Second,
	}
}

// Controller serializes profile changes and enforces settle delays. It is the
// only writer of the card profile; callers coordinate through the session
// state machine, so one SetProfile is in flight at a time.
type Controller struct {
	mu      sync.Mutex
	sw      Switcher
	delays  Delays
	current Profile
	reset   bool
	log     *slog.Logger
}

func NewController(sw Switcher, delays Delays, log *slog.Logger) *Controller {
	return &Controller{
		sw:      sw,
		delays:  delays,
		current: ProfileOff,
		log:     logging.NewComponentLogger(log, "route"),
	}
}

// Profile returns the last profile the controller applied.
func (c *Controller) Profile() Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SetProfile switches the card to target and blocks for the settle interval.
// Switching to the profile already active is a no-op.
func (c *Controller) SetProfile(ctx context.Context, target Profile) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.reset && target == c.current {
		return nil
	}
	return c.apply(ctx, target, c.settleFor(target))
}

// Reset forces the card through Off into Playback, establishing a known
// starting point regardless of the profile a prior run left behind. Must be
// called once before the first SetProfile.
func (c *Controller) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.Info("forcing route reset", slog.String("target", ProfilePlayback.String()))
	if err := c.apply(ctx, ProfileOff, c.delays.ToOff); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonRouteReset)
	}
	if err := c.apply(ctx, ProfilePlayback, c.delays.StartupReset); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonRouteReset)
	}
	c.reset = true
	return nil
}

func (c *Controller) apply(ctx context.Context, target Profile, settle time.Duration) error {
	start := time.Now()
	if err := c.sw.Apply(ctx, target); err != nil {
		c.log.Error("profile switch failed",
			slog.String("target", target.String()),
			slog.String("error", err.Error()))
		return errorsx.Wrap(err, errorsx.ReasonRouteSwitch)
	}
	if err := c.settle(ctx, settle); err != nil {
		return errorsx.Wrap(err, errorsx.ReasonRouteTimeout)
	}
	c.current = target
	c.log.Debug("profile switched",
		slog.String("target", target.String()),
		slog.Int64("elapsed_ms", time.Since(start).Milliseconds()))
	return nil
}

func (c *Controller) settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) settleFor(target Profile) time.Duration {
	switch target {
	case ProfileCapture:
		return c.delays.ToCapture
	case ProfilePlayback:
		return c.delays.ToPlayback
	default:
		return c.delays.ToOff
	}
}
