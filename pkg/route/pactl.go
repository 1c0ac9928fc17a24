package route

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/logging"
)

// PactlSwitcher changes a Bluetooth card profile through PulseAudio's pactl.
// Profile names follow the bluez card convention: "off",
// "handsfree_head_unit" (mic routed) and "a2dp_sink" (speaker routed).
type PactlSwitcher struct {
	Card            string
	CaptureProfile  string
	PlaybackProfile string
	Timeout         time.Duration

	log *slog.Logger
}

func NewPactlSwitcher(card string, log *slog.Logger) *PactlSwitcher {
	return &PactlSwitcher{
		Card:            card,
		CaptureProfile:  "handsfree_head_unit",
		PlaybackProfile: "a2dp_sink",
		Timeout:         5 * time.Second,
		log:             logging.NewComponentLogger(log, "pactl"),
	}
}

func (s *PactlSwitcher) Apply(ctx context.Context, target Profile) error {
	name, err := s.profileName(target)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout())
	defer cancel()

	s.log.Debug("set-card-profile",
		slog.String("card", s.Card),
		slog.String("profile", name))

	cmd := exec.CommandContext(ctx, "pactl", "set-card-profile", s.Card, name)
	if out, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return errorsx.Wrap(fmt.Errorf("pactl timed out after %s", s.timeout()), errorsx.ReasonRouteTimeout)
		}
		return fmt.Errorf("pactl set-card-profile %s %s: %w (%s)", s.Card, name, err, string(out))
	}
	return nil
}

func (s *PactlSwitcher) profileName(target Profile) (string, error) {
	switch target {
	case ProfileOff:
		return "off", nil
	case ProfileCapture:
		return s.CaptureProfile, nil
	case ProfilePlayback:
		return s.PlaybackProfile, nil
	default:
		return "", fmt.Errorf("unknown profile %d", target)
	}
}

func (s *PactlSwitcher) timeout() time.Duration {
	if s.Timeout <= 0 {
		return 5 * time.Second
	}
	return s.Timeout
}
