package input

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/holoplot/go-evdev"

	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/logging"
)

// EvdevSource reads key events from a Linux input device, typically the
// AVRCP button of the Bluetooth speaker exposed as /dev/input/eventN.
type EvdevSource struct {
	dev *evdev.InputDevice
	log *slog.Logger
}

func OpenEvdevSource(path string, log *slog.Logger) (*EvdevSource, error) {
	dev, err := evdev.Open(path)
	if err != nil {
		return nil, errorsx.Wrap(fmt.Errorf("open input device %s: %w", path, err), errorsx.ReasonInputRead)
	}
	l := logging.NewComponentLogger(log, "input")
	if name, err := dev.Name(); err == nil {
		l.Info("input device opened", slog.String("path", path), slog.String("name", name))
	}
	return &EvdevSource{dev: dev, log: l}, nil
}

// Next blocks on the device read loop and surfaces key edges only. The
// underlying read does not take a context; cancellation is handled by the
// caller closing the source.
func (s *EvdevSource) Next(ctx context.Context) (Event, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Event{}, err
		}
		ev, err := s.dev.ReadOne()
		if err != nil {
			return Event{}, errorsx.Wrap(fmt.Errorf("read input event: %w", err), errorsx.ReasonInputRead)
		}
		if ev.Type != evdev.EV_KEY {
			continue
		}
		// Value 1 is the press edge, 0 release, 2 autorepeat.
		if ev.Value != 0 && ev.Value != 1 {
			continue
		}
		s.log.Debug("key event",
			slog.Int("code", int(ev.Code)),
			slog.Int("value", int(ev.Value)))
		return Event{ScanCode: uint16(ev.Code), Pressed: ev.Value == 1}, nil
	}
}

func (s *EvdevSource) Close() error {
	if s.dev == nil {
		return nil
	}
	return s.dev.Close()
}
