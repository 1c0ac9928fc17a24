package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"

	"github.com/saynalabs/sayna/pkg/logging"
)

// ParecSource spawns PulseAudio's parec against the Bluetooth handsfree
// source and slices its stdout into frames. The route controller must have
// the card in capture mode before Open is called.
type ParecSource struct {
	Device   string
	Rate     int
	Channels int

	cmd    *exec.Cmd
	stdout io.ReadCloser
	log    *slog.Logger
}

func NewParecSource(device string, rate, channels int, log *slog.Logger) *ParecSource {
	return &ParecSource{
		Device:   device,
		Rate:     rate,
		Channels: channels,
		log:      logging.NewComponentLogger(log, "parec"),
	}
}

func (s *ParecSource) Open(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "parec",
		"--device="+s.Device,
		fmt.Sprintf("--rate=%d", s.Rate),
		"--format=s16le",
		fmt.Sprintf("--channels=%d", s.Channels),
	)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("parec stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start parec: %w", err)
	}
	s.cmd = cmd
	s.stdout = stdout
	s.log.Debug("parec started", slog.String("device", s.Device), slog.Int("pid", cmd.Process.Pid))
	return nil
}

func (s *ParecSource) ReadFrame(buf []byte) (int, error) {
	if s.stdout == nil {
		return 0, fmt.Errorf("parec not open")
	}
	n, err := io.ReadFull(s.stdout, buf)
	if err == io.ErrUnexpectedEOF {
		return n, io.EOF
	}
	return n, err
}

func (s *ParecSource) Close() error {
	if s.cmd == nil {
		return nil
	}
	if s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	err := s.cmd.Wait()
	s.cmd = nil
	s.stdout = nil
	// parec is killed on purpose; its exit status is not interesting.
	if _, ok := err.(*exec.ExitError); ok {
		return nil
	}
	return err
}
