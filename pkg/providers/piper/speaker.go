package piper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/saynalabs/sayna/pkg/adapters/speak"
	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/logging"
)

// Speaker synthesizes with the piper binary and plays the result with
// aplay. The route controller must have the card in playback mode before
// Speak is called.
type Speaker struct {
	cfg Config
	log *slog.Logger
}

type Config struct {
	BinPath    string
	VoicePath  string
	OutPath    string
	PlayerPath string
	Timeout    time.Duration
}

func New(cfg Config, log *slog.Logger) *Speaker {
	if cfg.BinPath == "" {
		cfg.BinPath = "piper"
	}
	if cfg.OutPath == "" {
		cfg.OutPath = filepath.Join(os.TempDir(), "answer.wav")
	}
	if cfg.PlayerPath == "" {
		cfg.PlayerPath = "aplay"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Speaker{cfg: cfg, log: logging.NewComponentLogger(log, "piper")}
}

func (s *Speaker) Name() string { return "piper" }

func (s *Speaker) Speak(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	synth := exec.CommandContext(ctx, s.cfg.BinPath,
		"--model", s.cfg.VoicePath,
		"--output_file", s.cfg.OutPath,
	)
	synth.Stdin = strings.NewReader(text)
	if out, err := synth.CombinedOutput(); err != nil {
		s.log.Error("piper failed",
			slog.String("error", err.Error()),
			slog.String("output", string(out)))
		return errorsx.Wrap(fmt.Errorf("piper: %w", err), errorsx.ReasonSynthesize)
	}
	s.log.Debug("synthesis done",
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
		slog.Int("text_len", len(text)))

	play := exec.CommandContext(ctx, s.cfg.PlayerPath, s.cfg.OutPath)
	if out, err := play.CombinedOutput(); err != nil {
		s.log.Error("playback failed",
			slog.String("error", err.Error()),
			slog.String("output", string(out)))
		return errorsx.Wrap(fmt.Errorf("%s: %w", s.cfg.PlayerPath, err), errorsx.ReasonPlayback)
	}
	return nil
}

var _ speak.Speaker = (*Speaker)(nil)
