package whispercpp

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/saynalabs/sayna/pkg/adapters/transcribe"
	"github.com/saynalabs/sayna/pkg/audio"
	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/logging"
)

// Transcriber shells out to the whisper.cpp CLI. The recording is written
// to a temp WAV which whisper-cli consumes, leaving the transcript in a
// side-car <wav>.txt file. Both files are overwritten every session.
type Transcriber struct {
	cfg Config
	log *slog.Logger
}

type Config struct {
	BinPath   string
	ModelPath string
	WavPath   string
	Language  string
	Threads   int
	Timeout   time.Duration
}

func New(cfg Config, log *slog.Logger) *Transcriber {
	if cfg.BinPath == "" {
		cfg.BinPath = "whisper-cli"
	}
	if cfg.WavPath == "" {
		cfg.WavPath = filepath.Join(os.TempDir(), "query.wav")
	}
	if cfg.Language == "" {
		cfg.Language = "auto"
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &Transcriber{cfg: cfg, log: logging.NewComponentLogger(log, "whispercpp")}
}

func (t *Transcriber) Name() string { return "whispercpp" }

func (t *Transcriber) Transcribe(ctx context.Context, rec *audio.Recording) (string, error) {
	if err := rec.WriteWAVFile(t.cfg.WavPath); err != nil {
		return "", errorsx.Wrap(err, errorsx.ReasonTranscribe)
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()

	start := time.Now()
	cmd := exec.CommandContext(ctx, t.cfg.BinPath,
		"-m", t.cfg.ModelPath,
		"-f", t.cfg.WavPath,
		"-l", t.cfg.Language,
		"--threads", strconv.Itoa(t.cfg.Threads),
		"-otxt",
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.log.Error("whisper-cli failed",
			slog.String("error", err.Error()),
			slog.String("output", string(out)))
		return "", errorsx.Wrap(fmt.Errorf("whisper-cli: %w", err), errorsx.ReasonTranscribe)
	}

	raw, err := os.ReadFile(t.cfg.WavPath + ".txt")
	if err != nil {
		return "", errorsx.Wrap(fmt.Errorf("read transcript: %w", err), errorsx.ReasonTranscribe)
	}
	text := strings.TrimSpace(string(raw))

	t.log.Info("transcription done",
		slog.String("session_id", rec.SessionID()),
		slog.Int64("latency_ms", time.Since(start).Milliseconds()),
		slog.Int("text_len", len(text)))
	return text, nil
}

var _ transcribe.Transcriber = (*Transcriber)(nil)
