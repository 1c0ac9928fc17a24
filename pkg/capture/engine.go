package capture

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/saynalabs/sayna/pkg/audio"
	"github.com/saynalabs/sayna/pkg/endpoint"
	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/frames"
	"github.com/saynalabs/sayna/pkg/logging"
)

// Source delivers raw s16le PCM from the physical audio device. The engine
// owns the handle for the duration of one capture: Open, a run of ReadFrame
// calls, Close.
type Source interface {
	Open(ctx context.Context) error
	// ReadFrame blocks until buf is filled with one frame of samples.
	// Returns io.EOF (possibly with a short count) when the source is
	// exhausted.
	ReadFrame(buf []byte) (int, error)
	Close() error
}

type Config struct {
	SampleRate    int
	Channels      int
	FrameDuration time.Duration
	// MaxDuration bounds a capture that never goes silent. Reaching it
	// finalizes the recording like source exhaustion does.
	MaxDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.FrameDuration <= 0 {
		c.FrameDuration = 30 * time.Millisecond
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 30 * time.Second
	}
	return c
}

// Engine reads successive frames from the source, feeds every frame to the
// endpointer, and accumulates all of them, silence included, into the
// session's recording.
type Engine struct {
	cfg    Config
	source Source
	log    *slog.Logger
}

func NewEngine(source Source, cfg Config, log *slog.Logger) *Engine {
	return &Engine{
		cfg:    cfg.withDefaults(),
		source: source,
		log:    logging.NewComponentLogger(log, "capture"),
	}
}

// Capture blocks until the endpointer signals end of utterance, the source
// is exhausted, or the max duration elapses, then returns the sealed
// recording. Source exhaustion is not an error; the recording may be empty
// and downstream stages must tolerate that.
func (e *Engine) Capture(ctx context.Context, sessionID string, ep *endpoint.Endpointer) (*audio.Recording, error) {
	if err := e.source.Open(ctx); err != nil {
		return nil, errorsx.Wrap(err, errorsx.ReasonCaptureOpen)
	}
	defer e.source.Close()

	start := time.Now()
	ep.Start(start)
	pts := frames.NewPTSGen()
	rec := audio.NewRecording(sessionID, e.cfg.SampleRate, e.cfg.Channels, start)
	frameBytes := audio.FrameBytes(e.cfg.SampleRate, e.cfg.FrameDuration)
	buf := make([]byte, frameBytes)

	e.log.Info("capture started",
		slog.String("session_id", sessionID),
		slog.Int("frame_bytes", frameBytes))

	for {
		if ctx.Err() != nil {
			break
		}
		n, err := e.source.ReadFrame(buf)
		if n > 0 {
			frame := frames.NewAudioFrame(sessionID, pts.Next(), append([]byte(nil), buf[:n]...),
				e.cfg.SampleRate, e.cfg.Channels, map[string]string{frames.MetaSource: "capture"})
			rec.Append(frame)
			if _, done := ep.Observe(frame, time.Now()); done {
				e.log.Info("end of utterance",
					slog.String("session_id", sessionID),
					slog.Int("frames", rec.FrameCount()))
				break
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				e.log.Info("source exhausted",
					slog.String("session_id", sessionID),
					slog.Int("frames", rec.FrameCount()))
				break
			}
			return nil, errorsx.Wrap(err, errorsx.ReasonCaptureRead)
		}
		if time.Since(start) > e.cfg.MaxDuration {
			e.log.Warn("max capture duration reached",
				slog.String("session_id", sessionID),
				slog.Int64("max_ms", e.cfg.MaxDuration.Milliseconds()))
			break
		}
	}

	rec.Seal()
	e.log.Info("capture finished",
		slog.String("session_id", sessionID),
		slog.Int("frames", rec.FrameCount()),
		slog.Int64("audio_ms", rec.Duration().Milliseconds()))
	return rec, nil
}
