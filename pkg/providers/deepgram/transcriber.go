package deepgram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/api/listen/v1/websocket/interfaces"
	interfaces "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/interfaces"
	client "github.com/deepgram/deepgram-go-sdk/v3/pkg/client/listen"

	"github.com/saynalabs/sayna/pkg/adapters/transcribe"
	"github.com/saynalabs/sayna/pkg/audio"
	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/logging"
)

// Transcriber sends a finished recording through Deepgram's live websocket
// API and collects the final transcript segments. An internet-connected
// alternative to the on-device whisper.cpp transcriber.
type Transcriber struct {
	cfg Config
	log *slog.Logger
}

type Config struct {
	APIKey   string
	Model    string
	Language string
	// DrainTimeout bounds the wait for final results after the audio has
	// been fully written.
	DrainTimeout time.Duration
}

func New(cfg Config, log *slog.Logger) *Transcriber {
	if cfg.Model == "" {
		cfg.Model = "nova-2"
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 10 * time.Second
	}
	return &Transcriber{cfg: cfg, log: logging.NewComponentLogger(log, "deepgram")}
}

func (t *Transcriber) Name() string { return "deepgram" }

func (t *Transcriber) Transcribe(ctx context.Context, rec *audio.Recording) (string, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cb := &collector{
		log:  t.log,
		done: make(chan struct{}),
	}

	clientOptions := &interfaces.ClientOptions{
		EnableKeepAlive: true,
	}
	transcriptOptions := &interfaces.LiveTranscriptionOptions{
		Model:      t.cfg.Model,
		Language:   t.cfg.Language,
		Encoding:   "linear16",
		SampleRate: rec.SampleRate(),
		Channels:   rec.Channels(),
		VadEvents:  false,
	}

	dgClient, err := client.NewWSUsingCallback(ctx, t.cfg.APIKey, clientOptions, transcriptOptions, cb)
	if err != nil {
		return "", errorsx.Wrap(fmt.Errorf("deepgram client: %w", err), errorsx.ReasonTranscribe)
	}
	if connected := dgClient.Connect(); !connected {
		return "", errorsx.Wrap(fmt.Errorf("deepgram connection failed"), errorsx.ReasonTranscribe)
	}
	defer dgClient.Stop()

	pr, pw := io.Pipe()
	go func() {
		_, werr := pw.Write(rec.Bytes())
		_ = pw.CloseWithError(werr)
	}()
	go func() {
		if serr := dgClient.Stream(pr); serr != nil && ctx.Err() == nil {
			t.log.Error("deepgram stream error",
				slog.String("session_id", rec.SessionID()),
				slog.String("error", serr.Error()))
		}
		cb.finish()
	}()

	select {
	case <-cb.done:
	case <-time.After(t.cfg.DrainTimeout):
	case <-ctx.Done():
		return "", errorsx.Wrap(ctx.Err(), errorsx.ReasonTranscribe)
	}

	text := cb.text()
	t.log.Info("transcription done",
		slog.String("session_id", rec.SessionID()),
		slog.Int("text_len", len(text)))
	return text, nil
}

// collector accumulates final transcript segments from the callback.
type collector struct {
	log *slog.Logger

	mu       sync.Mutex
	segments []string
	once     sync.Once
	done     chan struct{}
}

func (c *collector) text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.TrimSpace(strings.Join(c.segments, " "))
}

func (c *collector) finish() {
	c.once.Do(func() { close(c.done) })
}

func (c *collector) Open(or *msginterfaces.OpenResponse) error {
	c.log.Debug("deepgram connection opened")
	return nil
}

func (c *collector) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	transcript := mr.Channel.Alternatives[0].Transcript
	if transcript == "" {
		return nil
	}
	if mr.IsFinal || mr.SpeechFinal {
		c.mu.Lock()
		c.segments = append(c.segments, transcript)
		c.mu.Unlock()
	}
	return nil
}

func (c *collector) Metadata(md *msginterfaces.MetadataResponse) error {
	c.log.Debug("deepgram metadata", slog.String("request_id", md.RequestID))
	return nil
}

func (c *collector) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error {
	return nil
}

func (c *collector) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	return nil
}

func (c *collector) Close(cr *msginterfaces.CloseResponse) error {
	c.finish()
	return nil
}

func (c *collector) Error(er *msginterfaces.ErrorResponse) error {
	c.log.Error("deepgram error",
		slog.String("error_code", er.ErrCode),
		slog.String("error_message", er.ErrMsg))
	c.finish()
	return nil
}

func (c *collector) UnhandledEvent(byData []byte) error {
	c.log.Debug("deepgram unhandled event", slog.String("data", string(byData)))
	return nil
}

var _ transcribe.Transcriber = (*Transcriber)(nil)
