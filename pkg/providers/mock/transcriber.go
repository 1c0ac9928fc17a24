package mock

import (
	"context"
	"sync"

	"github.com/saynalabs/sayna/pkg/adapters/transcribe"
	"github.com/saynalabs/sayna/pkg/audio"
)

type TranscriberConfig struct {
	Transcript string
	Err        error
}

// Transcriber returns a canned transcript, recording every call.
type Transcriber struct {
	cfg TranscriberConfig

	mu    sync.Mutex
	calls []*audio.Recording
}

func NewTranscriber(cfg TranscriberConfig) *Transcriber {
	return &Transcriber{cfg: cfg}
}

func (t *Transcriber) Name() string { return "mock_transcriber" }

func (t *Transcriber) Transcribe(_ context.Context, rec *audio.Recording) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, rec)
	t.mu.Unlock()
	if t.cfg.Err != nil {
		return "", t.cfg.Err
	}
	return t.cfg.Transcript, nil
}

func (t *Transcriber) Calls() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.calls)
}

func (t *Transcriber) LastRecording() *audio.Recording {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.calls) == 0 {
		return nil
	}
	return t.calls[len(t.calls)-1]
}

var _ transcribe.Transcriber = (*Transcriber)(nil)
