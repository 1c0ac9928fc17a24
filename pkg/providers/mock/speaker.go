package mock

import (
	"context"
	"sync"

	"github.com/saynalabs/sayna/pkg/adapters/speak"
)

type SpeakerConfig struct {
	Err error
}

// Speaker records every utterance it is asked to play.
type Speaker struct {
	cfg SpeakerConfig

	mu     sync.Mutex
	spoken []string
}

func NewSpeaker(cfg SpeakerConfig) *Speaker {
	return &Speaker{cfg: cfg}
}

func (s *Speaker) Name() string { return "mock_speaker" }

func (s *Speaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	return s.cfg.Err
}

func (s *Speaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

var _ speak.Speaker = (*Speaker)(nil)
