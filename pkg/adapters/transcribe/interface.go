package transcribe

import (
	"context"

	"github.com/saynalabs/sayna/pkg/audio"
)

// Transcriber defines the contract for any speech-to-text vendor
// implementation. An empty transcript with a nil error means "no speech
// recognized"; callers treat that as a terminal short-circuit, not a
// failure.
type Transcriber interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Transcribe converts a finished recording to text.
	Transcribe(ctx context.Context, rec *audio.Recording) (string, error)
}

// Config contains vendor-agnostic transcriber configuration.
type Config struct {
	SampleRate int
	Language   string
}
