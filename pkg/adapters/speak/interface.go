package speak

import "context"

// Speaker defines the contract for any speech-synthesis-and-playback
// implementation. Speak is fire-and-forget from the session's point of
// view: a returned error is logged by the orchestrator, never retried and
// never fatal.
type Speaker interface {
	// Name returns adapter name for logging/metrics.
	Name() string
	// Speak synthesizes text and plays it on the active output route.
	Speak(ctx context.Context, text string) error
}
