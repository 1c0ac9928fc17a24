package endpoint

import (
	"time"

	"github.com/saynalabs/sayna/pkg/frames"
)

// Activity is the per-frame binary classification result.
type Activity int

const (
	Silence Activity = iota
	Speech
)

func (a Activity) String() string {
	if a == Speech {
		return "SPEECH"
	}
	return "SILENCE"
}

// Classifier decides, frame by frame, whether a fixed-size 16 kHz mono
// 16-bit frame contains speech. Implementations hold no obligation to keep
// cross-frame state.
type Classifier interface {
	Classify(f frames.AudioFrame) Activity
}

// Endpointer tracks trailing silence across the frames of one recording and
// signals end of utterance once silence has lasted longer than the timeout.
//
// lastSpeech starts at session start, so a user who never speaks still ends
// the capture one timeout after the session began.
type Endpointer struct {
	classifier Classifier
	timeout    time.Duration
	lastSpeech time.Time
	started    bool
}

func New(classifier Classifier, timeout time.Duration) *Endpointer {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Endpointer{classifier: classifier, timeout: timeout}
}

// Start anchors the silence timer to the session start time.
func (e *Endpointer) Start(at time.Time) {
	e.lastSpeech = at
	e.started = true
}

// Observe classifies one frame arriving at the given time and reports whether
// the utterance has ended.
func (e *Endpointer) Observe(f frames.AudioFrame, at time.Time) (Activity, bool) {
	if !e.started {
		e.Start(at)
	}
	activity := e.classifier.Classify(f)
	if activity == Speech {
		e.lastSpeech = at
		return activity, false
	}
	return activity, at.Sub(e.lastSpeech) > e.timeout
}

// Timeout returns the configured trailing-silence interval.
func (e *Endpointer) Timeout() time.Duration { return e.timeout }
