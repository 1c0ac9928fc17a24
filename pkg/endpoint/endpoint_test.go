package endpoint

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/saynalabs/sayna/pkg/frames"
)

const (
	testRate     = 16000
	testFrameDur = 30 * time.Millisecond
)

func pcmFrame(t *testing.T, amplitude int16) frames.AudioFrame {
	t.Helper()
	samples := int(testRate * testFrameDur / time.Second)
	data := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(amplitude))
	}
	return frames.NewAudioFrame("s1", 1, data, testRate, 1, nil)
}

func speechFrame(t *testing.T) frames.AudioFrame  { return pcmFrame(t, 8000) }
func silenceFrame(t *testing.T) frames.AudioFrame { return pcmFrame(t, 0) }

type fixedClassifier struct{ result Activity }

func (f fixedClassifier) Classify(frames.AudioFrame) Activity { return f.result }

func TestSilenceOnlySessionEndsWithinTimeout(t *testing.T) {
	ep := New(fixedClassifier{Silence}, time.Second)
	start := time.Now()
	ep.Start(start)

	// Feed silence frames at the frame cadence; the endpointer must fire
	// within silenceTimeout of session start, plus at most one frame.
	var ended bool
	var at time.Time
	for i := 1; i <= 40; i++ {
		at = start.Add(time.Duration(i) * testFrameDur)
		if _, done := ep.Observe(silenceFrame(t), at); done {
			ended = true
			break
		}
	}
	if !ended {
		t.Fatalf("expected end of utterance on silence-only input")
	}
	elapsed := at.Sub(start)
	if elapsed > time.Second+testFrameDur {
		t.Fatalf("ended too late: %v", elapsed)
	}
	if elapsed < time.Second {
		t.Fatalf("ended before the timeout: %v", elapsed)
	}
}

func TestSpeechResetsSilenceTimer(t *testing.T) {
	// Silence up to frame 30, one speech frame, silence after: the timer
	// must restart from the speech frame, not from session start.
	cls := &scriptedClassifier{speechFrames: map[int]bool{30: true}}
	ep := New(cls, time.Second)
	start := time.Now()
	ep.Start(start)

	var done bool
	var at time.Time
	for i := 1; i <= 100; i++ {
		at = start.Add(time.Duration(i) * testFrameDur)
		if _, d := ep.Observe(silenceFrame(t), at); d {
			done = true
			break
		}
	}
	if !done {
		t.Fatalf("expected eventual end of utterance")
	}
	speechAt := start.Add(30 * testFrameDur)
	if at.Sub(speechAt) < time.Second {
		t.Fatalf("timer did not restart after speech: ended %v after last speech", at.Sub(speechAt))
	}
	if at.Sub(speechAt) > time.Second+testFrameDur {
		t.Fatalf("ended too long after last speech: %v", at.Sub(speechAt))
	}
}

// scriptedClassifier reports Speech on the scripted frame numbers.
type scriptedClassifier struct {
	speechFrames map[int]bool
	n            int
}

func (s *scriptedClassifier) Classify(frames.AudioFrame) Activity {
	s.n++
	if s.speechFrames[s.n] {
		return Speech
	}
	return Silence
}

func TestEnergyClassifierSeparatesSpeechFromSilence(t *testing.T) {
	c := NewEnergyClassifier()
	if got := c.Classify(silenceFrame(t)); got != Silence {
		t.Fatalf("expected silence for zero frame, got %s", got)
	}
	if got := c.Classify(speechFrame(t)); got != Speech {
		t.Fatalf("expected speech for loud frame, got %s", got)
	}
}

func TestEnergyClassifierHysteresis(t *testing.T) {
	c := NewEnergyClassifierWithThresholds(0.1, 0.02)
	if got := c.Classify(pcmFrame(t, 8000)); got != Speech {
		t.Fatalf("expected speech above enter threshold, got %s", got)
	}
	// Level between leave and enter thresholds: stays in speech.
	if got := c.Classify(pcmFrame(t, 2000)); got != Speech {
		t.Fatalf("expected hysteresis to hold speech, got %s", got)
	}
	if got := c.Classify(pcmFrame(t, 0)); got != Silence {
		t.Fatalf("expected silence below leave threshold, got %s", got)
	}
	c.Reset()
	if got := c.Classify(pcmFrame(t, 2000)); got != Silence {
		t.Fatalf("expected silence after reset for sub-enter level, got %s", got)
	}
}

func TestObserveWithoutStartAnchorsToFirstFrame(t *testing.T) {
	ep := New(fixedClassifier{Silence}, 100*time.Millisecond)
	start := time.Now()
	if _, done := ep.Observe(silenceFrame(t), start); done {
		t.Fatalf("first frame must not end the utterance")
	}
	if _, done := ep.Observe(silenceFrame(t), start.Add(150*time.Millisecond)); !done {
		t.Fatalf("expected end of utterance after timeout from first frame")
	}
}
