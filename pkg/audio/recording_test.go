package audio

import (
	"bytes"
	"testing"
	"time"

	"github.com/saynalabs/sayna/pkg/frames"
)

func TestFrameBytes(t *testing.T) {
	if got := FrameBytes(16000, 30*time.Millisecond); got != 960 {
		t.Fatalf("expected 960 bytes per 30ms frame, got %d", got)
	}
}

func TestRecordingAccumulates(t *testing.T) {
	rec := NewRecording("s1", 16000, 1, time.Now())
	for i := 0; i < 10; i++ {
		rec.Append(frames.NewAudioFrame("s1", int64(i), make([]byte, 960), 16000, 1, nil))
	}
	rec.Seal()

	if rec.FrameCount() != 10 {
		t.Fatalf("expected 10 frames, got %d", rec.FrameCount())
	}
	if got := rec.Duration(); got != 300*time.Millisecond {
		t.Fatalf("expected 300ms, got %v", got)
	}
	if len(rec.Bytes()) != 9600 {
		t.Fatalf("expected 9600 bytes, got %d", len(rec.Bytes()))
	}
}

func TestRecordingEmptyThreshold(t *testing.T) {
	rec := NewRecording("s1", 16000, 1, time.Now())
	rec.Append(frames.NewAudioFrame("s1", 1, make([]byte, 960), 16000, 1, nil))
	rec.Seal()

	if !rec.Empty(300 * time.Millisecond) {
		t.Fatalf("expected 30ms recording to be considered empty at 300ms threshold")
	}
	if rec.Empty(10 * time.Millisecond) {
		t.Fatalf("expected 30ms recording to pass a 10ms threshold")
	}
}

func TestAppendAfterSealPanics(t *testing.T) {
	rec := NewRecording("s1", 16000, 1, time.Now())
	rec.Seal()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on append after seal")
		}
	}()
	rec.Append(frames.NewAudioFrame("s1", 1, nil, 16000, 1, nil))
}

func TestEncodeWAVHeader(t *testing.T) {
	rec := NewRecording("s1", 16000, 1, time.Now())
	rec.Append(frames.NewAudioFrame("s1", 1, make([]byte, 960), 16000, 1, nil))
	rec.Seal()

	var buf bytes.Buffer
	if err := rec.EncodeWAV(&buf); err != nil {
		t.Fatalf("encode error: %v", err)
	}
	out := buf.Bytes()
	if len(out) < 44 {
		t.Fatalf("wav output too short: %d bytes", len(out))
	}
	if string(out[:4]) != "RIFF" || string(out[8:12]) != "WAVE" {
		t.Fatalf("missing RIFF/WAVE header")
	}
}
