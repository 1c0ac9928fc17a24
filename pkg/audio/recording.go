package audio

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/youpy/go-wav"

	"github.com/saynalabs/sayna/pkg/frames"
)

// FrameBytes returns the byte length of one capture frame: rate * dur * 2
// bytes per sample, single channel.
func FrameBytes(rate int, dur time.Duration) int {
	return int(int64(rate)*dur.Milliseconds()/1000) * 2
}

// Recording is the ordered, append-only audio captured during one session.
// It is owned by the capture engine until finalized; afterwards it is treated
// as an immutable value.
type Recording struct {
	sessionID string
	rate      int
	channels  int
	startedAt time.Time
	frames    []frames.AudioFrame
	sealed    bool
}

func NewRecording(sessionID string, rate, channels int, startedAt time.Time) *Recording {
	return &Recording{
		sessionID: sessionID,
		rate:      rate,
		channels:  channels,
		startedAt: startedAt,
	}
}

// Append adds a frame to the recording. Appending after Seal is a programming
// error and panics.
func (r *Recording) Append(f frames.AudioFrame) {
	if r.sealed {
		panic("audio: append to sealed recording")
	}
	r.frames = append(r.frames, f)
}

// Seal marks the recording complete. Further appends panic.
func (r *Recording) Seal() {
	r.sealed = true
}

func (r *Recording) SessionID() string    { return r.sessionID }
func (r *Recording) SampleRate() int      { return r.rate }
func (r *Recording) Channels() int        { return r.channels }
func (r *Recording) StartedAt() time.Time { return r.startedAt }
func (r *Recording) FrameCount() int      { return len(r.frames) }

// Duration is the audio length derived from sample counts, not wall clock.
func (r *Recording) Duration() time.Duration {
	var total time.Duration
	for _, f := range r.frames {
		total += f.Duration()
	}
	return total
}

// Bytes concatenates the PCM payload of every frame in capture order.
func (r *Recording) Bytes() []byte {
	var n int
	for _, f := range r.frames {
		n += len(f.RawPayload())
	}
	out := make([]byte, 0, n)
	for _, f := range r.frames {
		out = append(out, f.RawPayload()...)
	}
	return out
}

// Empty reports whether the recording is too short to be worth transcribing.
func (r *Recording) Empty(min time.Duration) bool {
	return r.Duration() < min
}

// EncodeWAV writes the recording as 16-bit PCM WAV.
func (r *Recording) EncodeWAV(w io.Writer) error {
	data := r.Bytes()
	numSamples := uint32(len(data) / 2 / r.channels)
	writer := wav.NewWriter(w, numSamples, uint16(r.channels), uint32(r.rate), 16)
	if _, err := writer.Write(data); err != nil {
		return fmt.Errorf("write wav samples: %w", err)
	}
	return nil
}

// WriteWAVFile materializes the recording at path, overwriting any previous
// session's file.
func (r *Recording) WriteWAVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav file: %w", err)
	}
	if err := r.EncodeWAV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
