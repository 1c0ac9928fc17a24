package frames

import (
	"sync"
	"time"
)

const (
	MetaSessionID = "session_id"
	MetaSource    = "source"
)

// AudioFrame is one fixed-duration slice of mono 16-bit little-endian PCM.
// A frame captured at 16 kHz over 30 ms carries 16000*0.030*2 = 960 bytes.
type AudioFrame struct {
	pts  int64
	data []byte
	rate int
	ch   int
	meta map[string]string
}

func NewAudioFrame(sessionID string, pts int64, data []byte, rate, ch int, meta map[string]string) AudioFrame {
	return AudioFrame{
		pts:  pts,
		data: data,
		rate: rate,
		ch:   ch,
		meta: mergeMeta(sessionID, meta),
	}
}

func (a AudioFrame) PTS() int64              { return a.pts }
func (a AudioFrame) Meta() map[string]string { return cloneMeta(a.meta) }
func (a AudioFrame) Data() []byte            { return append([]byte(nil), a.data...) }
func (a AudioFrame) RawPayload() []byte      { return a.data }
func (a AudioFrame) Rate() int               { return a.rate }
func (a AudioFrame) Channels() int           { return a.ch }

// Duration derives the wall-clock span covered by the frame's samples.
func (a AudioFrame) Duration() time.Duration {
	if a.rate <= 0 || a.ch <= 0 {
		return 0
	}
	samples := len(a.data) / 2 / a.ch
	return time.Duration(samples) * time.Second / time.Duration(a.rate)
}

// PTSGen issues monotonically increasing presentation timestamps for the
// frames of one capture. Create a fresh generator per capture; timestamps
// are not comparable across recordings.
type PTSGen struct {
	mu sync.Mutex
	v  int64
}

func NewPTSGen() *PTSGen {
	return &PTSGen{}
}

func (g *PTSGen) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.v += time.Millisecond.Nanoseconds()
	return g.v
}

func mergeMeta(sessionID string, meta map[string]string) map[string]string {
	out := make(map[string]string, 1+len(meta))
	if sessionID != "" {
		out[MetaSessionID] = sessionID
	}
	for k, v := range meta {
		out[k] = v
	}
	return out
}

func cloneMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
