package observers

import (
	"log/slog"
	"sync"
	"time"

	"github.com/saynalabs/sayna/pkg/session"
)

// LatencyObserver logs per-stage durations once a session returns to idle.
type LatencyObserver struct {
	mu     sync.Mutex
	traces map[string]*trace
	log    *slog.Logger
}

type trace struct {
	listening    time.Time
	transcribing time.Time
	dialoging    time.Time
	speaking     time.Time
	idle         time.Time
}

func NewLatencyObserver(log *slog.Logger) *LatencyObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LatencyObserver{
		traces: make(map[string]*trace),
		log:    log,
	}
}

// OnStateChange implements session.StateListener.
func (o *LatencyObserver) OnStateChange(ev session.StateChange) {
	if ev.SessionID == "" {
		return
	}
	o.mu.Lock()
	t := o.traces[ev.SessionID]
	if t == nil {
		t = &trace{}
		o.traces[ev.SessionID] = t
	}
	switch ev.ToState {
	case session.StateListening:
		if t.listening.IsZero() {
			t.listening = ev.Timestamp
		}
	case session.StateTranscribing:
		if t.transcribing.IsZero() {
			t.transcribing = ev.Timestamp
		}
	case session.StateDialoging:
		if t.dialoging.IsZero() {
			t.dialoging = ev.Timestamp
		}
	case session.StateSpeaking:
		if t.speaking.IsZero() {
			t.speaking = ev.Timestamp
		}
	case session.StateIdle:
		t.idle = ev.Timestamp
	}
	if !t.idle.IsZero() {
		o.logLatencyLocked(ev.SessionID, ev.Reason, t)
		delete(o.traces, ev.SessionID)
	}
	o.mu.Unlock()
}

func (o *LatencyObserver) logLatencyLocked(sessionID, reason string, t *trace) {
	o.log.Info("session latency",
		"session_id", sessionID,
		"outcome", reason,
		"listening_ms", durationMs(t.listening, t.transcribing),
		"transcribe_ms", durationMs(t.transcribing, t.dialoging),
		"dialog_ms", durationMs(t.dialoging, t.speaking),
		"speak_ms", durationMs(t.speaking, t.idle),
		"total_ms", durationMs(t.listening, t.idle),
	)
}

func durationMs(a, b time.Time) int64 {
	if a.IsZero() || b.IsZero() {
		return -1
	}
	return b.Sub(a).Milliseconds()
}
