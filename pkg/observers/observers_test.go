package observers

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/saynalabs/sayna/pkg/session"
)

func change(id string, from, to session.State, at time.Time, reason string) session.StateChange {
	return session.StateChange{
		SessionID: id,
		FromState: from,
		ToState:   to,
		Timestamp: at,
		Reason:    reason,
	}
}

func TestTimelineObserverWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	obs := NewTimelineObserver(dir)

	now := time.Now()
	obs.OnStateChange(change("sess-1", session.StateIdle, session.StateListening, now, "button press"))
	obs.OnStateChange(change("sess-1", session.StateListening, session.StateIdle, now.Add(time.Second), "recording empty"))
	_ = obs.Close()

	b, err := os.ReadFile(filepath.Join(dir, "sess-1.jsonl"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"to":"LISTENING"`) {
		t.Fatalf("unexpected first entry: %s", lines[0])
	}
	if !strings.Contains(lines[1], "recording empty") {
		t.Fatalf("unexpected second entry: %s", lines[1])
	}
}

func TestTimelineObserverIgnoresEmptySessionID(t *testing.T) {
	dir := t.TempDir()
	obs := NewTimelineObserver(dir)
	obs.OnStateChange(change("", session.StateIdle, session.StateListening, time.Now(), ""))
	_ = obs.Close()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files, got %d", len(entries))
	}
}

func TestLatencyObserverLogsOnIdle(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	obs := NewLatencyObserver(log)

	start := time.Now()
	obs.OnStateChange(change("sess-2", session.StateIdle, session.StateListening, start, "button press"))
	obs.OnStateChange(change("sess-2", session.StateListening, session.StateTranscribing, start.Add(2*time.Second), ""))
	obs.OnStateChange(change("sess-2", session.StateTranscribing, session.StateDialoging, start.Add(3*time.Second), ""))
	obs.OnStateChange(change("sess-2", session.StateDialoging, session.StateSpeaking, start.Add(5*time.Second), ""))

	if buf.Len() != 0 {
		t.Fatalf("must not log before session returns to idle: %s", buf.String())
	}

	obs.OnStateChange(change("sess-2", session.StateSpeaking, session.StateIdle, start.Add(6*time.Second), "session complete"))
	out := buf.String()
	if !strings.Contains(out, "listening_ms=2000") {
		t.Fatalf("expected listening_ms=2000 in %q", out)
	}
	if !strings.Contains(out, "total_ms=6000") {
		t.Fatalf("expected total_ms=6000 in %q", out)
	}

	obs.mu.Lock()
	n := len(obs.traces)
	obs.mu.Unlock()
	if n != 0 {
		t.Fatalf("trace must be dropped after logging, %d left", n)
	}
}

func TestLatencyObserverShortCircuitedSession(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	obs := NewLatencyObserver(log)

	start := time.Now()
	obs.OnStateChange(change("sess-3", session.StateIdle, session.StateListening, start, "button press"))
	obs.OnStateChange(change("sess-3", session.StateListening, session.StateIdle, start.Add(time.Second), "recording empty"))

	out := buf.String()
	if !strings.Contains(out, "outcome=\"recording empty\"") {
		t.Fatalf("expected outcome in %q", out)
	}
	// Stages that never ran report -1.
	if !strings.Contains(out, "dialog_ms=-1") {
		t.Fatalf("expected dialog_ms=-1 in %q", out)
	}
}
