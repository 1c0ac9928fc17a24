package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/saynalabs/sayna/pkg/audio"
)

// State of the session machine. Idle is both the initial and the terminal
// state; every failure path leads back to it.
type State int

const (
	StateIdle State = iota
	StateListening
	StateTranscribing
	StateDialoging
	StateSpeaking
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateTranscribing:
		return "TRANSCRIBING"
	case StateDialoging:
		return "DIALOGING"
	case StateSpeaking:
		return "SPEAKING"
	default:
		return "UNKNOWN"
	}
}

// StateChange represents a state transition event.
type StateChange struct {
	SessionID string
	FromState State
	ToState   State
	Timestamp time.Time
	Reason    string
}

// StateListener observes session state changes.
type StateListener interface {
	OnStateChange(event StateChange)
}

// InvalidTransitionError represents an invalid state transition attempt
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return "invalid state transition from " + e.From.String() + " to " + e.To.String()
}

// validTransitions encodes the machine: forward progress stage by stage,
// and a short-circuit back to Idle from every post-Idle state.
var validTransitions = map[State][]State{
	StateIdle:         {StateListening},
	StateListening:    {StateTranscribing, StateIdle},
	StateTranscribing: {StateDialoging, StateIdle},
	StateDialoging:    {StateSpeaking, StateIdle},
	StateSpeaking:     {StateIdle},
}

func transitionValid(from, to State) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Session is one button-triggered interaction. At most one exists at a
// time; it is discarded when the machine returns to Idle.
type Session struct {
	ID         string
	StartedAt  time.Time
	Recording  *audio.Recording
	Transcript string
	Answer     string
}

func newSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}
