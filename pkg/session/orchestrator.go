package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/saynalabs/sayna/pkg/adapters/speak"
	"github.com/saynalabs/sayna/pkg/adapters/transcribe"
	"github.com/saynalabs/sayna/pkg/audio"
	"github.com/saynalabs/sayna/pkg/endpoint"
	"github.com/saynalabs/sayna/pkg/errorsx"
	"github.com/saynalabs/sayna/pkg/input"
	"github.com/saynalabs/sayna/pkg/logging"
	"github.com/saynalabs/sayna/pkg/resilience"
	"github.com/saynalabs/sayna/pkg/route"
)

// DialogService answers user text. Empty answers and errors both
// short-circuit the session.
type DialogService interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

// CaptureEngine is the capture side consumed by the orchestrator.
type CaptureEngine interface {
	Capture(ctx context.Context, sessionID string, ep *endpoint.Endpointer) (*audio.Recording, error)
}

type Config struct {
	// MinUtterance short-circuits recordings too short to transcribe,
	// avoiding pointless downstream calls.
	MinUtterance time.Duration
	// SilenceTimeout is the endpointer's trailing-silence interval.
	SilenceTimeout time.Duration
	// DialogTimeout is the hard bound on the dialog backend call.
	DialogTimeout time.Duration
	// ResetRetries bounds startup route reset attempts before escalating.
	ResetRetries int
	ResetBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.MinUtterance <= 0 {
		c.MinUtterance = 300 * time.Millisecond
	}
	if c.SilenceTimeout <= 0 {
		c.SilenceTimeout = time.Second
	}
	if c.DialogTimeout <= 0 {
		c.DialogTimeout = 60 * time.Second
	}
	if c.ResetRetries <= 0 {
		c.ResetRetries = 3
	}
	if c.ResetBackoff <= 0 {
		c.ResetBackoff = time.Second
	}
	return c
}

// Orchestrator drives one session at a time through the state machine. It
// is the sole writer of audio route transitions; the states being mutually
// exclusive serializes them without extra locking.
type Orchestrator struct {
	cfg           Config
	router        *route.Controller
	engine        CaptureEngine
	newClassifier func() endpoint.Classifier
	transcriber   transcribe.Transcriber
	dialog        DialogService
	speaker       speak.Speaker
	log           *slog.Logger

	mu        sync.Mutex
	state     State
	active    *Session
	listeners []StateListener

	wg sync.WaitGroup
}

func NewOrchestrator(
	cfg Config,
	router *route.Controller,
	engine CaptureEngine,
	newClassifier func() endpoint.Classifier,
	transcriber transcribe.Transcriber,
	dialog DialogService,
	speaker speak.Speaker,
	log *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:           cfg.withDefaults(),
		router:        router,
		engine:        engine,
		newClassifier: newClassifier,
		transcriber:   transcriber,
		dialog:        dialog,
		speaker:       speaker,
		state:         StateIdle,
		log:           logging.NewComponentLogger(log, "session"),
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// AddListener registers a listener for state change events.
func (o *Orchestrator) AddListener(l StateListener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
}

// Startup forces the audio route into the idle-safe playback profile. A
// route reset failure makes every later session pointless, so it is retried
// a bounded number of times and then escalated to the caller.
func (o *Orchestrator) Startup(ctx context.Context) error {
	policy := resilience.NewRetryPolicy(o.cfg.ResetRetries, o.cfg.ResetBackoff)
	err := policy.Do(func() error {
		return o.router.Reset(ctx)
	})
	if err != nil {
		o.log.Error("route reset failed, giving up", slog.String("error", err.Error()))
		return err
	}
	o.log.Info("audio route ready", slog.String("profile", o.router.Profile().String()))
	return nil
}

// Run performs the startup reset, then consumes button events until ctx is
// canceled. Only press edges of the configured trigger codes start a
// session; a press while one is active is ignored.
func (o *Orchestrator) Run(ctx context.Context, src input.Source, filter *input.TriggerFilter) error {
	if err := o.Startup(ctx); err != nil {
		return err
	}
	o.log.Info("waiting for button presses")
	for {
		ev, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return errorsx.Wrap(err, errorsx.ReasonInputRead)
		}
		if !filter.Match(ev) {
			continue
		}
		o.TriggerPress(ctx)
	}
}

// TriggerPress starts a session unless one is active. It returns whether a
// session was started; the session itself runs on its own goroutine so the
// event loop keeps draining presses (and ignoring them) while it runs.
func (o *Orchestrator) TriggerPress(ctx context.Context) bool {
	o.mu.Lock()
	// active guards the window between the press and the goroutine's first
	// transition, when state still reads Idle.
	if o.state != StateIdle || o.active != nil {
		state := o.state
		o.mu.Unlock()
		o.log.Info("button press ignored, session active", slog.String("state", state.String()))
		return false
	}
	sess := newSession()
	o.active = sess
	o.mu.Unlock()

	o.log.Info("button press, starting session", slog.String("session_id", sess.ID))
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.runSession(ctx, sess)
	}()
	return true
}

// Drain blocks until the in-flight session, if any, has finished.
func (o *Orchestrator) Drain() error {
	o.wg.Wait()
	return nil
}

func (o *Orchestrator) runSession(ctx context.Context, sess *Session) {
	o.transition(sess, StateListening, "button press")

	if err := o.router.SetProfile(ctx, route.ProfileCapture); err != nil {
		o.fail(ctx, sess, "capture route", err)
		return
	}

	ep := endpoint.New(o.newClassifier(), o.cfg.SilenceTimeout)
	rec, err := o.engine.Capture(ctx, sess.ID, ep)
	if err != nil {
		o.fail(ctx, sess, "capture", err)
		return
	}
	sess.Recording = rec
	if rec.Empty(o.cfg.MinUtterance) {
		o.log.Info("recording too short, skipping pipeline",
			slog.String("session_id", sess.ID),
			slog.Int64("audio_ms", rec.Duration().Milliseconds()))
		o.finish(ctx, sess, "recording empty")
		return
	}

	o.transition(sess, StateTranscribing, "recording complete")
	text, err := o.transcriber.Transcribe(ctx, rec)
	if err != nil {
		o.fail(ctx, sess, "transcription", err)
		return
	}
	if text == "" {
		o.log.Info("no speech recognized", slog.String("session_id", sess.ID))
		o.finish(ctx, sess, "transcript empty")
		return
	}
	sess.Transcript = text

	o.transition(sess, StateDialoging, "transcript ready")
	dctx, cancel := context.WithTimeout(ctx, o.cfg.DialogTimeout)
	answer, err := o.dialog.Ask(dctx, text)
	cancel()
	if err != nil {
		o.fail(ctx, sess, "dialog", err)
		return
	}
	if answer == "" {
		o.log.Info("empty dialog answer", slog.String("session_id", sess.ID))
		o.finish(ctx, sess, "answer empty")
		return
	}
	sess.Answer = answer

	// Playback route is established before Speaking is entered, so the
	// capture profile is never active in that state.
	if err := o.router.SetProfile(ctx, route.ProfilePlayback); err != nil {
		o.fail(ctx, sess, "playback route", err)
		return
	}
	o.transition(sess, StateSpeaking, "answer ready")
	if err := o.speaker.Speak(ctx, answer); err != nil {
		// Not fatal and not retried; the user hears silence.
		o.log.Error("synthesis failed",
			slog.String("session_id", sess.ID),
			slog.String("reason", string(errorsx.Reason(err))),
			slog.String("error", err.Error()))
	}
	o.finish(ctx, sess, "session complete")
}

// finish returns to Idle, leaving the route in the idle-safe playback
// profile (best effort).
func (o *Orchestrator) finish(ctx context.Context, sess *Session, reason string) {
	o.restorePlayback(ctx)
	o.transition(sess, StateIdle, reason)
	o.mu.Lock()
	o.active = nil
	o.mu.Unlock()
}

func (o *Orchestrator) fail(ctx context.Context, sess *Session, stage string, err error) {
	o.log.Error("session failed",
		slog.String("session_id", sess.ID),
		slog.String("stage", stage),
		slog.String("reason", string(errorsx.Reason(err))),
		slog.String("error", err.Error()))
	o.finish(ctx, sess, "failed: "+stage)
}

func (o *Orchestrator) restorePlayback(ctx context.Context) {
	if o.router.Profile() == route.ProfilePlayback {
		return
	}
	if err := o.router.SetProfile(ctx, route.ProfilePlayback); err != nil {
		o.log.Error("could not restore playback profile", slog.String("error", err.Error()))
	}
}

// transition moves to a new state with validation and notifies listeners.
func (o *Orchestrator) transition(sess *Session, to State, reason string) {
	o.mu.Lock()
	from := o.state
	if !transitionValid(from, to) {
		o.mu.Unlock()
		// Transitions are driven by the single session goroutine; an
		// invalid one is a programming error.
		panic((&InvalidTransitionError{From: from, To: to}).Error())
	}
	o.state = to
	listeners := make([]StateListener, len(o.listeners))
	copy(listeners, o.listeners)
	o.mu.Unlock()

	event := StateChange{
		SessionID: sess.ID,
		FromState: from,
		ToState:   to,
		Timestamp: time.Now(),
		Reason:    reason,
	}
	for _, l := range listeners {
		l.OnStateChange(event)
	}
	o.log.Debug("state change",
		slog.String("session_id", sess.ID),
		slog.String("from", from.String()),
		slog.String("to", to.String()),
		slog.String("reason", reason))
}
