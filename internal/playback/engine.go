// Package playback implements the score playback engine: one worker
// goroutine per session, wall-clock scheduling against the adjusted
// timeline, cooperative pause and stop signals, and unconditional key
// cleanup on every exit path.
package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/burstmeman/Midi2Keys-sub000/internal/keystate"
	"github.com/burstmeman/Midi2Keys-sub000/internal/logger"
	"github.com/burstmeman/Midi2Keys-sub000/internal/mapping"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Play rejection errors.
var (
	// ErrNoDocument means Play was handed a nil document.
	ErrNoDocument = errors.New("no document to play")
	// ErrNoProfile means Play was handed no usable mapping profile.
	ErrNoProfile = errors.New("no mapping profile")
	// ErrPlaybackBusy means a session is already active; the engine runs
	// at most one.
	ErrPlaybackBusy = errors.New("a playback session is already active")
)

// pollQuantum bounds every worker sleep so stop and pause signals are
// observed within ten milliseconds.
const pollQuantum = 10 * time.Millisecond

const defaultEventBuffer = 64

// Config wires an engine's collaborators explicitly.
type Config struct {
	Logger      contracts.Logger       // Optional; discards when nil.
	Sink        contracts.KeySink      // Required destination for key actions.
	Panic       contracts.PanicStopper // Optional coordinator PanicStop delegates to.
	EventBuffer int                    // Observer channel capacity; defaults when zero.
}

// Engine drives at most one playback session at a time. Use NewEngine;
// the zero value is not usable.
type Engine struct {
	logger contracts.Logger
	sink   contracts.KeySink
	panic  contracts.PanicStopper
	events chan contracts.PlaybackEvent

	mu    sync.Mutex
	state contracts.PlaybackState
	sess  *session
}

// NewEngine builds an engine around the given collaborators.
func NewEngine(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	return &Engine{
		logger: cfg.Logger,
		sink:   cfg.Sink,
		panic:  cfg.Panic,
		events: make(chan contracts.PlaybackEvent, cfg.EventBuffer),
		state:  contracts.StateStopped,
	}
}

// Play starts a session over the document with the profile's options and
// the given per-score note shift. It returns once the worker is launched;
// progress is observable through Watch. Exactly one session may be
// active; a second Play is rejected with ErrPlaybackBusy and leaves the
// running session untouched.
func (e *Engine) Play(doc *contracts.MidiDocument, profile *contracts.Profile, noteShift int) error {
	if doc == nil {
		return ErrNoDocument
	}
	if profile == nil || len(profile.Mappings) == 0 {
		return ErrNoProfile
	}

	opts := profile.Options.Normalized()
	s := &session{
		timeline:  mapping.ApplyTransforms(doc, opts),
		profile:   profile,
		opts:      opts,
		noteShift: contracts.ClampNoteShift(noteShift),
		holdFor:   time.Duration(opts.KeyPressDurationMs) * time.Millisecond,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
		held:      keystate.NewSet(),
		binding:   make(map[noteID]contracts.KeyCombination),
	}

	e.mu.Lock()
	if e.sess != nil {
		e.mu.Unlock()
		e.logger.Warn("play rejected, a session is already active")
		return ErrPlaybackBusy
	}
	s.start = time.Now()
	e.sess = s
	e.state = contracts.StatePlaying
	e.mu.Unlock()

	e.logger.Info("playback session started",
		e.logger.Field().Int("events", len(s.timeline)),
		e.logger.Field().Int("noteShift", s.noteShift),
		e.logger.Field().Float64("tempoMultiplier", opts.TempoMultiplier))
	e.emit(contracts.PlaybackEvent{Kind: contracts.EventStateChanged, State: contracts.StatePlaying})

	go e.run(s)
	return nil
}

// Pause freezes the running session. Position stops advancing until
// Resume. A no-op unless the engine is Playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.state != contracts.StatePlaying {
		return
	}
	e.sess.pausedSince = time.Now()
	e.state = contracts.StatePaused
	e.emit(contracts.PlaybackEvent{Kind: contracts.EventStateChanged, State: contracts.StatePaused})
}

// Resume continues a paused session. The paused interval is folded into
// the accumulator so it never counts toward the session position. A no-op
// unless the engine is Paused.
func (e *Engine) Resume() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil || e.state != contracts.StatePaused {
		return
	}
	e.sess.pausedAccum += time.Since(e.sess.pausedSince)
	e.sess.pausedSince = time.Time{}
	e.state = contracts.StatePlaying
	e.emit(contracts.PlaybackEvent{Kind: contracts.EventStateChanged, State: contracts.StatePlaying})
}

// Stop requests a cooperative halt and waits for the worker to finish its
// cleanup, so every key is up when Stop returns. A no-op when nothing is
// playing.
func (e *Engine) Stop() {
	e.mu.Lock()
	s := e.sess
	e.mu.Unlock()
	if s == nil {
		return
	}
	s.requestStop()
	<-s.done
}

// Interrupt requests an immediate halt without waiting for the worker.
// The panic coordinator calls this; the worker observes the signal within
// one poll quantum and runs the same cleanup as Stop.
func (e *Engine) Interrupt() {
	e.mu.Lock()
	s := e.sess
	e.mu.Unlock()
	if s != nil {
		s.requestStop()
	}
}

// PanicStop delegates to the attached panic coordinator, or, when
// constructed without one, interrupts the session and releases
// everything through the sink directly.
func (e *Engine) PanicStop() {
	if e.panic != nil {
		e.panic.TriggerPanicStop()
		return
	}
	e.Interrupt()
	if err := e.sink.ReleaseAll(); err != nil {
		e.logger.Error("panic release failed", e.logger.Field().Error("error", err))
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() contracts.PlaybackState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Position returns how far into the adjusted timeline the session is.
// Paused time is excluded; a stopped engine reports zero. The value is
// derived from the wall clock on every call, so it cannot drift.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sess == nil {
		return 0
	}
	return e.sess.elapsedLocked(time.Now())
}

// Watch returns the observer channel. Sends never block the worker; a
// lagging consumer loses events instead of stalling playback.
func (e *Engine) Watch() <-chan contracts.PlaybackEvent {
	return e.events
}

// Wait blocks until the current session ends. Returns immediately when
// nothing is playing.
func (e *Engine) Wait() {
	e.mu.Lock()
	s := e.sess
	e.mu.Unlock()
	if s == nil {
		return
	}
	<-s.done
}

func (e *Engine) emit(ev contracts.PlaybackEvent) {
	select {
	case e.events <- ev:
	default:
	}
}

// run is the session worker. It walks the prepared timeline, sleeping in
// bounded quanta toward each event's adjusted time, and dispatches
// through the mapping rules. finish runs on every way out, including a
// recovered panic.
func (e *Engine) run(s *session) {
	defer e.finish(s)
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("playback worker fault: %v", r)
			e.logger.Error("playback worker panicked", e.logger.Field().Error("error", err))
			e.emit(contracts.PlaybackEvent{Kind: contracts.EventError, Err: err})
		}
	}()

	for _, ev := range s.timeline {
		if !e.waitUntil(s, ev.TimeMs) {
			return
		}
		if err := e.dispatch(s, ev); err != nil {
			e.logger.Error("key dispatch failed",
				e.logger.Field().Uint8("note", ev.Note),
				e.logger.Field().Error("error", err))
			e.emit(contracts.PlaybackEvent{Kind: contracts.EventError, Err: err})
			return
		}
	}
	s.completed = true
}

// waitUntil sleeps toward the adjusted event time, at most one poll
// quantum at a time, honoring pause and stop. It reports false when the
// session was stopped while waiting.
func (e *Engine) waitUntil(s *session, timeMs float64) bool {
	target := time.Duration(timeMs * float64(time.Millisecond))
	for {
		select {
		case <-s.stop:
			return false
		default:
		}

		e.mu.Lock()
		paused := !s.pausedSince.IsZero()
		elapsed := s.elapsedLocked(time.Now())
		e.mu.Unlock()

		wait := pollQuantum
		if !paused {
			wait = target - elapsed
			if wait <= 0 {
				return true
			}
			if wait > pollQuantum {
				wait = pollQuantum
			}
		}

		select {
		case <-s.stop:
			return false
		case <-time.After(wait):
		}
	}
}

// dispatch resolves one event and drives the sink. Note ons press and
// record the (note, channel) pairing; note offs release whatever their
// pairing pressed. With a fixed hold duration the release is instead a
// deferred fire-and-forget timer and note offs are ignored.
func (e *Engine) dispatch(s *session, ev contracts.ScoreEvent) error {
	if ev.NoteOn {
		action, ok := mapping.Resolve(ev, s.profile, s.opts.Transpose, s.noteShift)
		if !ok {
			return nil
		}
		if !s.held.Add(action.Combo) {
			// The combination is already down for an earlier note; a
			// second press would only confuse the sink.
			return nil
		}
		if err := e.sink.PressCombo(action.Combo); err != nil {
			s.held.Remove(action.Combo)
			return err
		}
		if s.holdFor > 0 {
			combo := action.Combo
			time.AfterFunc(s.holdFor, func() { e.releaseDeferred(s, combo) })
		} else {
			s.binding[noteID{ev.Note, ev.Channel}] = action.Combo
		}
		e.emit(contracts.PlaybackEvent{
			Kind:     contracts.EventKeyAction,
			Key:      action.Combo.Label(),
			Press:    true,
			Position: e.Position(),
		})
		e.emit(contracts.PlaybackEvent{Kind: contracts.EventProgress, Position: e.Position()})
		return nil
	}

	if s.holdFor > 0 {
		return nil
	}
	id := noteID{ev.Note, ev.Channel}
	combo, ok := s.binding[id]
	if !ok {
		// Unmatched note off; nothing was pressed for it.
		return nil
	}
	delete(s.binding, id)
	if !s.held.Remove(combo) {
		return nil
	}
	if err := e.sink.ReleaseCombo(combo); err != nil {
		return err
	}
	e.emit(contracts.PlaybackEvent{
		Kind:     contracts.EventKeyAction,
		Key:      combo.Label(),
		Press:    false,
		Position: e.Position(),
	})
	e.emit(contracts.PlaybackEvent{Kind: contracts.EventProgress, Position: e.Position()})
	return nil
}

// releaseDeferred is the fire-and-forget release used with a fixed hold
// duration. It can fire after the session ended; losing the held-set race
// makes it a no-op, so a key is never released twice.
func (e *Engine) releaseDeferred(s *session, combo contracts.KeyCombination) {
	if !s.held.Remove(combo) {
		return
	}
	if err := e.sink.ReleaseCombo(combo); err != nil {
		e.logger.Error("deferred release failed",
			e.logger.Field().String("combo", combo.Label()),
			e.logger.Field().Error("error", err))
		return
	}
	e.emit(contracts.PlaybackEvent{Kind: contracts.EventKeyAction, Key: combo.Label(), Press: false})
}

// finish is the single exit path for a session: release whatever is
// still held, clear the engine's session slot, report Stopped, and only
// then unblock Stop and Wait callers.
func (e *Engine) finish(s *session) {
	for _, combo := range s.held.Drain() {
		if err := e.sink.ReleaseCombo(combo); err != nil {
			e.logger.Error("cleanup release failed",
				e.logger.Field().String("combo", combo.Label()),
				e.logger.Field().Error("error", err))
		}
	}

	e.mu.Lock()
	if e.sess == s {
		e.sess = nil
		e.state = contracts.StateStopped
	}
	e.mu.Unlock()

	e.emit(contracts.PlaybackEvent{Kind: contracts.EventStateChanged, State: contracts.StateStopped})
	if s.completed {
		e.emit(contracts.PlaybackEvent{Kind: contracts.EventFinished})
	}
	e.logger.Info("playback session ended", e.logger.Field().Bool("completed", s.completed))

	close(s.done)
}
