// Package live routes a captured MIDI stream through the mapping rules
// to the key sink, so a connected instrument plays the keyboard with the
// same semantics as score playback: ignored channels, the velocity
// threshold, transpose and note shift, and note-off driven or fixed-hold
// releases.
package live

import (
	"sync"
	"time"

	"github.com/burstmeman/Midi2Keys-sub000/internal/keystate"
	"github.com/burstmeman/Midi2Keys-sub000/internal/logger"
	"github.com/burstmeman/Midi2Keys-sub000/internal/mapping"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Config wires a router's collaborators.
type Config struct {
	Logger    contracts.Logger  // Optional; discards when nil.
	Sink      contracts.KeySink // Required destination for key actions.
	Profile   *contracts.Profile
	NoteShift int
}

// Router consumes live input events and dispatches key actions. One
// goroutine per router; Stop releases everything it still holds.
type Router struct {
	logger    contracts.Logger
	sink      contracts.KeySink
	profile   *contracts.Profile
	opts      contracts.PlaybackOptions
	noteShift int
	holdFor   time.Duration

	held *keystate.Set

	mu      sync.Mutex
	binding map[noteID]contracts.KeyCombination

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

type noteID struct {
	note    uint8
	channel uint8
}

// New builds a router. The profile's options are normalized the same way
// a playback session normalizes them.
func New(cfg Config) *Router {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}
	opts := contracts.DefaultPlaybackOptions()
	if cfg.Profile != nil {
		opts = cfg.Profile.Options.Normalized()
	}
	return &Router{
		logger:    cfg.Logger,
		sink:      cfg.Sink,
		profile:   cfg.Profile,
		opts:      opts,
		noteShift: contracts.ClampNoteShift(cfg.NoteShift),
		holdFor:   time.Duration(opts.KeyPressDurationMs) * time.Millisecond,
		held:      keystate.NewSet(),
		binding:   make(map[noteID]contracts.KeyCombination),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start consumes the event channel on its own goroutine until Stop is
// called or the channel closes.
func (r *Router) Start(events <-chan contracts.InputEvent) {
	r.startOnce.Do(func() {
		go r.loop(events)
	})
}

// Stop halts the router and waits until everything held is released.
func (r *Router) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// Flush releases every combination the router still holds. Idempotent;
// wired as a panic stop listener so the router's bookkeeping follows a
// coordinator-driven release.
func (r *Router) Flush() {
	for _, combo := range r.held.Drain() {
		if err := r.sink.ReleaseCombo(combo); err != nil {
			r.logger.Error("flush release failed",
				r.logger.Field().String("combo", combo.Label()),
				r.logger.Field().Error("error", err))
		}
	}
	r.mu.Lock()
	r.binding = make(map[noteID]contracts.KeyCombination)
	r.mu.Unlock()
}

func (r *Router) loop(events <-chan contracts.InputEvent) {
	defer close(r.done)
	defer r.Flush()

	for {
		select {
		case <-r.stop:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.handle(ev)
		}
	}
}

// handle applies the playback transform semantics to one live event and
// drives the sink. Faults are logged, not fatal: a live stream should
// survive one refused key.
func (r *Router) handle(ev contracts.InputEvent) {
	isOn := ev.IsNoteOn()
	if !isOn && !ev.IsNoteOff() {
		return
	}
	if r.opts.IgnoresChannel(ev.Channel) {
		return
	}
	if isOn && ev.Velocity < r.opts.MinVelocity {
		return
	}

	score := contracts.ScoreEvent{
		Channel:  ev.Channel,
		Note:     ev.Note,
		Velocity: ev.Velocity,
		NoteOn:   isOn,
	}

	if isOn {
		action, ok := mapping.Resolve(score, r.profile, r.opts.Transpose, r.noteShift)
		if !ok {
			return
		}
		if !r.held.Add(action.Combo) {
			return
		}
		if err := r.sink.PressCombo(action.Combo); err != nil {
			r.held.Remove(action.Combo)
			r.logger.Error("live press failed",
				r.logger.Field().String("combo", action.Combo.Label()),
				r.logger.Field().Error("error", err))
			return
		}
		if r.holdFor > 0 {
			combo := action.Combo
			time.AfterFunc(r.holdFor, func() { r.releaseDeferred(combo) })
			return
		}
		r.mu.Lock()
		r.binding[noteID{ev.Note, ev.Channel}] = action.Combo
		r.mu.Unlock()
		return
	}

	if r.holdFor > 0 {
		return
	}
	id := noteID{ev.Note, ev.Channel}
	r.mu.Lock()
	combo, ok := r.binding[id]
	if ok {
		delete(r.binding, id)
	}
	r.mu.Unlock()
	if !ok || !r.held.Remove(combo) {
		return
	}
	if err := r.sink.ReleaseCombo(combo); err != nil {
		r.logger.Error("live release failed",
			r.logger.Field().String("combo", combo.Label()),
			r.logger.Field().Error("error", err))
	}
}

func (r *Router) releaseDeferred(combo contracts.KeyCombination) {
	if !r.held.Remove(combo) {
		return
	}
	if err := r.sink.ReleaseCombo(combo); err != nil {
		r.logger.Error("deferred release failed",
			r.logger.Field().String("combo", combo.Label()),
			r.logger.Field().Error("error", err))
	}
}
