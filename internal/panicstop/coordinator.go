// Package panicstop provides the emergency stop path: halt the engine
// and release every key. The trigger must always work, even with no
// session active or while a previous trigger is still running.
package panicstop

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/burstmeman/Midi2Keys-sub000/internal/keystate"
	"github.com/burstmeman/Midi2Keys-sub000/internal/logger"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Halter is the slice of the engine the coordinator needs: a non-blocking
// immediate halt request.
type Halter interface {
	Interrupt()
}

// Coordinator owns independent held-key bookkeeping and the
// release-everything sequence. It learns about presses by decorating the
// key sink (see Sink), so its view does not depend on the engine's own
// cleanup being correct.
type Coordinator struct {
	logger contracts.Logger
	sink   contracts.KeySink
	held   *keystate.Set

	inFlight atomic.Bool

	mu        sync.Mutex
	engine    Halter
	listeners []func()
}

// New builds a coordinator around the real key sink.
func New(sink contracts.KeySink, log contracts.Logger) *Coordinator {
	if log == nil {
		log = logger.NewNop()
	}
	return &Coordinator{logger: log, sink: sink, held: keystate.NewSet()}
}

// Sink returns the tracking decorator writers should deliver key actions
// through. Every successful press and every release is mirrored into the
// coordinator's bookkeeping on the way to the real sink.
func (c *Coordinator) Sink() contracts.KeySink {
	return &trackingSink{c: c}
}

// AttachEngine registers the engine to halt on trigger. Passing nil
// detaches.
func (c *Coordinator) AttachEngine(h Halter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.engine = h
}

// AddListener registers a callback run asynchronously after each
// completed panic stop.
func (c *Coordinator) AddListener(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// Pressed reports how many combinations the coordinator believes are
// held.
func (c *Coordinator) Pressed() int {
	return c.held.Len()
}

// TriggerPanicStop halts the attached engine, unconditionally releases
// every key through the sink (even when the bookkeeping is empty), clears
// the bookkeeping, and notifies listeners. Concurrent triggers collapse
// into the one in flight. It never returns an error; sink faults are
// logged and swallowed.
func (c *Coordinator) TriggerPanicStop() {
	if !c.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer c.inFlight.Store(false)
	start := time.Now()

	c.mu.Lock()
	engine := c.engine
	listeners := append([]func(){}, c.listeners...)
	c.mu.Unlock()

	if engine != nil {
		engine.Interrupt()
	}

	c.held.Drain()
	if err := c.sink.ReleaseAll(); err != nil {
		c.logger.Error("panic stop: release all failed", c.logger.Field().Error("error", err))
	}

	c.logger.Warn("panic stop executed", c.logger.Field().Duration("took", time.Since(start)))

	for _, fn := range listeners {
		go func(fn func()) {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("panic stop listener panicked")
				}
			}()
			fn()
		}(fn)
	}
}

// trackingSink mirrors key traffic into the coordinator's bookkeeping.
type trackingSink struct {
	c *Coordinator
}

func (t *trackingSink) Press(key string) error {
	err := t.c.sink.Press(key)
	if err == nil {
		t.c.held.Add(contracts.KeyCombination{Key: key})
	}
	return err
}

func (t *trackingSink) Release(key string) error {
	t.c.held.Remove(contracts.KeyCombination{Key: key})
	return t.c.sink.Release(key)
}

func (t *trackingSink) PressCombo(combo contracts.KeyCombination) error {
	err := t.c.sink.PressCombo(combo)
	if err == nil {
		t.c.held.Add(combo)
	}
	return err
}

func (t *trackingSink) ReleaseCombo(combo contracts.KeyCombination) error {
	t.c.held.Remove(combo)
	return t.c.sink.ReleaseCombo(combo)
}

func (t *trackingSink) ReleaseAll() error {
	t.c.held.Drain()
	return t.c.sink.ReleaseAll()
}
