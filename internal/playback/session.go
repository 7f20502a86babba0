package playback

import (
	"sync"
	"time"

	"github.com/burstmeman/Midi2Keys-sub000/internal/keystate"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// noteID identifies a sounding note for press/release correspondence.
type noteID struct {
	note    uint8
	channel uint8
}

// session is the per-play state. The worker goroutine owns timeline,
// binding, and completed; the engine mutex guards the clock fields; held
// is internally synchronized because deferred releases race over it.
type session struct {
	timeline  []contracts.ScoreEvent
	profile   *contracts.Profile
	opts      contracts.PlaybackOptions
	noteShift int
	holdFor   time.Duration

	start       time.Time
	pausedAccum time.Duration
	pausedSince time.Time // zero while playing

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}

	held      *keystate.Set
	binding   map[noteID]contracts.KeyCombination
	completed bool
}

// requestStop signals the worker to halt. Safe to call from any
// goroutine, any number of times.
func (s *session) requestStop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// elapsedLocked computes the session position from absolute timestamps:
// wall clock minus start minus accumulated pauses, frozen at the pause
// instant while paused. Caller holds the engine mutex.
func (s *session) elapsedLocked(now time.Time) time.Duration {
	if !s.pausedSince.IsZero() {
		now = s.pausedSince
	}
	return now.Sub(s.start) - s.pausedAccum
}
