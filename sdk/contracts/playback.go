package contracts

import "time"

// Quantization selects the rhythmic grid event times snap to.
type Quantization string

const (
	// QuantizeNone leaves event times untouched.
	QuantizeNone Quantization = "none"
	// QuantizeQuarter snaps to quarter-note boundaries.
	QuantizeQuarter Quantization = "quarter"
	// QuantizeEighth snaps to eighth-note boundaries.
	QuantizeEighth Quantization = "eighth"
	// QuantizeSixteenth snaps to sixteenth-note boundaries.
	QuantizeSixteenth Quantization = "sixteenth"
	// QuantizeThirtySecond snaps to thirty-second-note boundaries.
	QuantizeThirtySecond Quantization = "thirtysecond"
)

// GridFactor returns the grid step as a fraction of a quarter note, or 0
// when no quantization applies. Unknown values behave as QuantizeNone.
func (q Quantization) GridFactor() float64 {
	switch q {
	case QuantizeQuarter:
		return 1
	case QuantizeEighth:
		return 0.5
	case QuantizeSixteenth:
		return 0.25
	case QuantizeThirtySecond:
		return 0.125
	default:
		return 0
	}
}

// Playback option bounds. Values outside are clamped, never rejected.
const (
	MinTempoMultiplier    = 0.25
	MaxTempoMultiplier    = 4.0
	MaxTranspose          = 24
	MaxKeyPressDurationMs = 500
	MaxNoteShift          = 4
)

// PlaybackOptions tune how a score is transformed and dispatched during a
// session. The zero value is usable; Normalized fills in defaults.
type PlaybackOptions struct {
	TempoMultiplier    float64      `json:"tempoMultiplier"`              // Playback speed; 2.0 is twice as fast.
	Quantization       Quantization `json:"quantization"`                 // Timing grid to snap events to.
	MinVelocity        uint8        `json:"minVelocityThreshold"`         // Note ons below this velocity are dropped.
	IgnoredChannels    []uint8      `json:"ignoredChannels,omitempty"`    // Channels whose events are skipped entirely.
	Transpose          int          `json:"transpose"`                    // Semitone offset applied to every note.
	KeyPressDurationMs int          `json:"keyPressDurationMs"`           // Fixed hold time; 0 releases on the note off.
}

// DefaultPlaybackOptions returns the options a fresh profile starts from.
func DefaultPlaybackOptions() PlaybackOptions {
	return PlaybackOptions{
		TempoMultiplier: 1.0,
		Quantization:    QuantizeNone,
		MinVelocity:     1,
	}
}

// Normalized clamps every option into its documented range. A zero tempo
// multiplier and a zero velocity threshold are treated as unset.
func (o PlaybackOptions) Normalized() PlaybackOptions {
	if o.TempoMultiplier == 0 {
		o.TempoMultiplier = 1.0
	}
	if o.TempoMultiplier < MinTempoMultiplier {
		o.TempoMultiplier = MinTempoMultiplier
	}
	if o.TempoMultiplier > MaxTempoMultiplier {
		o.TempoMultiplier = MaxTempoMultiplier
	}
	if o.MinVelocity < 1 {
		o.MinVelocity = 1
	}
	if o.Transpose < -MaxTranspose {
		o.Transpose = -MaxTranspose
	}
	if o.Transpose > MaxTranspose {
		o.Transpose = MaxTranspose
	}
	if o.KeyPressDurationMs < 0 {
		o.KeyPressDurationMs = 0
	}
	if o.KeyPressDurationMs > MaxKeyPressDurationMs {
		o.KeyPressDurationMs = MaxKeyPressDurationMs
	}
	return o
}

// IgnoresChannel reports whether events on ch should be skipped.
func (o PlaybackOptions) IgnoresChannel(ch uint8) bool {
	for _, c := range o.IgnoredChannels {
		if c == ch {
			return true
		}
	}
	return false
}

// ClampNoteShift forces a per-score note shift into its allowed range.
func ClampNoteShift(shift int) int {
	if shift < -MaxNoteShift {
		return -MaxNoteShift
	}
	if shift > MaxNoteShift {
		return MaxNoteShift
	}
	return shift
}

// PlaybackState is the lifecycle state of the playback engine.
type PlaybackState int

const (
	// StateStopped means no session is active.
	StateStopped PlaybackState = iota
	// StatePlaying means the worker is dispatching events.
	StatePlaying
	// StatePaused means the session is frozen and can resume.
	StatePaused
)

func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlaybackEventKind discriminates observer notifications.
type PlaybackEventKind int

const (
	// EventStateChanged reports a lifecycle transition.
	EventStateChanged PlaybackEventKind = iota
	// EventProgress reports the current session position.
	EventProgress
	// EventKeyAction reports a key press or release that was dispatched.
	EventKeyAction
	// EventError reports a fault the session hit.
	EventError
	// EventFinished reports that a session ran to completion.
	EventFinished
)

// PlaybackEvent is one observer notification. Deliveries never block the
// engine; slow consumers lose events rather than stalling playback.
type PlaybackEvent struct {
	Kind     PlaybackEventKind
	State    PlaybackState // Set for EventStateChanged.
	Position time.Duration // Set for EventProgress and EventKeyAction.
	Key      string        // Combination label, set for EventKeyAction.
	Press    bool          // Direction of the key action.
	Err      error         // Set for EventError.
}

// Player drives at most one score playback session at a time.
type Player interface {
	Play(doc *MidiDocument, profile *Profile, noteShift int) error
	Pause()
	Resume()
	Stop()
	PanicStop()
	State() PlaybackState
	Position() time.Duration
	Watch() <-chan PlaybackEvent
	Wait()
}

// PanicStopper halts everything and releases every key immediately.
type PanicStopper interface {
	TriggerPanicStop()
}

// KeySink delivers simulated keyboard input to the operating system. A
// sink must tolerate releases of keys it never pressed.
type KeySink interface {
	Press(key string) error
	Release(key string) error
	PressCombo(combo KeyCombination) error
	ReleaseCombo(combo KeyCombination) error
	ReleaseAll() error
}
