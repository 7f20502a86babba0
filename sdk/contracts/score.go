package contracts

import "time"

// DefaultMicrosPerQuarter is the tempo assumed until the first tempo meta
// event, 500000 microseconds per quarter note (120 BPM).
const DefaultMicrosPerQuarter = 500000

// TempoChange marks the tempo in effect from a tick position onward.
type TempoChange struct {
	Tick             int64   // Absolute tick position where the tempo takes effect.
	MicrosPerQuarter int64   // Microseconds per quarter note.
	TimeMs           float64 // Absolute position of the change in milliseconds.
}

// BPM returns the tempo expressed in beats per minute.
func (t TempoChange) BPM() float64 {
	if t.MicrosPerQuarter <= 0 {
		return 0
	}
	return 60000000.0 / float64(t.MicrosPerQuarter)
}

// TimeSignature is the meter of the score, defaulting to 4/4.
type TimeSignature struct {
	Numerator   uint8
	Denominator uint8
}

// ScoreEvent is one note boundary on the merged document timeline.
type ScoreEvent struct {
	Tick     int64   // Absolute tick position in the source track.
	TimeMs   float64 // Position in milliseconds, resolved through the tempo map.
	Channel  uint8   // MIDI channel (0-15).
	Note     uint8   // MIDI note number (0-127).
	Velocity uint8   // Note velocity (0-127); zero only on note offs.
	NoteOn   bool    // True for a note start, false for a note end.
	Track    int     // Index of the source track.
}

// MidiDocument is the parsed, immutable form of a MIDI score. Events are
// merged across tracks and sorted by TimeMs; at equal times note offs come
// before note ons. Consumers must not mutate the slices.
type MidiDocument struct {
	Format        int           // 0 (single track) or 1 (multi track), inferred from content.
	TrackCount    int           // Number of tracks in the source file.
	Resolution    int           // Ticks per quarter note.
	TimeSignature TimeSignature // First time signature found, 4/4 when absent.
	TempoChanges  []TempoChange // Sorted by tick; always holds an entry at tick 0.
	Events        []ScoreEvent  // Sorted timeline of note boundaries.
}

// TempoAt returns the tempo change in effect at the given tick.
func (d *MidiDocument) TempoAt(tick int64) TempoChange {
	if len(d.TempoChanges) == 0 {
		return TempoChange{MicrosPerQuarter: DefaultMicrosPerQuarter}
	}
	current := d.TempoChanges[0]
	for _, tc := range d.TempoChanges[1:] {
		if tc.Tick > tick {
			break
		}
		current = tc
	}
	return current
}

// BPMAt returns the tempo in beats per minute in effect at the given tick.
func (d *MidiDocument) BPMAt(tick int64) float64 {
	return d.TempoAt(tick).BPM()
}

// TicksToMs converts an absolute tick position to milliseconds by walking
// the tempo map: within one tempo segment a tick lasts
// microsPerQuarter / (1000 * resolution) milliseconds.
func (d *MidiDocument) TicksToMs(tick int64) float64 {
	if d.Resolution <= 0 {
		return 0
	}
	tc := d.TempoAt(tick)
	return tc.TimeMs + float64(tick-tc.Tick)*float64(tc.MicrosPerQuarter)/(1000.0*float64(d.Resolution))
}

// QuarterMsAt returns the length of one quarter note, in milliseconds, at
// the tempo in effect at the given tick.
func (d *MidiDocument) QuarterMsAt(tick int64) float64 {
	return float64(d.TempoAt(tick).MicrosPerQuarter) / 1000.0
}

// DurationMs returns the time of the last event in milliseconds.
func (d *MidiDocument) DurationMs() float64 {
	if len(d.Events) == 0 {
		return 0
	}
	return d.Events[len(d.Events)-1].TimeMs
}

// Duration returns the document length as a time.Duration.
func (d *MidiDocument) Duration() time.Duration {
	return time.Duration(d.DurationMs() * float64(time.Millisecond))
}

// NoteCount returns the number of note on events in the document.
func (d *MidiDocument) NoteCount() int {
	n := 0
	for _, ev := range d.Events {
		if ev.NoteOn {
			n++
		}
	}
	return n
}
