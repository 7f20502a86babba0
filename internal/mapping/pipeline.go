package mapping

import (
	"math"
	"sort"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// ApplyTransforms materializes one session timeline from a document:
// channel filtering, the note-on velocity threshold, quantization, and
// the tempo multiplier, followed by the canonical sort. The document is
// never mutated; every call returns a fresh slice.
//
// Quantization snaps an event to the nearest multiple of its grid, where
// the grid derives from the tempo in effect at the event's own tick. The
// tempo multiplier divides adjusted times afterwards, so a 2.0 multiplier
// halves every distance on the timeline.
func ApplyTransforms(doc *contracts.MidiDocument, opts contracts.PlaybackOptions) []contracts.ScoreEvent {
	opts = opts.Normalized()
	grid := opts.Quantization.GridFactor()

	out := make([]contracts.ScoreEvent, 0, len(doc.Events))
	for _, ev := range doc.Events {
		if opts.IgnoresChannel(ev.Channel) {
			continue
		}
		if ev.NoteOn && ev.Velocity < opts.MinVelocity {
			continue
		}
		if grid > 0 {
			if step := doc.QuarterMsAt(ev.Tick) * grid; step > 0 {
				ev.TimeMs = math.Round(ev.TimeMs/step) * step
			}
		}
		ev.TimeMs /= opts.TempoMultiplier
		out = append(out, ev)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TimeMs != out[j].TimeMs {
			return out[i].TimeMs < out[j].TimeMs
		}
		return !out[i].NoteOn && out[j].NoteOn
	})
	return out
}
