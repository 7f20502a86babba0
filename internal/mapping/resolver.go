// Package mapping holds the pure note-to-key resolution rules and the
// timeline transform pipeline. Nothing in here performs I/O or keeps
// state; the playback engine and the live input router both dispatch
// through it.
package mapping

import "github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"

// Transpose shifts a note by the given number of semitones, clamped to
// the MIDI range. A result outside 0-127 clamps to the boundary instead
// of being dropped.
func Transpose(note uint8, semitones int) uint8 {
	n := int(note) + semitones
	if n < 0 {
		return 0
	}
	if n > 127 {
		return 127
	}
	return uint8(n)
}

// Resolve maps one score event to a key action. The played note is the
// event note transposed; the lookup note then reverses the per-score note
// shift, so a profile authored around middle C still answers for a score
// played two semitones up. Mapping selection scans the profile in order:
// first an exact channel match, then an any-channel fallback. Note ons
// are additionally gated by the mapping's velocity window. No match, or a
// gated note on, resolves to no action.
func Resolve(ev contracts.ScoreEvent, profile *contracts.Profile, transpose, noteShift int) (contracts.KeyAction, bool) {
	if profile == nil {
		return contracts.KeyAction{}, false
	}
	lookup := Transpose(Transpose(ev.Note, transpose), -noteShift)
	m, ok := findMapping(profile, lookup, ev.Channel)
	if !ok {
		return contracts.KeyAction{}, false
	}
	if ev.NoteOn && !m.InVelocityWindow(ev.Velocity) {
		return contracts.KeyAction{}, false
	}
	return contracts.KeyAction{Combo: m.Combo, Press: ev.NoteOn}, true
}

// findMapping returns the first mapping claiming the note on the exact
// channel, falling back to the first any-channel mapping. Profile order
// keeps the scan deterministic.
func findMapping(p *contracts.Profile, note uint8, ch uint8) (contracts.NoteMapping, bool) {
	for _, m := range p.Mappings {
		if m.Note == note && m.Channel != contracts.AnyChannel && m.MatchesChannel(ch) {
			return m, true
		}
	}
	for _, m := range p.Mappings {
		if m.Note == note && m.Channel == contracts.AnyChannel {
			return m, true
		}
	}
	return contracts.NoteMapping{}, false
}
