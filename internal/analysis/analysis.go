// Package analysis computes read-only statistics over a parsed document.
// Everything works off the document in memory; nothing reparses bytes.
package analysis

import (
	"github.com/burstmeman/Midi2Keys-sub000/internal/mapping"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Summary describes a document at a glance.
type Summary struct {
	Format          int
	TrackCount      int
	DurationMs      float64
	NoteCount       int
	TempoCount      int
	InitialBPM      float64
	MinNote         uint8
	MaxNote         uint8
	NotesPerChannel [16]int
}

// Summarize walks the document's events once and aggregates.
func Summarize(doc *contracts.MidiDocument) Summary {
	s := Summary{
		Format:     doc.Format,
		TrackCount: doc.TrackCount,
		DurationMs: doc.DurationMs(),
		TempoCount: len(doc.TempoChanges),
		MinNote:    127,
	}
	if len(doc.TempoChanges) > 0 {
		s.InitialBPM = doc.TempoChanges[0].BPM()
	}

	for _, ev := range doc.Events {
		if !ev.NoteOn {
			continue
		}
		s.NoteCount++
		if ev.Channel < 16 {
			s.NotesPerChannel[ev.Channel]++
		}
		if ev.Note < s.MinNote {
			s.MinNote = ev.Note
		}
		if ev.Note > s.MaxNote {
			s.MaxNote = ev.Note
		}
	}
	if s.NoteCount == 0 {
		s.MinNote = 0
	}
	return s
}

// Coverage reports how much of a document a profile can actually play
// under a given transpose and note shift.
type Coverage struct {
	Mapped        int     // Note ons that resolve to a key action.
	Dropped       int     // Note ons that resolve to nothing.
	UnmappedNotes []uint8 // Distinct source notes that never resolved, ascending.
}

// Ratio returns the mapped fraction, zero for an empty document.
func (c Coverage) Ratio() float64 {
	total := c.Mapped + c.Dropped
	if total == 0 {
		return 0
	}
	return float64(c.Mapped) / float64(total)
}

// ProfileCoverage resolves every note on in the document against the
// profile, counting hits and collecting the notes that fall through.
func ProfileCoverage(doc *contracts.MidiDocument, profile *contracts.Profile, transpose, noteShift int) Coverage {
	var cov Coverage
	var unmapped [128]bool

	for _, ev := range doc.Events {
		if !ev.NoteOn {
			continue
		}
		if _, ok := mapping.Resolve(ev, profile, transpose, noteShift); ok {
			cov.Mapped++
			continue
		}
		cov.Dropped++
		unmapped[ev.Note] = true
	}

	for note, miss := range unmapped {
		if miss {
			cov.UnmappedNotes = append(cov.UnmappedNotes, uint8(note))
		}
	}
	return cov
}
