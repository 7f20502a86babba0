// Package midifile parses Standard MIDI Files into the immutable document
// form the playback engine consumes. Decoding of the container is
// delegated to gomidi's smf package; this package owns header validation,
// the tempo map, and the millisecond-resolved merged event timeline.
package midifile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Parse failure classes. Wrapped errors always match one of these with
// errors.Is.
var (
	// ErrInvalidFormat reports bytes that are not a MIDI file at all.
	ErrInvalidFormat = errors.New("invalid midi file format")
	// ErrUnsupportedTiming reports SMPTE time division, which has no
	// tick-per-quarter resolution to schedule against.
	ErrUnsupportedTiming = errors.New("smpte time division is not supported")
	// ErrCorruptedTrack reports a header that checked out but a body that
	// could not be decoded.
	ErrCorruptedTrack = errors.New("corrupted midi track data")
)

// headerLen is the fixed size of the MThd chunk including its preamble.
const headerLen = 14

// Parse decodes a complete MIDI file into a MidiDocument: header
// validation, track decoding, tempo map construction, tick to millisecond
// resolution, and the merged sorted event timeline. The input slice is not
// retained. A file without any note events parses to a valid empty
// document.
func Parse(data []byte) (*contracts.MidiDocument, error) {
	if err := validateHeader(data); err != nil {
		return nil, err
	}

	s, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptedTrack, err)
	}

	mt, ok := s.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedTiming, s.TimeFormat.String())
	}

	doc := &contracts.MidiDocument{
		TrackCount:    len(s.Tracks),
		Resolution:    int(mt.Resolution()),
		TimeSignature: contracts.TimeSignature{Numerator: 4, Denominator: 4},
	}

	var (
		tempos          []contracts.TempoChange
		events          []contracts.ScoreEvent
		firstTrackNotes bool
		meterSeen       bool
	)

	for trackIdx, track := range s.Tracks {
		var abs int64
		for _, ev := range track {
			abs += int64(ev.Delta)

			var (
				ch, key, vel uint8
				num, denom   uint8
				bpm          float64
			)
			msg := ev.Message
			switch {
			case msg.GetNoteStart(&ch, &key, &vel):
				events = append(events, contracts.ScoreEvent{
					Tick:     abs,
					Channel:  ch,
					Note:     key,
					Velocity: vel,
					NoteOn:   true,
					Track:    trackIdx,
				})
				if trackIdx == 0 {
					firstTrackNotes = true
				}
			case msg.GetNoteEnd(&ch, &key):
				events = append(events, contracts.ScoreEvent{
					Tick:    abs,
					Channel: ch,
					Note:    key,
					NoteOn:  false,
					Track:   trackIdx,
				})
				if trackIdx == 0 {
					firstTrackNotes = true
				}
			case msg.GetMetaTempo(&bpm):
				tempos = append(tempos, contracts.TempoChange{
					Tick:             abs,
					MicrosPerQuarter: microsPerQuarter(bpm),
				})
			case msg.GetMetaMeter(&num, &denom):
				if !meterSeen {
					doc.TimeSignature = contracts.TimeSignature{Numerator: num, Denominator: denom}
					meterSeen = true
				}
			}
			// Everything else (program changes, controllers, sysex,
			// lyrics) carries no scheduling information and is skipped.
		}
	}

	doc.TempoChanges = buildTempoMap(tempos, doc.Resolution)
	doc.Format = inferFormat(len(s.Tracks), firstTrackNotes)

	for i := range events {
		events[i].TimeMs = doc.TicksToMs(events[i].Tick)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].TimeMs != events[j].TimeMs {
			return events[i].TimeMs < events[j].TimeMs
		}
		// Note offs first, so a retriggered note never double-presses.
		return !events[i].NoteOn && events[j].NoteOn
	})
	doc.Events = events

	return doc, nil
}

// validateHeader rejects inputs that cannot be a playable MIDI file
// before the track decoder runs: too short, wrong magic, wrong header
// chunk length, or SMPTE time division.
func validateHeader(data []byte) error {
	if len(data) < headerLen {
		return fmt.Errorf("%w: %d bytes is shorter than a midi header", ErrInvalidFormat, len(data))
	}
	if !bytes.Equal(data[:4], []byte("MThd")) {
		return fmt.Errorf("%w: missing MThd chunk", ErrInvalidFormat)
	}
	if l := binary.BigEndian.Uint32(data[4:8]); l != 6 {
		return fmt.Errorf("%w: header chunk length %d", ErrInvalidFormat, l)
	}
	if division := binary.BigEndian.Uint16(data[12:14]); division&0x8000 != 0 {
		return fmt.Errorf("%w: division word 0x%04x", ErrUnsupportedTiming, division)
	}
	return nil
}

// inferFormat derives the logical format from content rather than
// trusting the header word: single-track files and files whose first
// track carries notes behave as format 0, everything else as format 1.
// Format 2 files fall out as format 1 and play as one merged timeline.
func inferFormat(trackCount int, firstTrackNotes bool) int {
	if trackCount == 1 || firstTrackNotes {
		return 0
	}
	return 1
}
