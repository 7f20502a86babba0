package contracts

import (
	"fmt"
	"strings"
)

// KeyCombination is one keyboard chord: a primary key plus optional
// modifier keys.
type KeyCombination struct {
	Key   string `json:"key"`             // Primary key name, e.g. "a", "space", "f5".
	Ctrl  bool   `json:"ctrl,omitempty"`  // Hold Ctrl while the key is down.
	Shift bool   `json:"shift,omitempty"` // Hold Shift while the key is down.
	Alt   bool   `json:"alt,omitempty"`   // Hold Alt while the key is down.
}

// IsZero reports whether the combination is empty.
func (k KeyCombination) IsZero() bool {
	return k.Key == "" && !k.Ctrl && !k.Shift && !k.Alt
}

// HasModifiers reports whether any modifier key participates.
func (k KeyCombination) HasModifiers() bool {
	return k.Ctrl || k.Shift || k.Alt
}

// Label renders the combination in a stable lowercase form such as
// "ctrl+shift+a". Labels identify pressed combinations in bookkeeping.
func (k KeyCombination) Label() string {
	parts := make([]string, 0, 4)
	if k.Ctrl {
		parts = append(parts, "ctrl")
	}
	if k.Shift {
		parts = append(parts, "shift")
	}
	if k.Alt {
		parts = append(parts, "alt")
	}
	if k.Key != "" {
		parts = append(parts, strings.ToLower(k.Key))
	}
	return strings.Join(parts, "+")
}

// AnyChannel makes a mapping match events from every MIDI channel.
const AnyChannel int8 = -1

// NoteMapping binds one MIDI note to a key combination. The velocity
// window gates note triggering only.
type NoteMapping struct {
	Note        uint8          `json:"note"`        // MIDI note number the mapping listens for.
	Combo       KeyCombination `json:"combo"`       // Key combination to emit.
	Channel     int8           `json:"channel"`     // Channel filter: AnyChannel or 0-15.
	MinVelocity uint8          `json:"minVelocity"` // Lowest velocity the mapping triggers on.
	MaxVelocity uint8          `json:"maxVelocity"` // Highest velocity the mapping triggers on.
}

// MatchesChannel reports whether the mapping applies to events on ch.
func (m NoteMapping) MatchesChannel(ch uint8) bool {
	return m.Channel == AnyChannel || int8(ch) == m.Channel
}

// InVelocityWindow reports whether v falls inside the trigger window.
func (m NoteMapping) InVelocityWindow(v uint8) bool {
	return v >= m.MinVelocity && v <= m.MaxVelocity
}

// overlaps reports whether two mappings could both claim the same event.
func (m NoteMapping) overlaps(o NoteMapping) bool {
	if m.Note != o.Note {
		return false
	}
	if m.Channel != AnyChannel && o.Channel != AnyChannel && m.Channel != o.Channel {
		return false
	}
	return m.MinVelocity <= o.MaxVelocity && o.MinVelocity <= m.MaxVelocity
}

// Profile is a named set of note mappings together with the playback
// options a session starts from.
type Profile struct {
	Name     string          `json:"name"`
	Mappings []NoteMapping   `json:"mappings"`
	Options  PlaybackOptions `json:"options"`
}

// Validate checks structural soundness: velocity windows must be ordered,
// channels in range, and no two mappings may overlap on the same note with
// intersecting channel scope and velocity windows.
func (p *Profile) Validate() error {
	for i, m := range p.Mappings {
		if m.MinVelocity > m.MaxVelocity {
			return fmt.Errorf("mapping %d (note %d): velocity window %d-%d is inverted", i, m.Note, m.MinVelocity, m.MaxVelocity)
		}
		if m.Channel < AnyChannel || m.Channel > 15 {
			return fmt.Errorf("mapping %d (note %d): channel %d out of range", i, m.Note, m.Channel)
		}
		if m.Combo.IsZero() {
			return fmt.Errorf("mapping %d (note %d): empty key combination", i, m.Note)
		}
		for j := i + 1; j < len(p.Mappings); j++ {
			if m.overlaps(p.Mappings[j]) {
				return fmt.Errorf("mappings %d and %d conflict on note %d", i, j, m.Note)
			}
		}
	}
	return nil
}

// KeyAction is a resolved keyboard instruction: press or release one
// combination.
type KeyAction struct {
	Combo KeyCombination
	Press bool
}
