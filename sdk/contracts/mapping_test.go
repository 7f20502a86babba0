package contracts

import "testing"

func TestKeyCombinationLabel(t *testing.T) {
	cases := []struct {
		combo KeyCombination
		want  string
	}{
		{KeyCombination{Key: "a"}, "a"},
		{KeyCombination{Key: "A"}, "a"},
		{KeyCombination{Key: "a", Ctrl: true}, "ctrl+a"},
		{KeyCombination{Key: "x", Ctrl: true, Shift: true, Alt: true}, "ctrl+shift+alt+x"},
		{KeyCombination{Shift: true}, "shift"},
		{KeyCombination{}, ""},
	}
	for _, c := range cases {
		if got := c.combo.Label(); got != c.want {
			t.Fatalf("Label(%+v) = %q, want %q", c.combo, got, c.want)
		}
	}
}

func TestNoteMappingChannelAndVelocity(t *testing.T) {
	m := NoteMapping{Note: 60, Channel: 3, MinVelocity: 20, MaxVelocity: 100}

	if !m.MatchesChannel(3) || m.MatchesChannel(4) {
		t.Fatalf("channel matching broken for exact channel")
	}
	any := NoteMapping{Note: 60, Channel: AnyChannel}
	if !any.MatchesChannel(0) || !any.MatchesChannel(15) {
		t.Fatalf("any-channel mapping rejected a channel")
	}

	if m.InVelocityWindow(19) || !m.InVelocityWindow(20) || !m.InVelocityWindow(100) || m.InVelocityWindow(101) {
		t.Fatalf("velocity window boundaries broken")
	}
}

func TestProfileValidate(t *testing.T) {
	valid := &Profile{
		Name: "ok",
		Mappings: []NoteMapping{
			{Note: 60, Combo: KeyCombination{Key: "a"}, Channel: AnyChannel, MaxVelocity: 127},
			{Note: 62, Combo: KeyCombination{Key: "s"}, Channel: AnyChannel, MaxVelocity: 127},
			// Same note is fine when the velocity windows are disjoint.
			{Note: 64, Combo: KeyCombination{Key: "d"}, Channel: AnyChannel, MinVelocity: 0, MaxVelocity: 63},
			{Note: 64, Combo: KeyCombination{Key: "D", Shift: true}, Channel: AnyChannel, MinVelocity: 64, MaxVelocity: 127},
			// Same note is fine on different exact channels.
			{Note: 70, Combo: KeyCombination{Key: "q"}, Channel: 0, MaxVelocity: 127},
			{Note: 70, Combo: KeyCombination{Key: "w"}, Channel: 1, MaxVelocity: 127},
		},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid profile rejected: %v", err)
	}

	cases := map[string]*Profile{
		"inverted window": {Mappings: []NoteMapping{
			{Note: 60, Combo: KeyCombination{Key: "a"}, Channel: AnyChannel, MinVelocity: 90, MaxVelocity: 10},
		}},
		"channel out of range": {Mappings: []NoteMapping{
			{Note: 60, Combo: KeyCombination{Key: "a"}, Channel: 16, MaxVelocity: 127},
		}},
		"empty combo": {Mappings: []NoteMapping{
			{Note: 60, Channel: AnyChannel, MaxVelocity: 127},
		}},
		"overlap same note": {Mappings: []NoteMapping{
			{Note: 60, Combo: KeyCombination{Key: "a"}, Channel: AnyChannel, MaxVelocity: 127},
			{Note: 60, Combo: KeyCombination{Key: "b"}, Channel: AnyChannel, MaxVelocity: 127},
		}},
		"overlap any vs exact": {Mappings: []NoteMapping{
			{Note: 60, Combo: KeyCombination{Key: "a"}, Channel: AnyChannel, MaxVelocity: 127},
			{Note: 60, Combo: KeyCombination{Key: "b"}, Channel: 5, MaxVelocity: 127},
		}},
	}
	for name, p := range cases {
		if err := p.Validate(); err == nil {
			t.Fatalf("%s: invalid profile accepted", name)
		}
	}
}

func TestPlaybackOptionsNormalized(t *testing.T) {
	n := PlaybackOptions{}.Normalized()
	if n.TempoMultiplier != 1.0 || n.MinVelocity != 1 {
		t.Fatalf("zero options normalized to %+v, want multiplier 1 and velocity 1", n)
	}

	n = PlaybackOptions{TempoMultiplier: 100, Transpose: 60, KeyPressDurationMs: 10000}.Normalized()
	if n.TempoMultiplier != MaxTempoMultiplier {
		t.Fatalf("multiplier = %v, want clamped to %v", n.TempoMultiplier, MaxTempoMultiplier)
	}
	if n.Transpose != MaxTranspose {
		t.Fatalf("transpose = %d, want clamped to %d", n.Transpose, MaxTranspose)
	}
	if n.KeyPressDurationMs != MaxKeyPressDurationMs {
		t.Fatalf("hold = %d, want clamped to %d", n.KeyPressDurationMs, MaxKeyPressDurationMs)
	}

	n = PlaybackOptions{TempoMultiplier: 0.01, Transpose: -60, KeyPressDurationMs: -5}.Normalized()
	if n.TempoMultiplier != MinTempoMultiplier || n.Transpose != -MaxTranspose || n.KeyPressDurationMs != 0 {
		t.Fatalf("lower bounds: %+v", n)
	}
}

func TestClampNoteShift(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 0}, {4, 4}, {-4, -4}, {5, 4}, {-9, -4},
	}
	for _, c := range cases {
		if got := ClampNoteShift(c.in); got != c.want {
			t.Fatalf("ClampNoteShift(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestQuantizationGridFactor(t *testing.T) {
	cases := map[Quantization]float64{
		QuantizeNone:         0,
		QuantizeQuarter:      1,
		QuantizeEighth:       0.5,
		QuantizeSixteenth:    0.25,
		QuantizeThirtySecond: 0.125,
		Quantization("junk"): 0,
	}
	for q, want := range cases {
		if got := q.GridFactor(); got != want {
			t.Fatalf("GridFactor(%q) = %v, want %v", q, got, want)
		}
	}
}

func TestIgnoresChannel(t *testing.T) {
	o := PlaybackOptions{IgnoredChannels: []uint8{9, 15}}
	if !o.IgnoresChannel(9) || !o.IgnoresChannel(15) || o.IgnoresChannel(0) {
		t.Fatalf("ignored channel set broken")
	}
	if (PlaybackOptions{}).IgnoresChannel(9) {
		t.Fatalf("empty set ignores a channel")
	}
}
