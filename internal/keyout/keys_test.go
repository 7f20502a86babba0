package keyout

import "testing"

func TestVkCodeTable(t *testing.T) {
	cases := []struct {
		name string
		want uint16
	}{
		{"a", 0x41},
		{"z", 0x5A},
		{"0", 0x30},
		{"9", 0x39},
		{"f1", 0x70},
		{"f12", 0x7B},
		{"numpad0", 0x60},
		{"numpad9", 0x69},
		{"space", 0x20},
		{"enter", 0x0D},
		{"escape", 0x1B},
		{"left", 0x25},
		{"down", 0x28},
		{"shift", 0x10},
		{"comma", 0xBC},
	}
	for _, c := range cases {
		got, ok := vkCode(c.name)
		if !ok {
			t.Fatalf("vkCode(%q) unknown", c.name)
		}
		if got != c.want {
			t.Fatalf("vkCode(%q) = 0x%02X, want 0x%02X", c.name, got, c.want)
		}
	}
}

func TestVkCodeNormalizesInput(t *testing.T) {
	cases := []struct {
		in   string
		want uint16
	}{
		{"A", 0x41},
		{"  a ", 0x41},
		{"ESC", 0x1B},
		{"Return", 0x0D},
		{"Control", 0x11},
		{"spacebar", 0x20},
		{"PgDn", 0x22},
		{"del", 0x2E},
	}
	for _, c := range cases {
		got, ok := vkCode(c.in)
		if !ok {
			t.Fatalf("vkCode(%q) unknown", c.in)
		}
		if got != c.want {
			t.Fatalf("vkCode(%q) = 0x%02X, want 0x%02X", c.in, got, c.want)
		}
	}
}

func TestKnownKey(t *testing.T) {
	for _, name := range []string{"a", "f5", "pageup", "numpadplus", "caps"} {
		if !KnownKey(name) {
			t.Fatalf("KnownKey(%q) = false", name)
		}
	}
	for _, name := range []string{"", "f13", "super", "oddball", "numpad10"} {
		if KnownKey(name) {
			t.Fatalf("KnownKey(%q) = true", name)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"A":       "a",
		" Esc ":   "escape",
		"RETURN":  "enter",
		"ctrl":    "ctrl",
		"unknown": "unknown",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
