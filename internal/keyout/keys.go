// Package keyout implements the keyboard output sink: simulated key
// presses delivered to the operating system input queue. The Windows
// implementation uses SendInput; other platforms get a logging no-op
// sink with the same name validation.
package keyout

import (
	"strconv"
	"strings"
)

// virtualKeys maps every supported key name to its Windows VK_* code.
// Other platforms reuse the table for name validation. Letters, digits,
// and function keys are filled in by init.
var virtualKeys = map[string]uint16{
	"space":     0x20,
	"enter":     0x0D,
	"tab":       0x09,
	"escape":    0x1B,
	"backspace": 0x08,
	"capslock":  0x14,

	"shift": 0x10,
	"ctrl":  0x11,
	"alt":   0x12,

	"left":  0x25,
	"up":    0x26,
	"right": 0x27,
	"down":  0x28,

	"home":     0x24,
	"end":      0x23,
	"pageup":   0x21,
	"pagedown": 0x22,
	"insert":   0x2D,
	"delete":   0x2E,

	"comma":     0xBC,
	"period":    0xBE,
	"slash":     0xBF,
	"backslash": 0xDC,
	"semicolon": 0xBA,
	"quote":     0xDE,
	"minus":     0xBD,
	"equals":    0xBB,
	"lbracket":  0xDB,
	"rbracket":  0xDD,
	"grave":     0xC0,

	"numpadmultiply": 0x6A,
	"numpadplus":     0x6B,
	"numpadminus":    0x6D,
	"numpaddivide":   0x6F,
}

// keyAliases folds common alternate spellings onto canonical names.
var keyAliases = map[string]string{
	"esc":      "escape",
	"return":   "enter",
	"control":  "ctrl",
	"spacebar": "space",
	"del":      "delete",
	"ins":      "insert",
	"pgup":     "pageup",
	"pgdn":     "pagedown",
	"caps":     "capslock",
}

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		virtualKeys[string(c)] = 0x41 + uint16(c-'a')
	}
	for c := byte('0'); c <= '9'; c++ {
		virtualKeys[string(c)] = 0x30 + uint16(c-'0')
		virtualKeys["numpad"+string(c)] = 0x60 + uint16(c-'0')
	}
	for i := 1; i <= 12; i++ {
		virtualKeys["f"+strconv.Itoa(i)] = 0x70 + uint16(i-1)
	}
}

// Normalize lowercases a key name, trims it, and resolves aliases.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := keyAliases[name]; ok {
		return canonical
	}
	return name
}

// vkCode resolves a key name to its virtual-key code.
func vkCode(name string) (uint16, bool) {
	vk, ok := virtualKeys[Normalize(name)]
	return vk, ok
}

// KnownKey reports whether the key name resolves to a code.
func KnownKey(name string) bool {
	_, ok := vkCode(name)
	return ok
}
