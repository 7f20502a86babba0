//go:build windows
// +build windows

package keyout

import (
	"fmt"
	"sync"
	"unsafe"

	"go.uber.org/multierr"
	"golang.org/x/sys/windows"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Constants for SendInput
const (
	INPUT_KEYBOARD        = 1      // Event targets the keyboard input stream
	KEYEVENTF_EXTENDEDKEY = 0x0001 // Scan code is from the extended set
	KEYEVENTF_KEYUP       = 0x0002 // Key release rather than press
	KEYEVENTF_SCANCODE    = 0x0008 // wScan identifies the key, wVk is ignored
	MAPVK_VK_TO_VSC       = 0      // MapVirtualKey mode: VK code to scan code
)

// keyboardInput mirrors the KEYBDINPUT structure.
type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uint64
}

// input mirrors the INPUT structure for keyboard events. The trailing
// padding brings the union up to the size of its largest member.
type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte
}

// Load the user32.dll library and required functions
var (
	user32            = windows.NewLazySystemDLL("user32.dll")
	procSendInput     = user32.NewProc("SendInput")
	procMapVirtualKey = user32.NewProc("MapVirtualKeyW")
)

// extendedKeys holds the virtual keys whose scan codes live in the
// extended set; without the flag the navigation cluster degrades to
// numpad behavior.
var extendedKeys = map[uint16]bool{
	0x25: true, // left
	0x26: true, // up
	0x27: true, // right
	0x28: true, // down
	0x24: true, // home
	0x23: true, // end
	0x21: true, // pageup
	0x22: true, // pagedown
	0x2D: true, // insert
	0x2E: true, // delete
}

// Sink delivers simulated key events through SendInput. It tracks which
// virtual keys it is holding so ReleaseAll undoes exactly what it did.
type Sink struct {
	logger contracts.Logger

	mu   sync.Mutex
	down map[uint16]bool
}

// New creates the SendInput-backed sink for Windows.
func New(log contracts.Logger) (contracts.KeySink, error) {
	log.Info("keyboard sink created for Windows")
	return &Sink{logger: log, down: make(map[uint16]bool)}, nil
}

// Press sends a key-down event for a single key.
func (s *Sink) Press(key string) error {
	vk, ok := vkCode(key)
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	if err := sendInputs([]input{makeInput(vk, false)}); err != nil {
		return err
	}
	s.mu.Lock()
	s.down[vk] = true
	s.mu.Unlock()
	return nil
}

// Release sends a key-up event for a single key.
func (s *Sink) Release(key string) error {
	vk, ok := vkCode(key)
	if !ok {
		return fmt.Errorf("unknown key %q", key)
	}
	s.mu.Lock()
	delete(s.down, vk)
	s.mu.Unlock()
	return sendInputs([]input{makeInput(vk, true)})
}

// PressCombo sends the modifiers down followed by the primary key down as
// one SendInput batch, so no foreign input interleaves inside the chord.
func (s *Sink) PressCombo(combo contracts.KeyCombination) error {
	vk, ok := vkCode(combo.Key)
	if !ok {
		return fmt.Errorf("unknown key %q", combo.Key)
	}
	mods := modifierKeys(combo)

	batch := make([]input, 0, len(mods)+1)
	for _, m := range mods {
		batch = append(batch, makeInput(m, false))
	}
	batch = append(batch, makeInput(vk, false))
	if err := sendInputs(batch); err != nil {
		return err
	}

	s.mu.Lock()
	for _, m := range mods {
		s.down[m] = true
	}
	s.down[vk] = true
	s.mu.Unlock()
	return nil
}

// ReleaseCombo sends the primary key up followed by the modifiers up in
// reverse order.
func (s *Sink) ReleaseCombo(combo contracts.KeyCombination) error {
	vk, ok := vkCode(combo.Key)
	if !ok {
		return fmt.Errorf("unknown key %q", combo.Key)
	}
	mods := modifierKeys(combo)

	batch := make([]input, 0, len(mods)+1)
	batch = append(batch, makeInput(vk, true))
	for i := len(mods) - 1; i >= 0; i-- {
		batch = append(batch, makeInput(mods[i], true))
	}

	s.mu.Lock()
	delete(s.down, vk)
	for _, m := range mods {
		delete(s.down, m)
	}
	s.mu.Unlock()
	return sendInputs(batch)
}

// ReleaseAll sends a key-up for every virtual key the sink is holding.
// Each key is attempted even when an earlier one fails; the errors come
// back combined.
func (s *Sink) ReleaseAll() error {
	s.mu.Lock()
	keys := make([]uint16, 0, len(s.down))
	for vk := range s.down {
		keys = append(keys, vk)
	}
	s.down = make(map[uint16]bool)
	s.mu.Unlock()

	var errs error
	for _, vk := range keys {
		if err := sendInputs([]input{makeInput(vk, true)}); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("vk 0x%02X: %w", vk, err))
		}
	}
	if len(keys) > 0 {
		s.logger.Debug("released all held keys", s.logger.Field().Int("count", len(keys)))
	}
	return errs
}

// modifierKeys lists the modifier virtual keys of a combination in the
// order they go down.
func modifierKeys(combo contracts.KeyCombination) []uint16 {
	mods := make([]uint16, 0, 3)
	if combo.Ctrl {
		mods = append(mods, virtualKeys["ctrl"])
	}
	if combo.Shift {
		mods = append(mods, virtualKeys["shift"])
	}
	if combo.Alt {
		mods = append(mods, virtualKeys["alt"])
	}
	return mods
}

// makeInput builds one keyboard INPUT. Keys are sent by scan code when
// the layout has one, which is what games reading raw input expect; keys
// without a scan code fall back to the virtual-key path.
func makeInput(vk uint16, up bool) input {
	var flags uint32
	scan := mapVirtualKey(vk)
	if scan != 0 {
		flags |= KEYEVENTF_SCANCODE
	}
	if extendedKeys[vk] {
		flags |= KEYEVENTF_EXTENDEDKEY
	}
	if up {
		flags |= KEYEVENTF_KEYUP
	}
	return input{
		inputType: INPUT_KEYBOARD,
		ki: keyboardInput{
			wVk:     vk,
			wScan:   scan,
			dwFlags: flags,
		},
	}
}

// mapVirtualKey translates a virtual-key code to a scan code.
func mapVirtualKey(vk uint16) uint16 {
	r0, _, _ := procMapVirtualKey.Call(uintptr(vk), MAPVK_VK_TO_VSC)
	return uint16(r0)
}

// sendInputs injects a batch of events into the system input queue.
func sendInputs(inputs []input) error {
	if len(inputs) == 0 {
		return nil
	}
	n, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)
	if int(n) != len(inputs) {
		return fmt.Errorf("sendinput inserted %d of %d events: %v", n, len(inputs), err)
	}
	return nil
}
