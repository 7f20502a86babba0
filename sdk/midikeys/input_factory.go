package midikeys

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/burstmeman/Midi2Keys-sub000/internal/capture/mididarwin"
	"github.com/burstmeman/Midi2Keys-sub000/internal/capture/midiwindows"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// ErrUnsupportedOS indicates that the operating system has no live
// capture backend.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// captureInitializers maps operating system names to their respective capture client initializers.
var captureInitializers = map[string]func(*contracts.ClientOptions) (contracts.InputClient, error){
	"darwin":  mididarwin.NewInputClient,
	"windows": midiwindows.NewInputClient,
}

// NewInputClient creates a live MIDI capture client appropriate for the
// current operating system, based on the provided options.
//
// opts ...contracts.Option: A variadic list of option functions to customize the configuration.
//
// Returns:
//   - contracts.InputClient: The capture client for the detected OS.
//   - error: ErrUnsupportedOS when no backend exists for this platform.
func NewInputClient(opts ...contracts.Option) (contracts.InputClient, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	if initializer, exists := captureInitializers[runtime.GOOS]; exists {
		return initializer(&options)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, runtime.GOOS)
}
