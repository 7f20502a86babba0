// Package midikeys assembles the playback stack behind small factory
// functions: document parsing, the playback engine, the panic
// coordinator, the platform keyboard sink, and live MIDI capture.
package midikeys

import (
	"github.com/burstmeman/Midi2Keys-sub000/internal/midifile"
	"github.com/burstmeman/Midi2Keys-sub000/internal/panicstop"
	"github.com/burstmeman/Midi2Keys-sub000/internal/playback"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// NewPlayer creates a playback engine with the specified options.
// It applies default options, builds the platform keyboard sink when none
// is injected, and wires a panic coordinator around the sink so the
// engine's PanicStop always has independent bookkeeping behind it.
//
// opts ...contracts.Option: A variadic list of option functions to customize the configuration.
//
// Returns:
//   - contracts.Player: The wired playback engine.
//   - contracts.PanicStopper: The coordinator guarding the engine's key sink.
//   - error: An error, if any occurred during assembly.
func NewPlayer(opts ...contracts.Option) (contracts.Player, contracts.PanicStopper, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, nil, err
	}

	coordinator := panicstop.New(options.KeySink, options.Logger)
	engine := playback.NewEngine(playback.Config{
		Logger:      options.Logger,
		Sink:        coordinator.Sink(),
		Panic:       coordinator,
		EventBuffer: options.EventBuffer,
	})
	coordinator.AttachEngine(engine)

	return engine, coordinator, nil
}

// ParseDocument decodes MIDI file bytes into an immutable document ready
// for playback or analysis.
func ParseDocument(data []byte) (*contracts.MidiDocument, error) {
	return midifile.Parse(data)
}
