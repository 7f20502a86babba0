package midikeys

import (
	"github.com/burstmeman/Midi2Keys-sub000/internal/keyout"
	"github.com/burstmeman/Midi2Keys-sub000/internal/logger"
	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

const defaultEventBuffer = 64

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	options.Logger.SetLevel(options.LogLevel)

	if options.KeySink == nil {
		sink, err := keyout.New(options.Logger)
		if err != nil {
			return contracts.ClientOptions{}, err
		}
		options.KeySink = sink
	}

	if options.EventBuffer <= 0 {
		options.EventBuffer = defaultEventBuffer
	}

	if options.MIDIEventFilter == nil {
		options.MIDIEventFilter = &contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
		}
	}

	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "midikeys"}
	}

	return *options, nil
}
