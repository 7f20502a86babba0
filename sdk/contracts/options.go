package contracts

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
)

// MIDIEventFilter allows users to specify which MIDI commands a live
// capture client should deliver.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to keep.
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// ClientOptions defines the configuration options for the playback system
// and the live capture clients.
type ClientOptions struct {
	Logger          Logger           // Logger for events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	KeySink         KeySink          // Destination for simulated key input.
	EventBuffer     int              // Capacity of the observer event channel.
	MIDIEventFilter *MIDIEventFilter // Optional filter for live MIDI events.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithKeySink sets the keyboard output sink key actions are delivered to.
func WithKeySink(sink KeySink) Option {
	return func(opts *ClientOptions) {
		opts.KeySink = sink
	}
}

// WithEventBuffer sets the capacity of the observer event channel.
func WithEventBuffer(n int) Option {
	return func(opts *ClientOptions) {
		opts.EventBuffer = n
	}
}

// WithMIDIEventFilter sets the MIDI event filter for live capture.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for live capture.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}
