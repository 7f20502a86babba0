package contracts

// InputEvent is one raw MIDI event captured from a live device.
type InputEvent struct {
	Timestamp uint64 // Timestamp indicates the time the event occurred.
	Command   byte   // Command specifies the type of MIDI event (e.g., Note On, Note Off).
	Channel   byte   // Channel the event arrived on (0-15).
	Note      byte   // Note represents the MIDI note number (0-127).
	Velocity  byte   // Velocity indicates the strength of the note being played (0-127).
}

// IsNoteOn reports whether the event is a Note On with a non-zero velocity.
// A Note On carrying velocity zero is a Note Off by convention.
func (e InputEvent) IsNoteOn() bool {
	return MIDICommand(e.Command) == NoteOn && e.Velocity > 0
}

// IsNoteOff reports whether the event ends a note.
func (e InputEvent) IsNoteOff() bool {
	return MIDICommand(e.Command) == NoteOff || (MIDICommand(e.Command) == NoteOn && e.Velocity == 0)
}

// InputClient defines an interface for live MIDI capture operations.
type InputClient interface {
	Stop() error                               // Stops the client and releases resources.
	ListDevices() ([]DeviceInfo, error)        // Lists all available MIDI input devices.
	SelectDevice(deviceID int) error           // Selects a MIDI device by its ID for capture.
	StartCapture(eventChannel chan InputEvent) // Starts capturing and sends events to the channel.
}
