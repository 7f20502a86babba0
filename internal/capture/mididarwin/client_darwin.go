//go:build darwin
// +build darwin

// Package mididarwin captures live MIDI input through CoreMIDI so a
// connected instrument can drive the key mapper directly.
package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/youpy/go-coremidi"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrNoMIDIDevices        = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice    = errors.New("invalid MIDI device")
	ErrMIDIConnectionError  = errors.New("error connecting to MIDI device")
	ErrCreateInputPort      = errors.New("error creating input port")
	ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")
)

// internalPortConnection is the slice of the CoreMIDI port connection the
// client needs for teardown.
type internalPortConnection interface {
	Disconnect()
}

// Client manages live MIDI capture on Darwin systems: device discovery,
// port connection, and safe concurrent delivery of decoded events.
type Client struct {
	logger       contracts.Logger
	eventChannel atomic.Value
	client       coremidi.Client
	inputPort    coremidi.InputPort
	portConn     internalPortConnection
	filter       *contracts.MIDIEventFilter
	mu           sync.Mutex
	capturing    bool
	wg           sync.WaitGroup
	stopOnce     sync.Once
}

// NewInputClient creates a live capture client backed by CoreMIDI.
func NewInputClient(options *contracts.ClientOptions) (contracts.InputClient, error) {
	name := "midikeys"
	if options.CoreMIDIConfig != nil && options.CoreMIDIConfig.ClientName != "" {
		name = options.CoreMIDIConfig.ClientName
	}
	client, err := coremidi.NewClient(name)
	if err != nil {
		return nil, err
	}
	options.Logger.Info("live capture client created for Darwin")

	return &Client{
		logger: options.Logger,
		client: client,
		filter: options.MIDIEventFilter,
	}, nil
}

// ListDevices retrieves the available MIDI sources.
func (m *Client) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	if len(sources) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		sourceEntity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			EntityName:   sourceEntity.Name(),
			Manufacturer: sourceEntity.Manufacturer(),
		}
	}
	return devices, nil
}

// SelectDevice connects to a MIDI source by its list position,
// disconnecting any previous source first.
func (m *Client) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		m.logger.Error(ErrInvalidMIDIDevice.Error())
		return ErrInvalidMIDIDevice
	}

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	source := sources[deviceID]
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", source.Name()))

	m.inputPort, err = coremidi.NewInputPort(m.client, "Input Port", m.handleMIDIMessage)
	if err != nil {
		m.logger.Error(ErrCreateInputPort.Error())
		return fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}

	m.portConn, err = m.inputPort.Connect(source)
	if err != nil {
		m.logger.Error(ErrMIDIConnectionError.Error())
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.logger.Info("MIDI device successfully connected")
	return nil
}

// handleMIDIMessage decodes one CoreMIDI packet and delivers it without
// ever blocking the CoreMIDI thread.
func (m *Client) handleMIDIMessage(source coremidi.Source, packet coremidi.Packet) {
	m.wg.Add(1)
	defer m.wg.Done()

	eventChannel, _ := m.eventChannel.Load().(chan contracts.InputEvent)
	if eventChannel == nil {
		return
	}

	if len(packet.Data) < 3 {
		m.logger.Warn(ErrIncompleteMIDIPacket.Error())
		return
	}

	status := packet.Data[0]
	event := contracts.InputEvent{
		Timestamp: uint64(time.Now().UTC().UnixNano()),
		Command:   status & 0xF0,
		Channel:   status & 0x0F,
		Note:      packet.Data[1],
		Velocity:  packet.Data[2],
	}

	if m.filter != nil && !isCommandAllowed(event.Command, m.filter.Commands) {
		return
	}
	select {
	case eventChannel <- event:
	default:
		m.logger.Warn("input event channel is full, event discarded")
	}
}

// isCommandAllowed checks if the MIDI command passes the configured filter.
func isCommandAllowed(command byte, allowedCommands []contracts.MIDICommand) bool {
	for _, allowedCommand := range allowedCommands {
		if command == byte(allowedCommand) {
			return true
		}
	}
	return false
}

// StartCapture begins delivering events to the channel. Any capture in
// progress is stopped first.
func (m *Client) StartCapture(eventChannel chan contracts.InputEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}

	if m.capturing {
		m.logger.Warn("capture already started, stopping the existing capture")
		m.stopLocked()
	}

	m.logger.Info("starting MIDI event capture")
	m.eventChannel.Store(eventChannel)
	m.capturing = true
}

// Stop halts capture, disconnects the device, and waits for in-flight
// packet handling to drain. Runs its teardown at most once.
func (m *Client) Stop() error {
	m.stopOnce.Do(func() {
		m.logger.Info("stopping MIDI capture")
		m.mu.Lock()
		defer m.mu.Unlock()
		m.stopLocked()
	})
	return nil
}

// stopLocked tears down the active capture. Caller holds m.mu.
func (m *Client) stopLocked() {
	if !m.capturing {
		return
	}
	m.capturing = false

	if m.portConn != nil {
		m.portConn.Disconnect()
		m.portConn = nil
	}

	m.eventChannel.Store((chan contracts.InputEvent)(nil))

	m.logger.Info("MIDI capture stopped")
	m.wg.Wait()
}
