//go:build !darwin
// +build !darwin

package mididarwin

import (
	"fmt"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

type dummyInputClient struct {
	logger contracts.Logger
}

// NewInputClient initializes a dummy capture client for non-macOS systems.
func NewInputClient(options *contracts.ClientOptions) (contracts.InputClient, error) {
	options.Logger.Info("using dummy capture client for non-macOS system")
	return &dummyInputClient{
		logger: options.Logger,
	}, nil
}

func (m *dummyInputClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy capture client")
	return nil, fmt.Errorf("live MIDI capture is not available on this platform")
}

func (m *dummyInputClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy capture client")
	return fmt.Errorf("live MIDI capture is not available on this platform")
}

func (m *dummyInputClient) StartCapture(eventChannel chan contracts.InputEvent) {
	m.logger.Warn("StartCapture called on dummy capture client")
}

func (m *dummyInputClient) Stop() error {
	m.logger.Warn("Stop called on dummy capture client")
	return nil
}
