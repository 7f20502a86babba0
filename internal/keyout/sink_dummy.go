//go:build !windows
// +build !windows

package keyout

import (
	"fmt"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// DummySink stands in on platforms without a keyboard injection backend.
// Key names are still validated so profiles misbehave the same way
// everywhere; the actions themselves only reach the log.
type DummySink struct {
	logger contracts.Logger
}

// New creates the logging no-op sink for non-Windows systems.
func New(log contracts.Logger) (contracts.KeySink, error) {
	log.Info("using dummy keyboard sink for non-Windows system")
	return &DummySink{logger: log}, nil
}

func (s *DummySink) Press(key string) error {
	if !KnownKey(key) {
		return fmt.Errorf("unknown key %q", key)
	}
	s.logger.Debug("press (no-op)", s.logger.Field().String("key", Normalize(key)))
	return nil
}

func (s *DummySink) Release(key string) error {
	if !KnownKey(key) {
		return fmt.Errorf("unknown key %q", key)
	}
	s.logger.Debug("release (no-op)", s.logger.Field().String("key", Normalize(key)))
	return nil
}

func (s *DummySink) PressCombo(combo contracts.KeyCombination) error {
	if !KnownKey(combo.Key) {
		return fmt.Errorf("unknown key %q", combo.Key)
	}
	s.logger.Debug("press combo (no-op)", s.logger.Field().String("combo", combo.Label()))
	return nil
}

func (s *DummySink) ReleaseCombo(combo contracts.KeyCombination) error {
	if !KnownKey(combo.Key) {
		return fmt.Errorf("unknown key %q", combo.Key)
	}
	s.logger.Debug("release combo (no-op)", s.logger.Field().String("combo", combo.Label()))
	return nil
}

func (s *DummySink) ReleaseAll() error {
	s.logger.Debug("release all (no-op)")
	return nil
}
