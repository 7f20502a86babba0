// Package keystate tracks which key combinations are currently held
// down. Every exit path of the system (session cleanup, deferred
// releases, panic stop) races over this bookkeeping, so all operations
// are idempotent and safe for concurrent use.
package keystate

import (
	"sync"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// Set is a concurrency-safe collection of held key combinations, keyed by
// their stable label.
type Set struct {
	mu   sync.Mutex
	held map[string]contracts.KeyCombination
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{held: make(map[string]contracts.KeyCombination)}
}

// Add records a combination as held and reports whether it was newly
// added. Adding a combination that is already held changes nothing.
func (s *Set) Add(combo contracts.KeyCombination) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	label := combo.Label()
	if _, ok := s.held[label]; ok {
		return false
	}
	s.held[label] = combo
	return true
}

// Remove forgets a held combination and reports whether it was held.
// Exactly one of the racing release paths wins; the others see false and
// stay silent.
func (s *Set) Remove(combo contracts.KeyCombination) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	label := combo.Label()
	if _, ok := s.held[label]; !ok {
		return false
	}
	delete(s.held, label)
	return true
}

// Drain empties the set and returns everything that was held.
func (s *Set) Drain() []contracts.KeyCombination {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.held) == 0 {
		return nil
	}
	out := make([]contracts.KeyCombination, 0, len(s.held))
	for _, combo := range s.held {
		out = append(out, combo)
	}
	s.held = make(map[string]contracts.KeyCombination)
	return out
}

// Len reports how many combinations are held.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}
