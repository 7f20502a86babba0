package keystate

import (
	"sync"
	"testing"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

func TestSetAddRemove(t *testing.T) {
	s := NewSet()
	a := contracts.KeyCombination{Key: "a"}

	if !s.Add(a) {
		t.Fatalf("first add reported already held")
	}
	if s.Add(a) {
		t.Fatalf("second add reported newly added")
	}
	if s.Len() != 1 {
		t.Fatalf("len = %d, want 1", s.Len())
	}

	if !s.Remove(a) {
		t.Fatalf("remove of held combination reported not held")
	}
	if s.Remove(a) {
		t.Fatalf("second remove reported held")
	}
	if s.Len() != 0 {
		t.Fatalf("len = %d, want 0", s.Len())
	}
}

func TestSetKeysByLabel(t *testing.T) {
	s := NewSet()
	s.Add(contracts.KeyCombination{Key: "a", Ctrl: true})

	// Same label, same slot.
	if s.Add(contracts.KeyCombination{Key: "A", Ctrl: true}) {
		t.Fatalf("equal-label combination added twice")
	}
	// Different modifiers are a different combination.
	if !s.Add(contracts.KeyCombination{Key: "a"}) {
		t.Fatalf("bare key treated as the ctrl chord")
	}
}

func TestSetDrain(t *testing.T) {
	s := NewSet()
	if got := s.Drain(); got != nil {
		t.Fatalf("drain of empty set = %v, want nil", got)
	}

	s.Add(contracts.KeyCombination{Key: "a"})
	s.Add(contracts.KeyCombination{Key: "b", Shift: true})

	got := s.Drain()
	if len(got) != 2 {
		t.Fatalf("drained %d combinations, want 2", len(got))
	}
	if s.Len() != 0 {
		t.Fatalf("len after drain = %d, want 0", s.Len())
	}
	if s.Drain() != nil {
		t.Fatalf("second drain returned combinations")
	}
}

func TestSetConcurrentAddRemove(t *testing.T) {
	s := NewSet()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			combo := contracts.KeyCombination{Key: string(rune('a' + n))}
			for j := 0; j < 100; j++ {
				s.Add(combo)
				s.Remove(combo)
			}
		}(i)
	}
	wg.Wait()

	if s.Len() != 0 {
		t.Fatalf("len after balanced add/remove = %d, want 0", s.Len())
	}
}
