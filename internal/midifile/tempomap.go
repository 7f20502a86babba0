package midifile

import (
	"math"
	"sort"

	"github.com/burstmeman/Midi2Keys-sub000/sdk/contracts"
)

// microsPerQuarter converts a fractional BPM back to the microseconds per
// quarter note the tempo meta event carried.
func microsPerQuarter(bpm float64) int64 {
	if bpm <= 0 {
		return contracts.DefaultMicrosPerQuarter
	}
	return int64(math.Round(60000000.0 / bpm))
}

// buildTempoMap orders tempo events by tick, guarantees an entry at tick
// zero (the 120 BPM default when the file states none), collapses
// duplicate ticks to the last statement, and resolves each change's
// absolute millisecond position segment by segment.
func buildTempoMap(tempos []contracts.TempoChange, resolution int) []contracts.TempoChange {
	sort.SliceStable(tempos, func(i, j int) bool {
		return tempos[i].Tick < tempos[j].Tick
	})

	if len(tempos) == 0 || tempos[0].Tick > 0 {
		tempos = append([]contracts.TempoChange{{
			Tick:             0,
			MicrosPerQuarter: contracts.DefaultMicrosPerQuarter,
		}}, tempos...)
	}

	out := tempos[:0]
	for _, tc := range tempos {
		if n := len(out); n > 0 && out[n-1].Tick == tc.Tick {
			out[n-1] = tc
			continue
		}
		out = append(out, tc)
	}

	if resolution <= 0 {
		return out
	}
	for i := 1; i < len(out); i++ {
		prev := out[i-1]
		segTicks := float64(out[i].Tick - prev.Tick)
		out[i].TimeMs = prev.TimeMs + segTicks*float64(prev.MicrosPerQuarter)/(1000.0*float64(resolution))
	}
	return out
}
