// Package reconstruct turns coarse, batched device clocks and a wrapping
// hardware counter into per-sample timestamps and logical sequence numbers.
package reconstruct

import (
	"fmt"

	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// DefaultSequenceModulus is the width of the 16-bit hardware counter.
const DefaultSequenceModulus = 1 << 16

// SequenceState tracks the logical sequence of one channel across calls to
// Apply within a run. The zero value is ready to use.
type SequenceState struct {
	// Modulus is the counter field width; zero selects DefaultSequenceModulus.
	Modulus int64

	started      bool
	lastOriginal int64
	lastLogical  int64
}

// NewSequenceState returns a state for a counter of the given width.
func NewSequenceState(modulus int64) *SequenceState {
	return &SequenceState{Modulus: modulus}
}

// Reset forgets the baseline so the next Apply starts a fresh sequence.
func (s *SequenceState) Reset() {
	s.started = false
	s.lastOriginal = 0
	s.lastLogical = 0
}

// Last returns the last assigned logical sequence number.
func (s *SequenceState) Last() int64 { return s.lastLogical }

func (s *SequenceState) modulus() int64 {
	if s.Modulus <= 0 {
		return DefaultSequenceModulus
	}
	return s.Modulus
}

// Apply assigns a logical sequence number to every sample. step is the number
// of samples one hardware record carries; when the counter skips records,
// (gap-1)*step slots are left unassigned. A negative gap is a counter wrap;
// a wrapped gap above half the counter width, or a backward jump from a value
// beyond the counter width, is treated as a device reset and inserts no slots.
func (s *SequenceState) Apply(samples []telemetry.ChannelSample, step int, diag *monitoring.Diagnostics) []int64 {
	if len(samples) == 0 {
		return nil
	}
	if !s.started {
		s.started = true
		s.lastOriginal = samples[0].RawSeq
		s.lastLogical = 0
	}

	mod := s.modulus()
	out := make([]int64, len(samples))
	for i, smp := range samples {
		gap := smp.RawSeq - s.lastOriginal
		if gap < 0 {
			gap += mod
			// Still non-positive after the wrap means the previous value
			// was outside the counter range.
			if gap <= 0 || gap > mod/2 {
				diag.Add(monitoring.CounterReset, 1,
					fmt.Sprintf("counter jumped back from %d to %d", s.lastOriginal, smp.RawSeq))
				gap = 1
			} else {
				diag.Add(monitoring.CounterWrap, 1, "")
			}
		}
		if gap > 1 {
			s.lastLogical += (gap - 1) * int64(step)
			diag.Add(monitoring.DroppedRecords, int(gap-1), "")
		}
		s.lastOriginal = smp.RawSeq
		s.lastLogical++
		out[i] = s.lastLogical
	}
	return out
}
