package reconstruct

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

func quiet(t *testing.T) {
	t.Helper()
	prev := monitoring.Logf
	monitoring.SetLogger(func(string, ...interface{}) {})
	t.Cleanup(func() { monitoring.SetLogger(prev) })
}

func seqSamples(raw ...int64) []telemetry.ChannelSample {
	out := make([]telemetry.ChannelSample, len(raw))
	for i, r := range raw {
		out[i] = telemetry.ChannelSample{RawSeq: r, Values: []float64{0}}
	}
	return out
}

func TestSequenceApply(t *testing.T) {
	quiet(t)

	tests := []struct {
		name    string
		modulus int64
		raw     []int64
		step    int
		want    []int64
		drops   int
		wraps   int
		resets  int
	}{
		{"gap inserts step slots", 0, []int64{10, 11, 13, 14}, 6, []int64{1, 2, 8, 9}, 1, 0, 0},
		{"contiguous", 0, []int64{5, 6, 7}, 12, []int64{1, 2, 3}, 0, 0, 0},
		{"samples sharing a record", 0, []int64{5, 5, 5, 6, 6, 6}, 3, []int64{1, 2, 3, 4, 5, 6}, 0, 0, 0},
		{"wraparound is a forward step", 0, []int64{65534, 65535, 0, 1}, 12, []int64{1, 2, 3, 4}, 0, 1, 0},
		{"wraparound with drop", 0, []int64{65534, 1}, 12, []int64{1, 2 + 2*12}, 2, 1, 0},
		{"narrow counter wrap", 256, []int64{254, 255, 2}, 6, []int64{1, 2, 3 + 2*6}, 2, 1, 0},
		{"large backward jump is a reset", 0, []int64{20000, 20001, 3, 4}, 12, []int64{1, 2, 3, 4}, 0, 0, 1},
		{"jump back from beyond the counter width", 0, []int64{99519, 5, 6}, 6, []int64{1, 2, 3}, 0, 0, 1},
		{"jump back by exactly the counter width", 256, []int64{300, 44, 45}, 6, []int64{1, 2, 3}, 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewSequenceState(tt.modulus)
			diag := monitoring.NewDiagnostics("test")

			got := state.Apply(seqSamples(tt.raw...), tt.step, diag)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("logical sequence mismatch (-want +got):\n%s", diff)
			}
			if got := diag.Count(monitoring.DroppedRecords); got != tt.drops {
				t.Errorf("dropped records = %d, want %d", got, tt.drops)
			}
			if got := diag.Count(monitoring.CounterWrap); got != tt.wraps {
				t.Errorf("wraps = %d, want %d", got, tt.wraps)
			}
			if got := diag.Count(monitoring.CounterReset); got != tt.resets {
				t.Errorf("resets = %d, want %d", got, tt.resets)
			}
		})
	}
}

func assertSeq(t *testing.T, want, got []int64) {
	t.Helper()
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("logical sequence mismatch (-want +got):\n%s", diff)
	}
}

func TestSequenceStatePersistsAcrossCalls(t *testing.T) {
	state := &SequenceState{}

	assertSeq(t, []int64{1, 2}, state.Apply(seqSamples(100, 101), 6, nil))
	assertSeq(t, []int64{9, 10}, state.Apply(seqSamples(103, 104), 6, nil))
	if state.Last() != 10 {
		t.Errorf("Last() = %d, want 10", state.Last())
	}

	state.Reset()
	assertSeq(t, []int64{1, 2}, state.Apply(seqSamples(7, 8), 6, nil))
}

func TestSequenceStateIndependentChannels(t *testing.T) {
	ecg := NewSequenceState(0)
	ppg := NewSequenceState(0)

	ecg.Apply(seqSamples(1, 2, 3), 12, nil)
	assertSeq(t, []int64{1, 8}, ppg.Apply(seqSamples(50, 52), 6, nil))
	if ecg.Last() != 3 {
		t.Errorf("ecg Last() = %d, want 3", ecg.Last())
	}
}

func TestSequenceApplyEmpty(t *testing.T) {
	state := &SequenceState{}
	if got := state.Apply(nil, 6, nil); got != nil {
		t.Errorf("Apply(nil) = %v, want nil", got)
	}
	// An empty call must not set the baseline.
	assertSeq(t, []int64{1}, state.Apply(seqSamples(500), 6, nil))
}
