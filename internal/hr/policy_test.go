package hr

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/wearable.report/internal/telemetry"
)

func rec(beats, confidence int64) telemetry.HRRecord {
	return telemetry.HRRecord{ReportedBeats: beats, Confidence: confidence, LocalTS: 1, DeviceTS: 2}
}

type decision struct {
	Beats  int64
	IsDrop bool
}

func decisions(in []Annotated) []decision {
	out := make([]decision, len(in))
	for i, a := range in {
		out[i] = decision{a.Beats, a.IsDrop}
	}
	return out
}

func TestAnnotate(t *testing.T) {
	tests := []struct {
		name string
		in   []telemetry.HRRecord
		want []decision
	}{
		{
			name: "carry forward after high confidence",
			in:   []telemetry.HRRecord{rec(50, 3), rec(0, 1)},
			want: []decision{{50, false}, {50, false}},
		},
		{
			name: "drop when previous confidence is not high",
			in:   []telemetry.HRRecord{rec(50, 0), rec(0, 1)},
			want: []decision{{50, true}, {0, true}},
		},
		{
			name: "no confidence sentinel",
			in:   []telemetry.HRRecord{rec(70, 3), rec(72, 255)},
			want: []decision{{70, false}, {72, true}},
		},
		{
			name: "low confidence first record",
			in:   []telemetry.HRRecord{rec(60, 0)},
			want: []decision{{60, true}},
		},
		{
			name: "medium confidence kept",
			in:   []telemetry.HRRecord{rec(65, 2)},
			want: []decision{{65, false}},
		},
		{
			name: "carry uses previous reported value only",
			in:   []telemetry.HRRecord{rec(80, 3), rec(0, 0), rec(0, 1)},
			want: []decision{{80, false}, {80, false}, {0, true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Annotate(tt.in)
			if diff := cmp.Diff(tt.want, decisions(got)); diff != "" {
				t.Errorf("decisions mismatch (-want +got):\n%s", diff)
			}
			for i, a := range got {
				if a.Record != tt.in[i] {
					t.Errorf("record %d was mutated: %+v", i, a.Record)
				}
			}
		})
	}
}

func TestKept(t *testing.T) {
	got := Annotate([]telemetry.HRRecord{rec(50, 3), rec(0, 1), rec(0, 255), rec(61, 2)})
	if n := Kept(got); n != 3 {
		t.Errorf("Kept() = %d, want 3", n)
	}
	if Annotate(nil) == nil {
		t.Error("Annotate(nil) should return an empty slice")
	}
}
