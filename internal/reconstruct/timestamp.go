package reconstruct

import (
	"fmt"

	"github.com/banshee-data/wearable.report/internal/monitoring"
	"github.com/banshee-data/wearable.report/internal/telemetry"
)

// TimestampedSample is a reading with its interpolated timestamp.
type TimestampedSample struct {
	TimestampMs float64
	LogicalSeq  int64
	HasSeq      bool
	Values      []float64
}

// Interpolate spreads each run of samples sharing one device timestamp
// evenly between that timestamp and the next run's timestamp. seq may be nil
// for channels without sequence tracking; otherwise it is parallel to samples.
//
// The last run has no closing boundary and is dropped: the last partial
// batch is lost. The loss is reported as a BoundaryLossWarning.
func Interpolate(samples []telemetry.ChannelSample, seq []int64, diag *monitoring.Diagnostics) []TimestampedSample {
	if len(samples) == 0 {
		return nil
	}

	out := make([]TimestampedSample, 0, len(samples))
	start := 0
	for start < len(samples) {
		base := samples[start].DeviceTSMs
		end := start + 1
		for end < len(samples) && samples[end].DeviceTSMs == base {
			end++
		}
		if end == len(samples) {
			diag.Add(monitoring.BoundaryLossWarning, end-start,
				fmt.Sprintf("discarded %d trailing samples at %.0f ms without a closing batch", end-start, base))
			break
		}

		next := samples[end].DeviceTSMs
		fraction := (next - base) / float64(end-start)
		anomalies := 0
		for i := start; i < end; i++ {
			ts := base + fraction*float64(i-start)
			if ts >= next {
				anomalies++
			}
			s := TimestampedSample{TimestampMs: ts, Values: samples[i].Values}
			if seq != nil {
				s.LogicalSeq = seq[i]
				s.HasSeq = true
			}
			out = append(out, s)
		}
		if anomalies > 0 {
			diag.Add(monitoring.SequenceGapAnomaly, anomalies,
				fmt.Sprintf("timestamp equal to or larger than next base %.0f ms (base %.0f ms)", next, base))
		}
		start = end
	}
	return out
}
