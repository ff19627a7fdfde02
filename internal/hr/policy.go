// Package hr classifies heart-rate summaries as kept or dropped based on the
// confidence the watch attached to them.
package hr

import "github.com/banshee-data/wearable.report/internal/telemetry"

// Confidence values with special meaning.
const (
	ConfidenceNone = 255
	ConfidenceHigh = 3
)

// Annotated is an HR record with the drop decision applied. Beats is the
// value to export; it differs from Record.ReportedBeats when the previous
// beat value was carried forward.
type Annotated struct {
	Record telemetry.HRRecord
	Beats  int64
	IsDrop bool
}

// Classify decides one record given the record before it (nil for the
// first record).
func Classify(rec telemetry.HRRecord, prev *telemetry.HRRecord) Annotated {
	out := Annotated{Record: rec, Beats: rec.ReportedBeats}
	switch {
	case rec.Confidence == ConfidenceNone:
		out.IsDrop = true
	case rec.Confidence == 0 || rec.Confidence == 1:
		if prev != nil && prev.Confidence == ConfidenceHigh {
			out.Beats = prev.ReportedBeats
		} else {
			out.IsDrop = true
		}
	}
	return out
}

// Annotate classifies records strictly in input order.
func Annotate(records []telemetry.HRRecord) []Annotated {
	out := make([]Annotated, len(records))
	for i := range records {
		var prev *telemetry.HRRecord
		if i > 0 {
			prev = &records[i-1]
		}
		out[i] = Classify(records[i], prev)
	}
	return out
}

// Kept returns the number of records not marked as dropped.
func Kept(records []Annotated) int {
	n := 0
	for _, r := range records {
		if !r.IsDrop {
			n++
		}
	}
	return n
}
