// Package monitoring holds the diagnostic logger and the counted anomalies
// raised while reconstructing a channel.
package monitoring

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf;
// SetLogger redirects or mutes it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Kind names a class of non-fatal anomaly.
type Kind string

const (
	// DecodeFailure counts malformed lines that were skipped.
	DecodeFailure Kind = "decode_error"
	// SequenceGapAnomaly counts interpolated timestamps that reached the
	// next batch's base timestamp.
	SequenceGapAnomaly Kind = "sequence_gap_anomaly"
	// BoundaryLossWarning counts samples discarded because their batch had
	// no closing boundary.
	BoundaryLossWarning Kind = "boundary_loss"
	// DroppedRecords counts hardware records missing between two samples.
	DroppedRecords Kind = "dropped_records"
	// CounterWrap counts wraparounds of the hardware sequence counter.
	CounterWrap Kind = "counter_wrap"
	// CounterReset counts backward jumps too large to be a wrap.
	CounterReset Kind = "counter_reset"
)

// Diagnostics accumulates anomaly counts for one channel of one run. It is
// not safe for concurrent use; each channel pipeline owns its own instance.
type Diagnostics struct {
	channel string
	counts  map[Kind]int
}

// NewDiagnostics returns an empty counter set labelled with channel.
func NewDiagnostics(channel string) *Diagnostics {
	return &Diagnostics{channel: channel, counts: make(map[Kind]int)}
}

// Add increments kind by n and logs it. A nil receiver discards the event.
func (d *Diagnostics) Add(kind Kind, n int, detail string) {
	if d == nil || n <= 0 {
		return
	}
	d.counts[kind] += n
	if detail != "" {
		Logf("[%s] %s: %s", d.channel, kind, detail)
	}
}

// Count returns the current count for kind.
func (d *Diagnostics) Count(kind Kind) int {
	if d == nil {
		return 0
	}
	return d.counts[kind]
}

// Counts returns a copy of all non-zero counts.
func (d *Diagnostics) Counts() map[Kind]int {
	if d == nil {
		return map[Kind]int{}
	}
	out := make(map[Kind]int, len(d.counts))
	for k, v := range d.counts {
		out[k] = v
	}
	return out
}

// Channel returns the label the counters were created with.
func (d *Diagnostics) Channel() string {
	if d == nil {
		return ""
	}
	return d.channel
}

func (d *Diagnostics) String() string {
	if d == nil || len(d.counts) == 0 {
		return d.Channel() + ": clean"
	}
	kinds := make([]string, 0, len(d.counts))
	for k := range d.counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	parts := make([]string, 0, len(kinds))
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, d.counts[Kind(k)]))
	}
	return d.channel + ": " + strings.Join(parts, " ")
}
