// Package telemetry decodes the comma-separated records emitted by the
// wearable into typed frames and per-channel samples.
//
// A record line has the layout
//
//	type_tag, seq, c0..c11, local_ts, device_ts_sec
//
// HR summaries reuse the same width but place beats and confidence in the
// first two channel fields.
package telemetry

import "fmt"

// Channel identifies a record stream by its type tag.
type Channel int

const (
	ACC    Channel = 0
	ECG    Channel = 5
	PPG125 Channel = 9
	PPG512 Channel = 12
	HR     Channel = 22
)

// Channels lists the sample channels in export order. HR is handled separately.
var Channels = []Channel{ACC, ECG, PPG125, PPG512}

var channelNames = map[Channel]string{
	ACC:    "acc",
	ECG:    "ecg",
	PPG125: "ppg125",
	PPG512: "ppg512",
	HR:     "hr",
}

func (c Channel) String() string {
	if n, ok := channelNames[c]; ok {
		return n
	}
	return fmt.Sprintf("tag%d", int(c))
}

// Known reports whether c is a tag the decoder understands.
func (c Channel) Known() bool {
	_, ok := channelNames[c]
	return ok
}

// ParseChannel maps a channel name back to its tag.
func ParseChannel(name string) (Channel, error) {
	for c, n := range channelNames {
		if n == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", name)
}

// Axes returns the number of values carried by one sample of c.
func (c Channel) Axes() int {
	if c == ACC {
		return 3
	}
	return 1
}

// SequenceStep returns how many logical samples one hardware sequence
// increment stands for, or 0 when the channel is not sequence tracked.
func (c Channel) SequenceStep() int {
	switch c {
	case PPG125:
		return 6
	case PPG512, ECG:
		return 12
	default:
		return 0
	}
}

// DefaultSampleRate returns the nominal sampling rate of c in Hz.
func (c Channel) DefaultSampleRate() float64 {
	switch c {
	case ACC:
		return 100
	case ECG, PPG512:
		return 512
	case PPG125:
		return 125
	default:
		return 0
	}
}
