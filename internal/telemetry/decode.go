package telemetry

import (
	"errors"
	"fmt"

	"github.com/banshee-data/wearable.report/internal/units"
)

// ChannelSample is one physical reading. ACC samples carry x, y and z raw
// codes; every other channel carries a single value in millivolts.
type ChannelSample struct {
	DeviceTSMs float64
	RawSeq     int64
	Values     []float64
}

// Payload offsets (relative to c0) of each channel's analog fields.
var (
	accGroupOffsets = []int{0, 4, 8}
	ppg125Offsets   = stride(0, 11, 2)
	ppg512Offsets   = stride(0, 12, 1)
	ecgOffsets      = stride(0, 11, 1)
)

func stride(start, end, step int) []int {
	var out []int
	for i := start; i < end; i += step {
		out = append(out, i)
	}
	return out
}

// SamplesPerRecord returns how many samples one record of c expands into.
func SamplesPerRecord(c Channel) int {
	switch c {
	case ACC:
		return len(accGroupOffsets)
	case PPG125:
		return len(ppg125Offsets)
	case PPG512:
		return len(ppg512Offsets)
	case ECG:
		return len(ecgOffsets)
	default:
		return 0
	}
}

// DecodeSamples extracts the analog readings of a frame. All samples of a
// frame share its device timestamp and sequence number.
func DecodeSamples(f RawFrame) ([]ChannelSample, error) {
	ts := f.DeviceTSMs()
	switch f.Tag {
	case ACC:
		out := make([]ChannelSample, 0, len(accGroupOffsets))
		for _, off := range accGroupOffsets {
			out = append(out, ChannelSample{
				DeviceTSMs: ts,
				RawSeq:     f.DeviceSeq,
				Values: []float64{
					float64(f.Payload[off]),
					float64(f.Payload[off+1]),
					float64(f.Payload[off+2]),
				},
			})
		}
		return out, nil
	case PPG125:
		return scalarSamples(f, ts, ppg125Offsets, units.PPGMillivolts), nil
	case PPG512:
		return scalarSamples(f, ts, ppg512Offsets, units.PPGMillivolts), nil
	case ECG:
		return scalarSamples(f, ts, ecgOffsets, units.ECGMillivolts), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, int(f.Tag))
	}
}

func scalarSamples(f RawFrame, ts float64, offsets []int, convert func(int64) float64) []ChannelSample {
	out := make([]ChannelSample, 0, len(offsets))
	for _, off := range offsets {
		out = append(out, ChannelSample{
			DeviceTSMs: ts,
			RawSeq:     f.DeviceSeq,
			Values:     []float64{convert(f.Payload[off])},
		})
	}
	return out
}

// Accumulator collects the decoded samples of one channel in line order.
type Accumulator struct {
	Channel Channel
	Samples []ChannelSample
	Records int
	lines   int
}

// NewAccumulator returns an empty accumulator for c.
func NewAccumulator(c Channel) *Accumulator {
	return &Accumulator{Channel: c}
}

// Add decodes one line and appends its samples. A malformed line or a line
// of another channel returns an error and leaves the accumulator unchanged.
func (a *Accumulator) Add(line string) error {
	a.lines++
	frame, err := ParseFrame(line)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Line = a.lines
		}
		return err
	}
	if frame.Tag != a.Channel {
		return &DecodeError{
			Line:   a.lines,
			Field:  fieldTag,
			Reason: fmt.Sprintf("tag %d does not belong to channel %s", int(frame.Tag), a.Channel),
		}
	}
	samples, err := DecodeSamples(frame)
	if err != nil {
		return err
	}
	a.Samples = append(a.Samples, samples...)
	a.Records++
	return nil
}
