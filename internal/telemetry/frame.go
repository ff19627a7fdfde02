package telemetry

import (
	"fmt"
	"strconv"
	"strings"
)

// Field positions shared by every record type.
const (
	FieldCount       = 16
	fieldTag         = 0
	fieldSeq         = 1
	fieldPayload     = 2
	payloadWidth     = 12
	fieldLocalTS     = 14
	fieldDeviceTSSec = 15
)

// MsPerSecond scales the device clock to milliseconds.
const MsPerSecond = 1000

// RawFrame is one decoded record line.
type RawFrame struct {
	Tag         Channel
	DeviceSeq   int64
	Payload     [payloadWidth]int64
	LocalTS     int64
	DeviceTSSec int64
}

// DeviceTSMs returns the coarse device timestamp in milliseconds.
func (f RawFrame) DeviceTSMs() float64 {
	return float64(f.DeviceTSSec * MsPerSecond)
}

// Tag extracts the type tag of a line without decoding the rest of it.
func Tag(line string) (Channel, error) {
	head, _, _ := strings.Cut(line, ",")
	v, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, &DecodeError{Field: fieldTag, Reason: "invalid type tag", Err: err}
	}
	return Channel(v), nil
}

// ParseFrame splits a record line and parses every field. Field count or
// numeric failures return a *DecodeError and no partial frame.
func ParseFrame(line string) (RawFrame, error) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) != FieldCount {
		return RawFrame{}, &DecodeError{
			Field:  -1,
			Reason: fmt.Sprintf("expected %d fields, got %d", FieldCount, len(fields)),
		}
	}

	var nums [FieldCount]int64
	for i, f := range fields {
		v, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64)
		if err != nil {
			return RawFrame{}, &DecodeError{Field: i, Reason: "not an integer", Err: err}
		}
		nums[i] = v
	}

	frame := RawFrame{
		Tag:         Channel(nums[fieldTag]),
		DeviceSeq:   nums[fieldSeq],
		LocalTS:     nums[fieldLocalTS],
		DeviceTSSec: nums[fieldDeviceTSSec],
	}
	copy(frame.Payload[:], nums[fieldPayload:fieldPayload+payloadWidth])
	return frame, nil
}
