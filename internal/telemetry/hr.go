package telemetry

// HR summary field positions. These differ from the generic channel layout.
const (
	hrFieldBeats      = 2
	hrFieldConfidence = 3
	hrFieldLocalTS    = 4
	hrFieldDeviceTS   = 15
)

// HRRecord is one heart-rate summary reported by the watch.
type HRRecord struct {
	ReportedBeats int64
	Confidence    int64
	LocalTS       int64
	DeviceTS      int64
}

// ParseHRRecord decodes an HR summary line. Confidence is masked to its low
// byte, so a sentinel of -1 reads as 255.
func ParseHRRecord(line string) (HRRecord, error) {
	f, err := ParseFrame(line)
	if err != nil {
		return HRRecord{}, err
	}
	if f.Tag != HR {
		return HRRecord{}, &DecodeError{Field: fieldTag, Reason: "not an HR record"}
	}
	return HRRecord{
		ReportedBeats: f.Payload[hrFieldBeats-fieldPayload],
		Confidence:    f.Payload[hrFieldConfidence-fieldPayload] & 0xff,
		LocalTS:       f.Payload[hrFieldLocalTS-fieldPayload],
		DeviceTS:      f.DeviceTSSec,
	}, nil
}
