package telemetry

import (
	"errors"
	"fmt"
)

// ErrUnknownChannel is returned for records whose type tag is not decoded.
// Dispatch skips these silently.
var ErrUnknownChannel = errors.New("unknown channel type")

// DecodeError reports a malformed record. The record is rejected as a whole.
type DecodeError struct {
	Line   int
	Field  int
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "decode"
	if e.Line > 0 {
		msg = fmt.Sprintf("decode line %d", e.Line)
	}
	if e.Field >= 0 {
		msg += fmt.Sprintf(" field %d", e.Field)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error { return e.Err }
