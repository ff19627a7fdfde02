package dsp

import "fmt"

// FilterConfigError reports a stage that cannot be designed, such as a
// cutoff at or above the Nyquist frequency.
type FilterConfigError struct {
	Stage  Stage
	Reason string
}

func (e *FilterConfigError) Error() string {
	return fmt.Sprintf("invalid %s filter at %g Hz: %s", e.Stage.Kind, e.Stage.SampleRateHz, e.Reason)
}
