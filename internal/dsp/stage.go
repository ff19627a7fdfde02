package dsp

import (
	"fmt"
	"strings"
)

// Kind selects the filter shape of a stage.
type Kind string

const (
	Notch    Kind = "notch"
	LowPass  Kind = "lowpass"
	HighPass Kind = "highpass"
	BandPass Kind = "bandpass"
)

// Defaults applied to zero-valued stage parameters.
const (
	DefaultOrder   = 3
	DefaultNotchHz = 65.0
	DefaultNotchQ  = 30.0
	MaxOrder       = 8
)

// Stage is one declarative filter step. LowHz is the high-pass cutoff and
// the lower band edge; HighHz is the low-pass cutoff and the upper band edge.
type Stage struct {
	Kind         Kind    `json:"kind"`
	SampleRateHz float64 `json:"sample_rate_hz"`
	LowHz        float64 `json:"low_hz,omitempty"`
	HighHz       float64 `json:"high_hz,omitempty"`
	Order        int     `json:"order,omitempty"`
	NotchHz      float64 `json:"notch_hz,omitempty"`
	NotchQ       float64 `json:"notch_q,omitempty"`
}

func (s Stage) String() string {
	switch s.Kind {
	case Notch:
		return fmt.Sprintf("notch(%gHz,Q=%g)@%gHz", s.notchHz(), s.notchQ(), s.SampleRateHz)
	case LowPass:
		return fmt.Sprintf("lowpass(%gHz,n=%d)@%gHz", s.HighHz, s.order(), s.SampleRateHz)
	case HighPass:
		return fmt.Sprintf("highpass(%gHz,n=%d)@%gHz", s.LowHz, s.order(), s.SampleRateHz)
	case BandPass:
		return fmt.Sprintf("bandpass(%g-%gHz,n=%d)@%gHz", s.LowHz, s.HighHz, s.order(), s.SampleRateHz)
	default:
		return string(s.Kind)
	}
}

func (s Stage) order() int {
	if s.Order == 0 {
		return DefaultOrder
	}
	return s.Order
}

func (s Stage) notchHz() float64 {
	if s.NotchHz == 0 {
		return DefaultNotchHz
	}
	return s.NotchHz
}

func (s Stage) notchQ() float64 {
	if s.NotchQ == 0 {
		return DefaultNotchQ
	}
	return s.NotchQ
}

func (s Stage) invalid(format string, args ...interface{}) error {
	return &FilterConfigError{Stage: s, Reason: fmt.Sprintf(format, args...)}
}

// normalised checks that f lies strictly between 0 and Nyquist and returns
// it as a fraction of Nyquist.
func (s Stage) normalised(name string, f float64) (float64, error) {
	nyq := s.SampleRateHz / 2
	if f <= 0 || f >= nyq {
		return 0, s.invalid("%s %g Hz must be within (0, %g) Hz", name, f, nyq)
	}
	return f / nyq, nil
}

// Design computes the stage's coefficients or returns a *FilterConfigError.
func (s Stage) Design() (Coefficients, error) {
	if s.SampleRateHz <= 0 {
		return Coefficients{}, s.invalid("sampling rate must be positive")
	}
	if s.Kind != Notch {
		if n := s.order(); n < 1 || n > MaxOrder {
			return Coefficients{}, s.invalid("order %d must be within [1, %d]", n, MaxOrder)
		}
	}

	switch s.Kind {
	case Notch:
		w0, err := s.normalised("notch frequency", s.notchHz())
		if err != nil {
			return Coefficients{}, err
		}
		if s.notchQ() <= 0 {
			return Coefficients{}, s.invalid("quality factor %g must be positive", s.notchQ())
		}
		return notch(w0, s.notchQ()), nil
	case LowPass:
		wn, err := s.normalised("cutoff", s.HighHz)
		if err != nil {
			return Coefficients{}, err
		}
		return butterLowPass(s.order(), wn), nil
	case HighPass:
		wn, err := s.normalised("cutoff", s.LowHz)
		if err != nil {
			return Coefficients{}, err
		}
		return butterHighPass(s.order(), wn), nil
	case BandPass:
		lo, err := s.normalised("low cutoff", s.LowHz)
		if err != nil {
			return Coefficients{}, err
		}
		hi, err := s.normalised("high cutoff", s.HighHz)
		if err != nil {
			return Coefficients{}, err
		}
		if lo >= hi {
			return Coefficients{}, s.invalid("low cutoff %g Hz must be below high cutoff %g Hz", s.LowHz, s.HighHz)
		}
		return butterBandPass(s.order(), lo, hi), nil
	default:
		return Coefficients{}, s.invalid("unknown filter kind %q", s.Kind)
	}
}

// Chain is an ordered list of stages; each consumes the previous output.
type Chain []Stage

func (c Chain) String() string {
	if len(c) == 0 {
		return "passthrough"
	}
	parts := make([]string, len(c))
	for i, s := range c {
		parts[i] = s.String()
	}
	return strings.Join(parts, " -> ")
}

// design validates every stage before any data is touched.
func (c Chain) design() ([]Coefficients, error) {
	out := make([]Coefficients, 0, len(c))
	for i, s := range c {
		coef, err := s.Design()
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
		out = append(out, coef)
	}
	return out, nil
}

// Validate reports the first stage that cannot be designed.
func (c Chain) Validate() error {
	_, err := c.design()
	return err
}

// Apply filters one signal through every stage. The input is not modified.
func (c Chain) Apply(x []float64) ([]float64, error) {
	out, err := c.ApplyColumns([][]float64{x})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// ApplyColumns filters each column independently through the chain. Either
// every column is filtered or an error is returned and nothing is.
func (c Chain) ApplyColumns(cols [][]float64) ([][]float64, error) {
	coefs, err := c.design()
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(cols))
	for i, col := range cols {
		y := append([]float64(nil), col...)
		for j, coef := range coefs {
			if y, err = FiltFilt(coef, y); err != nil {
				return nil, fmt.Errorf("stage %d on column %d: %w", j, i, err)
			}
		}
		out[i] = y
	}
	return out, nil
}
