package dsp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// normalise pads b and a to a common length and divides both by a[0].
func (c Coefficients) normalise() (b, a []float64) {
	n := len(c.B)
	if len(c.A) > n {
		n = len(c.A)
	}
	b = make([]float64, n)
	a = make([]float64, n)
	copy(b, c.B)
	copy(a, c.A)
	if a[0] != 1 {
		floats.Scale(1/a[0], b)
		floats.Scale(1/a[0], a)
	}
	return b, a
}

// lfilter runs the filter over x in direct form II transposed, starting
// from the delay-line state zi (len(b)-1 values, may be nil).
func lfilter(b, a, x, zi []float64) []float64 {
	n := len(b)
	z := make([]float64, n-1)
	copy(z, zi)

	y := make([]float64, len(x))
	for i, xi := range x {
		yi := b[0]*xi + z[0]
		for j := 0; j < n-2; j++ {
			z[j] = b[j+1]*xi + z[j+1] - a[j+1]*yi
		}
		z[n-2] = b[n-1]*xi - a[n-1]*yi
		y[i] = yi
	}
	return y
}

// steadyState returns the delay-line state that corresponds to the step
// response of the filter, so a constant input passes through without a
// start-up transient. It solves (I - Aᵀ) zi = b[1:] - a[1:]·b[0] where A is
// the companion matrix of a.
func steadyState(b, a []float64) ([]float64, error) {
	n := len(a) - 1
	m := mat.NewDense(n, n, nil)
	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
		m.Set(i, 0, m.At(i, 0)+a[i+1])
		if i+1 < n {
			m.Set(i, i+1, -1)
		}
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(m, rhs); err != nil {
		// Narrow bands give ill-conditioned systems; the solution is still usable.
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, fmt.Errorf("solve initial conditions: %w", err)
		}
	}
	return zi.RawVector().Data, nil
}

// oddExtend reflects n samples about each end point of x.
func oddExtend(x []float64, n int) []float64 {
	last := len(x) - 1
	ext := make([]float64, 0, len(x)+2*n)
	for i := n; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= n; i++ {
		ext = append(ext, 2*x[last]-x[last-i])
	}
	return ext
}

// FiltFilt applies c forward and backward over x, cancelling the phase
// response. The signal is padded by odd extension of 3*max(len(a), len(b))
// samples (fewer when x is shorter) and each pass starts from the steady
// state scaled to the first sample.
func FiltFilt(c Coefficients, x []float64) ([]float64, error) {
	if len(x) < 2 {
		return append([]float64(nil), x...), nil
	}
	b, a := c.normalise()
	if len(b) < 2 {
		out := append([]float64(nil), x...)
		floats.Scale(b[0], out)
		return out, nil
	}

	pad := 3 * len(b)
	if pad > len(x)-1 {
		pad = len(x) - 1
	}

	zi, err := steadyState(b, a)
	if err != nil {
		return nil, err
	}
	ext := oddExtend(x, pad)

	z0 := make([]float64, len(zi))
	floats.ScaleTo(z0, ext[0], zi)
	y := lfilter(b, a, ext, z0)

	floats.Reverse(y)
	floats.ScaleTo(z0, y[0], zi)
	y = lfilter(b, a, y, z0)
	floats.Reverse(y)

	return y[pad : len(y)-pad], nil
}
