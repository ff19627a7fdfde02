package dsp

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// Spectrum returns the single-sided amplitude spectrum of x sampled at fs.
// The mean is removed first so the DC bin does not dominate plots.
func Spectrum(x []float64, fs float64) (freqs, amps []float64) {
	n := len(x)
	if n < 2 {
		return nil, nil
	}
	mean := stat.Mean(x, nil)
	centred := make([]float64, n)
	for i, v := range x {
		centred[i] = v - mean
	}

	fft := fourier.NewFFT(n)
	coeff := fft.Coefficients(nil, centred)

	freqs = make([]float64, len(coeff))
	amps = make([]float64, len(coeff))
	for i, c := range coeff {
		freqs[i] = fft.Freq(i) * fs
		amps[i] = 2 * cmplx.Abs(c) / float64(n)
	}
	amps[0] /= 2
	return freqs, amps
}
