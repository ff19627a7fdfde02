package dsp

import (
	"math"
	"math/cmplx"
)

// Coefficients holds a transfer function b(z)/a(z) with a[0] == 1.
type Coefficients struct {
	B []float64
	A []float64
}

// zpk is a filter in zero-pole-gain form.
type zpk struct {
	z []complex128
	p []complex128
	k float64
}

func (f zpk) degree() int { return len(f.p) - len(f.z) }

// butterPrototype returns the analog low-pass Butterworth prototype of the
// given order with unit cutoff.
func butterPrototype(order int) zpk {
	p := make([]complex128, 0, order)
	for m := -order + 1; m < order; m += 2 {
		p = append(p, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*order))))
	}
	return zpk{p: p, k: 1}
}

func scaleRoots(r []complex128, s complex128) []complex128 {
	out := make([]complex128, len(r))
	for i, v := range r {
		out[i] = v * s
	}
	return out
}

func prod(r []complex128, f func(complex128) complex128) complex128 {
	acc := complex(1, 0)
	for _, v := range r {
		acc *= f(v)
	}
	return acc
}

func zeros(n int, at complex128) []complex128 {
	out := make([]complex128, n)
	for i := range out {
		out[i] = at
	}
	return out
}

func toLowPass(f zpk, wo float64) zpk {
	return zpk{
		z: scaleRoots(f.z, complex(wo, 0)),
		p: scaleRoots(f.p, complex(wo, 0)),
		k: f.k * math.Pow(wo, float64(f.degree())),
	}
}

func toHighPass(f zpk, wo float64) zpk {
	inv := func(r []complex128) []complex128 {
		out := make([]complex128, len(r))
		for i, v := range r {
			out[i] = complex(wo, 0) / v
		}
		return out
	}
	neg := func(v complex128) complex128 { return -v }
	k := f.k * real(prod(f.z, neg)/prod(f.p, neg))
	return zpk{
		z: append(inv(f.z), zeros(f.degree(), 0)...),
		p: inv(f.p),
		k: k,
	}
}

func toBandPass(f zpk, wo, bw float64) zpk {
	split := func(r []complex128) []complex128 {
		out := make([]complex128, 0, 2*len(r))
		lp := scaleRoots(r, complex(bw/2, 0))
		for _, v := range lp {
			out = append(out, v+cmplx.Sqrt(v*v-complex(wo*wo, 0)))
		}
		for _, v := range lp {
			out = append(out, v-cmplx.Sqrt(v*v-complex(wo*wo, 0)))
		}
		return out
	}
	return zpk{
		z: append(split(f.z), zeros(f.degree(), 0)...),
		p: split(f.p),
		k: f.k * math.Pow(bw, float64(f.degree())),
	}
}

// bilinear maps an analog filter to the z-plane. The sampling rate is
// normalised to 2 so frequencies are fractions of Nyquist.
func bilinear(f zpk) zpk {
	const fs2 = 4.0
	mapRoots := func(r []complex128) []complex128 {
		out := make([]complex128, len(r))
		for i, v := range r {
			out[i] = (fs2 + v) / (fs2 - v)
		}
		return out
	}
	sub := func(v complex128) complex128 { return fs2 - v }
	return zpk{
		z: append(mapRoots(f.z), zeros(f.degree(), -1)...),
		p: mapRoots(f.p),
		k: f.k * real(prod(f.z, sub)/prod(f.p, sub)),
	}
}

// poly expands the monic polynomial with the given roots.
func poly(roots []complex128) []complex128 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		copy(next, c)
		for i := 1; i < len(next); i++ {
			next[i] -= r * c[i-1]
		}
		c = next
	}
	return c
}

func (f zpk) transferFunction() Coefficients {
	bz := poly(f.z)
	az := poly(f.p)
	b := make([]float64, len(bz))
	for i, v := range bz {
		b[i] = f.k * real(v)
	}
	a := make([]float64, len(az))
	for i, v := range az {
		a[i] = real(v)
	}
	return Coefficients{B: b, A: a}
}

// prewarp converts a frequency normalised to Nyquist into the analog
// frequency that the bilinear transform maps back onto it.
func prewarp(wn float64) float64 {
	return 4 * math.Tan(math.Pi*wn/2)
}

// butterLowPass designs a digital low-pass filter; wn is normalised to Nyquist.
func butterLowPass(order int, wn float64) Coefficients {
	return bilinear(toLowPass(butterPrototype(order), prewarp(wn))).transferFunction()
}

// butterHighPass designs a digital high-pass filter; wn is normalised to Nyquist.
func butterHighPass(order int, wn float64) Coefficients {
	return bilinear(toHighPass(butterPrototype(order), prewarp(wn))).transferFunction()
}

// butterBandPass designs a digital band-pass filter between lo and hi,
// both normalised to Nyquist. The resulting filter has order 2*order.
func butterBandPass(order int, lo, hi float64) Coefficients {
	wl, wh := prewarp(lo), prewarp(hi)
	return bilinear(toBandPass(butterPrototype(order), math.Sqrt(wl*wh), wh-wl)).transferFunction()
}

// notch designs a second-order IIR notch at w0 (normalised to Nyquist) with
// quality factor q; the -3 dB bandwidth is w0/q.
func notch(w0, q float64) Coefficients {
	bw := w0 / q * math.Pi
	w0 *= math.Pi
	// Attenuation at the band edges is -3 dB.
	gb := 1 / math.Sqrt2
	beta := math.Sqrt(1-gb*gb) / gb * math.Tan(bw/2)
	gain := 1 / (1 + beta)
	c := math.Cos(w0)
	return Coefficients{
		B: []float64{gain, -2 * gain * c, gain},
		A: []float64{1, -2 * gain * c, 2*gain - 1},
	}
}

// Response returns |H(f)| of c at freqHz for a sampling rate fs.
func (c Coefficients) Response(freqHz, fs float64) float64 {
	w := 2 * math.Pi * freqHz / fs
	eval := func(coef []float64) complex128 {
		var acc complex128
		for k, v := range coef {
			acc += complex(v, 0) * cmplx.Exp(complex(0, -w*float64(k)))
		}
		return acc
	}
	return cmplx.Abs(eval(c.B) / eval(c.A))
}
