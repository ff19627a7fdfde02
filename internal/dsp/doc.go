// Package dsp designs and applies the IIR filters used to condition
// reconstructed channels.
//
// Designs follow the analog-prototype route: a Butterworth prototype is
// frequency-transformed to the requested low-pass, high-pass or band-pass
// shape and mapped to the z-plane by the bilinear transform with
// pre-warping. Filtering is zero-phase (forward then backward over the whole
// signal with odd-extension padding), so every stage needs the complete
// channel buffer.
package dsp
