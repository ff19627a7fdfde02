// Package testutil provides shared test fixtures: record line builders and
// synthetic signals.
package testutil

import (
	"fmt"
	"math"
	"strings"
)

// Line renders a 16-field record line. payload may be shorter than 12
// values; missing fields are written as 0.
func Line(tag int, seq int64, payload []int64, localTS, deviceTSSec int64) string {
	fields := make([]string, 0, 16)
	fields = append(fields, fmt.Sprint(tag), fmt.Sprint(seq))
	for i := 0; i < 12; i++ {
		var v int64
		if i < len(payload) {
			v = payload[i]
		}
		fields = append(fields, fmt.Sprint(v))
	}
	fields = append(fields, fmt.Sprint(localTS), fmt.Sprint(deviceTSSec))
	return strings.Join(fields, ",")
}

// HRLine renders an HR summary line.
func HRLine(seq, beats, confidence, localTS, deviceTS int64) string {
	return Line(22, seq, []int64{beats, confidence, localTS}, 0, deviceTS)
}

// Batches renders n lines of one channel, each with the given payload, a
// sequence counter starting at seq0 and advancing by one, and a device
// second that advances every perSecond lines.
func Batches(tag int, seq0 int64, n, perSecond int, payload []int64, sec0 int64) []string {
	lines := make([]string, n)
	for i := 0; i < n; i++ {
		lines[i] = Line(tag, seq0+int64(i), payload, 0, sec0+int64(i/perSecond))
	}
	return lines
}

// Sine samples amp*sin(2*pi*freq*t) at rate fs.
func Sine(n int, freq, fs, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return out
}

// RMS returns the root mean square of x.
func RMS(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}
