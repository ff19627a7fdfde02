// Package units converts fixed-width sensor codes from the wearable AFE into
// physical units.
package units

// Sensor codes carry a 23-bit magnitude in a 24-bit two's-complement field.
const (
	// SignThreshold is the first code that represents a negative quantity.
	SignThreshold int64 = 1 << 22
	// FullScaleCodes is subtracted from negative codes to rebase them.
	FullScaleCodes int64 = 1 << 23
)

// PPG and ECG scaling constants. The PPG front end reports 3.2 V over 2^16
// codes; the ECG front end has a gain of 6 over 2^21 codes per volt.
const (
	PPGScaleNumerator   = 3.2 * 1000
	PPGScaleDenominator = 65536
	ECGScaleNumerator   = 1000
	ECGScaleDenominator = 6 * 2097152
)

// ToMillivolts rebases a two's-complement sensor code and scales it by
// num/den. fullScale is the rebase modulus; zero selects FullScaleCodes.
// Out of range codes are converted without clamping.
func ToMillivolts(raw, fullScale int64, num, den float64) float64 {
	if fullScale == 0 {
		fullScale = FullScaleCodes
	}
	if raw >= fullScale/2 {
		raw -= fullScale
	}
	return float64(raw) * num / den
}

// PPGMillivolts converts a PPG photodiode code to millivolts.
func PPGMillivolts(raw int64) float64 {
	return ToMillivolts(raw, FullScaleCodes, PPGScaleNumerator, PPGScaleDenominator)
}

// ECGMillivolts converts an ECG electrode code to millivolts.
func ECGMillivolts(raw int64) float64 {
	return ToMillivolts(raw, FullScaleCodes, ECGScaleNumerator, ECGScaleDenominator)
}
