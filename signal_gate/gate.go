package signal_gate

import "math"

// IsSignificant reports whether a chunk of samples carries enough energy to
// be worth transcribing. Either measure crossing its threshold is enough; an
// empty chunk is never significant.
func IsSignificant(samples []float32, rmsThreshold, peakThreshold float64) bool {
	if len(samples) == 0 {
		return false
	}

	var sum, peak float64

	for _, s := range samples {
		f := float64(s)
		sum += f * f

		if a := math.Abs(f); a > peak {
			peak = a
		}
	}

	rms := math.Sqrt(sum / float64(len(samples)))

	return rms > rmsThreshold || peak > peakThreshold
}

// NoiseGate zeroes every sample whose magnitude sits at or below threshold.
// The input is left untouched; a gated copy of the same length is returned.
func NoiseGate(samples []float32, threshold float64) []float32 {
	out := make([]float32, len(samples))

	for i, s := range samples {
		if math.Abs(float64(s)) > threshold {
			out[i] = s
		}
	}

	return out
}
