package gccphat

import (
	"math/cmplx"
)

// Whiten applies the Phase Transform to the non-redundant bins of the
// cross-power spectrum of a transform of length n: every bin within
// [minFreq, maxFreq] is normalized to unit magnitude, the rest is zeroed.
//
// Arguments:
// - sampleRate: Used to calculate frequency bin indices for band limiting.
// - minFreq: Minimum frequency to consider (Hz). Use 0 for no limit.
// - maxFreq: Maximum frequency to consider (Hz). Use 0 or >sampleRate/2 for no limit.
//
// Returns the amount of bins left active.
func Whiten(spectrum []complex128, n int, sampleRate, minFreq, maxFreq float64) int {
	// Frequency range to bin conversion
	binMin := 0
	binMax := n / 2
	if minFreq > 0 {
		binMin = int(minFreq * float64(n) / sampleRate)
	}
	if maxFreq > 0 && maxFreq < sampleRate/2 {
		binMax = int(maxFreq * float64(n) / sampleRate)
	}

	// To make PHAT more robust, we only whiten bins that have energy
	// above a certain threshold relative to the maximum energy.
	maxMag := 0.0
	for _, v := range spectrum {
		if mag := cmplx.Abs(v); mag > maxMag {
			maxMag = mag
		}
	}
	threshold := maxMag * 0.001 // 60dB down

	activeBins := 0
	for i, v := range spectrum {
		if i < binMin || i > binMax {
			spectrum[i] = 0
			continue
		}

		mag := cmplx.Abs(v)
		if mag > threshold && mag > 1e-12 {
			spectrum[i] = v / complex(mag, 0)
			activeBins++
		} else {
			spectrum[i] = 0
		}
	}
	return activeBins
}
