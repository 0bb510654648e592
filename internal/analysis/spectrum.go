package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

type SpectrumBin struct {
	Frequency float64
	Magnitude float64
}

// Spectrum returns the one-sided magnitude spectrum of series sampled every
// dt seconds. The mean is removed first so bin 0 carries no offset.
func Spectrum(series []float64, dt float64) []SpectrumBin {
	n := len(series)
	if n < 2 || !(dt > 0) {
		return nil
	}

	mean := 0.0
	for _, v := range series {
		mean += v
	}
	mean /= float64(n)

	centered := make([]float64, n)
	for i, v := range series {
		centered[i] = v - mean
	}

	coeffs := fft.FFTReal(centered)
	bins := make([]SpectrumBin, n/2+1)
	for k := range bins {
		bins[k] = SpectrumBin{
			Frequency: float64(k) / (float64(n) * dt),
			Magnitude: cmplx.Abs(coeffs[k]) / float64(n),
		}
	}
	return bins
}

// DominantFrequency returns the strongest non-zero frequency in series and
// its magnitude. A constant series yields zeros.
func DominantFrequency(series []float64, dt float64) (hz, magnitude float64) {
	bins := Spectrum(series, dt)
	for _, b := range bins[min(1, len(bins)):] {
		if b.Magnitude > magnitude {
			hz, magnitude = b.Frequency, b.Magnitude
		}
	}
	if magnitude < 1e-12 {
		return 0, 0
	}
	return hz, magnitude
}
