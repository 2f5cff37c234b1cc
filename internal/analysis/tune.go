// Package analysis extracts beam parameters from turn-by-turn tracking
// data.
package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude spectrum of data up to the
// Nyquist frequency. The mean is removed first so the DC line does not
// mask the betatron peak.
func PowerSpectrum(data []float64) []float64 {
	centered := make([]float64, len(data))
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// Tune estimates the fractional betatron tune (0 to 0.5) from a
// turn-by-turn coordinate series, refining the strongest spectral line
// by parabolic interpolation of its neighbours.
func Tune(data []float64) float64 {
	ps := PowerSpectrum(data)
	if len(ps) < 2 {
		return 0
	}
	peak := 1
	for i := 2; i < len(ps); i++ {
		if ps[i] > ps[peak] {
			peak = i
		}
	}

	frac := float64(peak)
	if peak > 0 && peak < len(ps)-1 {
		alpha, beta, gamma := ps[peak-1], ps[peak], ps[peak+1]
		denom := alpha - 2*beta + gamma
		if denom != 0 {
			frac += 0.5 * (alpha - gamma) / denom
		}
	}
	return frac / float64(len(data))
}

// Tunes estimates the horizontal and vertical tunes from the two
// transverse turn-by-turn series.
func Tunes(rx, ry []float64) (nux, nuy float64) {
	return Tune(rx), Tune(ry)
}
