package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// Detrend returns data with its mean removed, so the DC bin does not swamp
// the spectrum.
func Detrend(data []float64) []float64 {
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	if len(data) > 0 {
		mean /= float64(len(data))
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = v - mean
	}
	return out
}

// PowerSpectrum returns magnitudes for bins 0..n/2-1 of the detrended series.
// Any length is accepted.
func PowerSpectrum(data []float64) []float64 {
	spectrum := fft.FFTReal(Detrend(data))
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}
