package analysis

// DominantPeriod is the period in seconds of the strongest non-DC component
// of samples taken every dt seconds. It is 0 for a flat or too-short series.
func DominantPeriod(samples []float64, dt float64) float64 {
	if len(samples) < 4 || dt <= 0 {
		return 0
	}
	ps := PowerSpectrum(samples)
	n := len(samples)

	best, bin := 1e-9, 0
	for k := 1; k < len(ps); k++ {
		if ps[k] > best {
			best, bin = ps[k], k
		}
	}
	if bin == 0 {
		return 0
	}
	return float64(n) * dt / float64(bin)
}

// Centroid is the mean of xs.
func Centroid(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
