package metrics

import "github.com/san-kum/tiltsim/internal/tilt"

// Metric accumulates one scalar over a run.
type Metric interface {
	Name() string
	Observe(st tilt.State, t float64)
	Value() float64
	Reset()
}

// Standard is the set recorded with every stored run.
func Standard(width, height float64) []Metric {
	return []Metric{
		NewKineticEnergy(),
		NewWallContacts(width, height),
		NewPeakTilt(),
		NewSettled(0.05),
	}
}

// Collect reads every metric into a map keyed by name.
func Collect(ms []Metric) map[string]float64 {
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}
