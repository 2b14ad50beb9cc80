package integrators

import (
	"math"

	"github.com/san-kum/tiltsim/internal/tilt"
)

const (
	// ReferenceDt is the frame time one fixed tick corresponds to.
	ReferenceDt = 1.0 / 60.0

	// DefaultMaxScale caps catch-up after a stalled frame (e.g. a background tab).
	DefaultMaxScale = 4.0
)

// Scaled stretches each tick by dt/ReferenceDt so motion is frame-rate
// independent. A dt that is not finite or not positive counts as one
// reference frame.
type Scaled struct {
	MaxScale float64
}

func NewScaled() *Scaled {
	return &Scaled{MaxScale: DefaultMaxScale}
}

func (s *Scaled) Factor(dt float64) float64 {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt <= 0 {
		return 1
	}
	k := dt / ReferenceDt
	if s.MaxScale > 0 && k > s.MaxScale {
		k = s.MaxScale
	}
	return k
}

func (s *Scaled) Step(particles []tilt.Particle, a tilt.Accel, dt float64, width, height float64) {
	k := s.Factor(dt)
	for i := range particles {
		tilt.Advance(&particles[i], a, k, width, height)
	}
}
