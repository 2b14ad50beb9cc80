package metrics

import (
	"math"

	"github.com/san-kum/tiltsim/internal/tilt"
)

// PeakTilt is the largest tilt magnitude seen on either axis, in degrees.
type PeakTilt struct {
	name string
	peak float64
}

func NewPeakTilt() *PeakTilt {
	return &PeakTilt{name: "peak_tilt"}
}

func (p *PeakTilt) Name() string { return p.name }

func (p *PeakTilt) Observe(st tilt.State, t float64) {
	p.peak = math.Max(p.peak, math.Max(math.Abs(st.TiltXDeg), math.Abs(st.TiltZDeg)))
}

func (p *PeakTilt) Value() float64 { return p.peak }

func (p *PeakTilt) Reset() { p.peak = 0 }

// Settled is the fraction of samples in which every particle moves slower
// than threshold.
type Settled struct {
	name      string
	threshold float64
	calm      int
	samples   int
}

func NewSettled(threshold float64) *Settled {
	return &Settled{name: "settled", threshold: threshold}
}

func (s *Settled) Name() string { return s.name }

func (s *Settled) Observe(st tilt.State, t float64) {
	s.samples++
	for _, p := range st.Particles {
		if math.Hypot(p.VX, p.VY) >= s.threshold {
			return
		}
	}
	s.calm++
}

func (s *Settled) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return float64(s.calm) / float64(s.samples)
}

func (s *Settled) Reset() {
	s.calm = 0
	s.samples = 0
}
