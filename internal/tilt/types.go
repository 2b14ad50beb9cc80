package tilt

import "math"

const (
	// DefaultParticles is the particle count used when no option overrides it.
	DefaultParticles = 10

	// Impulse scales acceleration into a per-tick velocity change.
	Impulse = 0.1

	// Restitution is applied to a velocity component on wall contact.
	Restitution = -0.5
)

// Accel is one accelerometer reading. Z is carried but not used by the physics.
type Accel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (a Accel) IsValid() bool {
	return finite(a.X) && finite(a.Y) && finite(a.Z)
}

type Particle struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	VX float64 `json:"vx"`
	VY float64 `json:"vy"`
}

// State is a point-in-time view of a simulator. It shares no memory with it.
type State struct {
	Particles []Particle `json:"particles"`
	TiltXDeg  float64    `json:"tilt_x_deg"`
	TiltZDeg  float64    `json:"tilt_z_deg"`
}

func (s State) Clone() State {
	c := s
	c.Particles = cloneParticles(s.Particles)
	return c
}

// Constants are the tilt derivation parameters.
type Constants struct {
	MaxTiltX    float64 `json:"max_tilt_x" yaml:"max_tilt_x"`
	MaxTiltZ    float64 `json:"max_tilt_z" yaml:"max_tilt_z"`
	Sensitivity float64 `json:"sensitivity" yaml:"sensitivity"`
}

func DefaultConstants() Constants {
	return Constants{
		MaxTiltX:    35.0,
		MaxTiltZ:    45.0,
		Sensitivity: 5.0,
	}
}

func (c Constants) valid() bool {
	return finite(c.MaxTiltX) && finite(c.MaxTiltZ) && finite(c.Sensitivity) &&
		c.MaxTiltX >= 0 && c.MaxTiltZ >= 0
}

// Stepper advances every particle by one tick. dt is the wall time since the
// previous tick in seconds; implementations decide whether to use it.
type Stepper interface {
	Step(particles []Particle, a Accel, dt float64, width, height float64)
}

func cloneParticles(p []Particle) []Particle {
	if p == nil {
		return nil
	}
	c := make([]Particle, len(p))
	copy(c, p)
	return c
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
