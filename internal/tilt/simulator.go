package tilt

import (
	"fmt"
)

type Simulator struct {
	particles []Particle
	width     float64
	height    float64
	constants Constants
	stepper   Stepper

	lastTiltX, lastTiltZ float64
	ticks                int
}

type options struct {
	count     int
	constants Constants
	stepper   Stepper
}

// Option customises a Simulator at construction.
type Option func(*options) error

// WithParticles overrides the particle count. n must be at least 1.
func WithParticles(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return fmt.Errorf("%w: particle count %d", ErrInvalidOption, n)
		}
		o.count = n
		return nil
	}
}

func WithConstants(c Constants) Option {
	return func(o *options) error {
		if !c.valid() {
			return fmt.Errorf("%w: constants %+v", ErrInvalidOption, c)
		}
		o.constants = c
		return nil
	}
}

// WithStepper replaces the default fixed-tick integration.
func WithStepper(st Stepper) Option {
	return func(o *options) error {
		if st == nil {
			return fmt.Errorf("%w: nil stepper", ErrInvalidOption)
		}
		o.stepper = st
		return nil
	}
}

// New lays the particles out evenly along the horizontal midline at rest.
func New(width, height float64, opts ...Option) (*Simulator, error) {
	if !finite(width) || !finite(height) || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: got %gx%g", ErrInvalidBounds, width, height)
	}

	o := options{
		count:     DefaultParticles,
		constants: DefaultConstants(),
		stepper:   FixedTick{},
	}
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, err
		}
	}

	n := float64(o.count)
	particles := make([]Particle, o.count)
	for i := range particles {
		particles[i] = Particle{
			X: float64(i)*(width/n) + width/(2*n),
			Y: height * 0.5,
		}
	}

	return &Simulator{
		particles: particles,
		width:     width,
		height:    height,
		constants: o.constants,
		stepper:   o.stepper,
	}, nil
}

func (s *Simulator) Width() float64       { return s.width }
func (s *Simulator) Height() float64      { return s.height }
func (s *Simulator) Len() int             { return len(s.particles) }
func (s *Simulator) Ticks() int           { return s.ticks }
func (s *Simulator) Constants() Constants { return s.constants }

// Step applies one decoded sample to every particle, in storage order.
func (s *Simulator) Step(a Accel, dt float64) {
	s.stepper.Step(s.particles, a, dt, s.width, s.height)
	s.lastTiltX, s.lastTiltZ = DeriveTilt(a, s.constants)
	s.ticks++
}

// Update decodes raw and steps the simulation. Input that does not decode
// leaves the simulator unchanged; the decode error is returned for hosts that
// want to report it.
func (s *Simulator) Update(raw any, dt float64) error {
	a, err := DecodeValue(raw)
	if err != nil {
		return err
	}
	s.Step(a, dt)
	return nil
}

// StateOf snapshots the particles with tilt derived from a.
func (s *Simulator) StateOf(a Accel) State {
	tx, tz := DeriveTilt(a, s.constants)
	return State{
		Particles: s.Snapshot(),
		TiltXDeg:  tx,
		TiltZDeg:  tz,
	}
}

// State decodes raw independently of any previous Update. On decode failure
// the tilt is neutral (0, 0) and the particles are still reported.
func (s *Simulator) State(raw any) (State, error) {
	a, err := DecodeValue(raw)
	if err != nil {
		return State{Particles: s.Snapshot()}, err
	}
	return s.StateOf(a), nil
}

// LastTilt is the tilt derived from the most recent successful Update.
func (s *Simulator) LastTilt() (tiltX, tiltZ float64) {
	return s.lastTiltX, s.lastTiltZ
}

// Snapshot returns a copy of the particles.
func (s *Simulator) Snapshot() []Particle {
	return cloneParticles(s.particles)
}

func (s *Simulator) Greet(name string) string {
	return fmt.Sprintf("Hello from Go, %s! Simulator ready for %gx%g area.", name, s.width, s.height)
}
