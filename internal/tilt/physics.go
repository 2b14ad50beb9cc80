package tilt

import "math"

// Advance moves p by one tick scaled by k and reflects it off the box walls.
// k = 1 is the reference fixed tick.
func Advance(p *Particle, a Accel, k, width, height float64) {
	p.VX += -a.X * Impulse * k
	p.VY += -a.Y * Impulse * k

	p.X += p.VX * k
	p.Y += p.VY * k

	p.X, p.VX = reflect(p.X, p.VX, width)
	p.Y, p.VY = reflect(p.Y, p.VY, height)
}

// reflect clamps pos into [0, bound] and damps v on contact. Each wall is
// checked on its own, matching the per-axis rule.
func reflect(pos, v, bound float64) (float64, float64) {
	if math.IsNaN(pos) {
		return 0, 0
	}
	if pos < 0 {
		pos = 0
		v *= Restitution
	}
	if pos > bound {
		pos = bound
		v *= Restitution
	}
	if math.IsNaN(v) {
		v = 0
	}
	return pos, v
}

// DeriveTilt maps an acceleration sample to (tiltX, tiltZ) in degrees.
func DeriveTilt(a Accel, c Constants) (tiltX, tiltZ float64) {
	tiltZ = clamp(-a.X*c.Sensitivity, -c.MaxTiltZ, c.MaxTiltZ)
	tiltX = clamp(a.Y*c.Sensitivity, -c.MaxTiltX, c.MaxTiltX)
	return tiltX, tiltZ
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// FixedTick applies one reference tick per call and ignores dt, so motion
// speeds up with the host frame rate. It is the default Stepper.
type FixedTick struct{}

func (FixedTick) Step(particles []Particle, a Accel, _ float64, width, height float64) {
	for i := range particles {
		Advance(&particles[i], a, 1, width, height)
	}
}
