package metrics

import "github.com/san-kum/tiltsim/internal/tilt"

// KineticEnergy is the mean total kinetic energy (unit mass) per sample.
type KineticEnergy struct {
	name    string
	total   float64
	samples int
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(st tilt.State, t float64) {
	k.total += Energy(st.Particles)
	k.samples++
}

func (k *KineticEnergy) Value() float64 {
	if k.samples == 0 {
		return 0
	}
	return k.total / float64(k.samples)
}

func (k *KineticEnergy) Reset() {
	k.total = 0
	k.samples = 0
}

// Energy is 0.5 * sum(v^2) over the particles.
func Energy(ps []tilt.Particle) float64 {
	e := 0.0
	for _, p := range ps {
		e += 0.5 * (p.VX*p.VX + p.VY*p.VY)
	}
	return e
}
