package integrators

import "github.com/san-kum/tiltsim/internal/tilt"

// Fixed is the reference stepper: one tick per call, dt ignored.
type Fixed struct {
	tilt.FixedTick
}

func NewFixed() *Fixed {
	return &Fixed{}
}
