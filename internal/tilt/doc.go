// Package tilt implements the tilt-driven particle toy behind the "beer in a
// glass" effect.
//
// A [Simulator] owns a fixed set of [Particle] values inside a
// width x height box. Each tick it ingests an accelerometer [Accel] sample,
// pushes every particle with a linear pseudo-gravity and reflects it off the
// box walls. On query it returns a [State]: a deep copy of the particles plus
// two cosmetic tilt angles derived by [DeriveTilt].
//
// # Example
//
//	s, _ := tilt.New(300, 500)
//	s.Step(tilt.Accel{X: 1.2, Y: -0.4, Z: 9.7}, 1.0/60)
//	st := s.StateOf(tilt.Accel{X: 1.2, Y: -0.4, Z: 9.7})
//
// # Host input
//
// Hosts hand over loosely typed values (JSON text, decoded maps). [Simulator.Update]
// and [Simulator.State] accept those directly; a value that does not decode
// as an [Accel] leaves the particles untouched and yields neutral tilt. The
// returned [*DecodeError] can be reported or ignored.
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. Give each session its own.
package tilt
