// Package sensor produces accelerometer samples for headless runs and the
// terminal view, standing in for a phone's DeviceMotion events.
package sensor

import (
	"fmt"
	"math"

	perlin "github.com/aquilax/go-perlin"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/tilt"
)

// Gravity is the resting z reading of a phone lying flat.
const Gravity = 9.81

// Source yields the sample observed at time t (seconds since start).
type Source interface {
	Next(t float64) tilt.Accel
}

// Finite is a source with a natural length, such as a recording or a
// script.
type Finite interface {
	Source
	Duration() float64
}

// DurationOf reports how long src runs when it has a positive length.
func DurationOf(src Source) (float64, bool) {
	f, ok := src.(Finite)
	if !ok {
		return 0, false
	}
	d := f.Duration()
	return d, d > 0
}

// Sway rocks the glass side to side, with the y axis a quarter period behind.
type Sway struct {
	Amplitude float64
	Period    float64
}

func NewSway(amplitude, period float64) *Sway {
	return &Sway{Amplitude: amplitude, Period: period}
}

func (s *Sway) Next(t float64) tilt.Accel {
	if s.Period <= 0 {
		return tilt.Accel{Z: Gravity}
	}
	w := 2 * math.Pi / s.Period
	return tilt.Accel{
		X: s.Amplitude * math.Sin(w*t),
		Y: 0.5 * s.Amplitude * math.Sin(w*t-math.Pi/2),
		Z: Gravity,
	}
}

// Jitter is a hand holding the phone: smooth noise on both axes.
type Jitter struct {
	Amplitude float64
	Rate      float64
	noise     *perlin.Perlin
}

func NewJitter(amplitude, rate float64, seed int64) *Jitter {
	return &Jitter{
		Amplitude: amplitude,
		Rate:      rate,
		noise:     perlin.NewPerlin(2, 2, 3, seed),
	}
}

func (j *Jitter) Next(t float64) tilt.Accel {
	x := j.noise.Noise1D(t * j.Rate)
	y := j.noise.Noise2D(t*j.Rate, 17.3)
	return tilt.Accel{
		X: j.Amplitude * x,
		Y: j.Amplitude * y,
		Z: Gravity,
	}
}

// Manual holds whatever was last set, for keyboard-driven tilt.
type Manual struct {
	A    tilt.Accel
	Step float64
	Max  float64
}

func NewManual() *Manual {
	return &Manual{A: tilt.Accel{Z: Gravity}, Step: 0.5, Max: 20}
}

func (m *Manual) Set(a tilt.Accel) { m.A = a }

// Nudge shifts the x/y reading by dx/dy steps, clamped to ±Max.
func (m *Manual) Nudge(dx, dy float64) {
	m.A.X = math.Max(-m.Max, math.Min(m.Max, m.A.X+dx*m.Step))
	m.A.Y = math.Max(-m.Max, math.Min(m.Max, m.A.Y+dy*m.Step))
}

func (m *Manual) Level() { m.A.X, m.A.Y = 0, 0 }

func (m *Manual) Next(float64) tilt.Accel { return m.A }

// FromConfig builds the source named by cfg.Kind.
func FromConfig(cfg config.SensorConfig) (Source, error) {
	switch cfg.Kind {
	case "", "sway":
		return NewSway(cfg.Amplitude, cfg.Period), nil
	case "jitter":
		rate := 1.0
		if cfg.Period > 0 {
			rate = 1 / cfg.Period
		}
		return NewJitter(cfg.Amplitude, rate, cfg.Seed), nil
	case "manual":
		return NewManual(), nil
	case "replay":
		if cfg.Path == "" {
			return nil, fmt.Errorf("replay sensor needs a path")
		}
		return LoadReplay(cfg.Path)
	case "script":
		if cfg.Path == "" {
			return nil, fmt.Errorf("script sensor needs a path")
		}
		return LoadScript(cfg.Path)
	default:
		return nil, fmt.Errorf("unknown sensor %q", cfg.Kind)
	}
}
