package sensor

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tiltsim/internal/tilt"
)

var ErrEmptyScript = errors.New("sensor: script has no steps")

// Vec is an accelerometer reading as written in a script file.
type Vec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec) accel() tilt.Accel { return tilt.Accel{X: v.X, Y: v.Y, Z: v.Z} }

// ScriptStep is one segment of a script. Exactly one of Hold, Ramp or Sway
// is set. A Ramp moves linearly from wherever the previous step ended.
type ScriptStep struct {
	Duration float64 `yaml:"duration"`
	Hold     *Vec    `yaml:"hold,omitempty"`
	Ramp     *Vec    `yaml:"ramp,omitempty"`
	Sway     *Sway   `yaml:"sway,omitempty"`
}

// Script plays a fixed sequence of tilt gestures, e.g.
//
//	loop: true
//	steps:
//	  - duration: 2
//	    hold: {z: 9.81}
//	  - duration: 1
//	    ramp: {x: 8, z: 9.81}
//	  - duration: 4
//	    sway: {amplitude: 6, period: 2}
type Script struct {
	Loop  bool         `yaml:"loop"`
	Steps []ScriptStep `yaml:"steps"`

	starts []float64
	from   []tilt.Accel
	total  float64
}

// LoadScript reads and compiles a YAML script.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script %s: %w", path, err)
	}
	if err := s.Compile(); err != nil {
		return nil, fmt.Errorf("script %s: %w", path, err)
	}
	return &s, nil
}

// Compile checks the steps and precomputes segment boundaries. It must be
// called before Next on a Script built in code.
func (s *Script) Compile() error {
	if len(s.Steps) == 0 {
		return ErrEmptyScript
	}
	s.starts = make([]float64, len(s.Steps))
	s.from = make([]tilt.Accel, len(s.Steps))
	s.total = 0

	prev := tilt.Accel{Z: Gravity}
	for i, st := range s.Steps {
		if st.Duration <= 0 || math.IsInf(st.Duration, 0) || math.IsNaN(st.Duration) {
			return fmt.Errorf("step %d: duration must be positive, got %g", i+1, st.Duration)
		}
		set := 0
		for _, ok := range []bool{st.Hold != nil, st.Ramp != nil, st.Sway != nil} {
			if ok {
				set++
			}
		}
		if set != 1 {
			return fmt.Errorf("step %d: want exactly one of hold, ramp, sway", i+1)
		}

		s.starts[i] = s.total
		s.from[i] = prev
		s.total += st.Duration
		prev = s.eval(i, st.Duration)
	}
	return nil
}

// Duration is the length of one pass through the steps, looped or not.
func (s *Script) Duration() float64 { return s.total }

func (s *Script) Next(t float64) tilt.Accel {
	if len(s.starts) == 0 {
		return tilt.Accel{Z: Gravity}
	}
	if t < 0 {
		t = 0
	}
	if t >= s.total {
		if !s.Loop {
			last := len(s.Steps) - 1
			return s.eval(last, s.Steps[last].Duration)
		}
		t = math.Mod(t, s.total)
	}

	i := len(s.starts) - 1
	for i > 0 && s.starts[i] > t {
		i--
	}
	return s.eval(i, t-s.starts[i])
}

// eval is step i at local time u.
func (s *Script) eval(i int, u float64) tilt.Accel {
	st := s.Steps[i]
	switch {
	case st.Hold != nil:
		return st.Hold.accel()
	case st.Ramp != nil:
		f := math.Min(u/st.Duration, 1)
		a, b := s.from[i], st.Ramp.accel()
		return tilt.Accel{
			X: a.X + (b.X-a.X)*f,
			Y: a.Y + (b.Y-a.Y)*f,
			Z: a.Z + (b.Z-a.Z)*f,
		}
	default:
		return st.Sway.Next(u)
	}
}
