package tilt

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func mustNew(t *testing.T, w, h float64, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(w, h, opts...)
	if err != nil {
		t.Fatalf("New(%g, %g) failed: %v", w, h, err)
	}
	return s
}

func TestNewLayout(t *testing.T) {
	dims := []struct{ w, h float64 }{
		{100, 100},
		{300, 500},
		{1, 1},
		{1920.5, 0.25},
	}

	for _, d := range dims {
		s := mustNew(t, d.w, d.h)
		ps := s.Snapshot()
		if len(ps) != DefaultParticles {
			t.Fatalf("%gx%g: expected %d particles, got %d", d.w, d.h, DefaultParticles, len(ps))
		}

		spacing := d.w / 10
		for i, p := range ps {
			want := float64(i)*spacing + d.w/20
			if math.Abs(p.X-want) > 1e-9 {
				t.Errorf("%gx%g particle %d: x = %f, want %f", d.w, d.h, i, p.X, want)
			}
			if p.Y != d.h*0.5 {
				t.Errorf("%gx%g particle %d: y = %f, want %f", d.w, d.h, i, p.Y, d.h*0.5)
			}
			if p.VX != 0 || p.VY != 0 {
				t.Errorf("particle %d should start at rest, got (%f, %f)", i, p.VX, p.VY)
			}
			if p.X < 0 || p.X > d.w {
				t.Errorf("particle %d outside [0, %g]: %f", i, d.w, p.X)
			}
			if i > 0 && math.Abs((p.X-ps[i-1].X)-spacing) > 1e-9 {
				t.Errorf("uneven spacing at %d", i)
			}
		}
	}
}

func TestNewWithParticles(t *testing.T) {
	s := mustNew(t, 200, 50, WithParticles(4))
	ps := s.Snapshot()
	want := []float64{25, 75, 125, 175}
	if len(ps) != len(want) {
		t.Fatalf("expected %d particles, got %d", len(want), len(ps))
	}
	for i, p := range ps {
		if p.X != want[i] {
			t.Errorf("particle %d: x = %f, want %f", i, p.X, want[i])
		}
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		w, h float64
		opts []Option
		want error
	}{
		{"zero width", 0, 10, nil, ErrInvalidBounds},
		{"negative height", 10, -1, nil, ErrInvalidBounds},
		{"nan width", math.NaN(), 10, nil, ErrInvalidBounds},
		{"inf height", 10, math.Inf(1), nil, ErrInvalidBounds},
		{"zero particles", 10, 10, []Option{WithParticles(0)}, ErrInvalidOption},
		{"nil stepper", 10, 10, []Option{WithStepper(nil)}, ErrInvalidOption},
		{"negative max tilt", 10, 10, []Option{WithConstants(Constants{MaxTiltX: -1, MaxTiltZ: 45, Sensitivity: 5})}, ErrInvalidOption},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.w, tt.h, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestScenario(t *testing.T) {
	s := mustNew(t, 100, 100)
	accel := map[string]any{"x": 10.0, "y": 0.0, "z": 0.0}

	if err := s.Update(accel, 0.016); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	st, err := s.State(accel)
	if err != nil {
		t.Fatalf("state failed: %v", err)
	}

	if st.TiltZDeg != -45 {
		t.Errorf("tilt_z = %f, want -45", st.TiltZDeg)
	}
	if st.TiltXDeg != 0 {
		t.Errorf("tilt_x = %f, want 0", st.TiltXDeg)
	}

	p0 := st.Particles[0]
	if p0.VX != -1.0 {
		t.Errorf("p0.vx = %f, want -1", p0.VX)
	}
	if p0.X != 4.0 {
		t.Errorf("p0.x = %f, want 4", p0.X)
	}
	if p0.X < 0 || p0.X > 100 {
		t.Errorf("p0.x out of bounds: %f", p0.X)
	}
}

func TestReflectionDamping(t *testing.T) {
	s := mustNew(t, 100, 100)
	// p0 starts at x=5; a push of -10 per tick drives it to -5.
	s.Step(Accel{X: 100}, 0)

	p0 := s.Snapshot()[0]
	if p0.X != 0 {
		t.Errorf("x = %f, want 0", p0.X)
	}
	if p0.VX != -0.5*-10 {
		t.Errorf("vx = %f, want %f", p0.VX, -0.5*-10)
	}

	last := s.Snapshot()[9]
	if last.X != 85 || last.VX != -10 {
		t.Errorf("p9 should move freely to 85 with vx -10, got %+v", last)
	}
}

func TestReflectionFarWall(t *testing.T) {
	s := mustNew(t, 100, 100)
	// every particle starts at y=50; vy=+60 carries it to 110, past the wall.
	s.Step(Accel{Y: -600}, 0)

	ps := s.Snapshot()
	if len(ps) != DefaultParticles {
		t.Fatalf("expected %d particles, got %d", DefaultParticles, len(ps))
	}
	for i, p := range ps {
		if p.Y != 100 {
			t.Errorf("particle %d: y = %f, want 100", i, p.Y)
		}
		if p.VY != -30 {
			t.Errorf("particle %d: vy = %f, want -30", i, p.VY)
		}
	}
}

func TestBoundaryClampFuzz(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	dims := []struct{ w, h float64 }{{100, 100}, {300, 500}, {3, 1000}}

	for _, d := range dims {
		s := mustNew(t, d.w, d.h)
		for i := 0; i < 5000; i++ {
			a := Accel{
				X: rng.Float64()*2000 - 1000,
				Y: rng.Float64()*2000 - 1000,
				Z: rng.Float64()*2000 - 1000,
			}
			s.Step(a, rng.Float64())
			for j, p := range s.Snapshot() {
				if p.X < 0 || p.X > d.w || p.Y < 0 || p.Y > d.h {
					t.Fatalf("step %d particle %d escaped %gx%g: (%f, %f)", i, j, d.w, d.h, p.X, p.Y)
				}
			}
		}
	}
}

func TestTiltClamp(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	c := DefaultConstants()
	for i := 0; i < 10000; i++ {
		a := Accel{X: (rng.Float64()*2 - 1) * 1e6, Y: (rng.Float64()*2 - 1) * 1e6}
		tx, tz := DeriveTilt(a, c)
		if tx < -35 || tx > 35 {
			t.Fatalf("tilt_x %f out of range for %+v", tx, a)
		}
		if tz < -45 || tz > 45 {
			t.Fatalf("tilt_z %f out of range for %+v", tz, a)
		}
	}
}

func TestDeriveTilt(t *testing.T) {
	c := DefaultConstants()
	tests := []struct {
		name   string
		a      Accel
		tx, tz float64
	}{
		{"level", Accel{Z: 9.81}, 0, 0},
		{"gentle", Accel{X: 2, Y: -3}, -15, -10},
		{"clamped", Accel{X: -20, Y: 20}, 35, 45},
		{"negative clamp", Accel{X: 1000, Y: -1000}, -35, -45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, tz := DeriveTilt(tt.a, c)
			if tx != tt.tx || tz != tt.tz {
				t.Errorf("DeriveTilt(%+v) = (%f, %f), want (%f, %f)", tt.a, tx, tz, tt.tx, tt.tz)
			}
		})
	}
}

func TestUpdateDecodeFailureIsNoop(t *testing.T) {
	s := mustNew(t, 100, 100)
	before := s.Snapshot()

	inputs := []any{
		nil,
		map[string]any{"x": 1.0, "y": 2.0},
		map[string]any{"x": "1", "y": 2.0, "z": 3.0},
		map[string]any{"x": nil, "y": 2.0, "z": 3.0},
		[]byte(`{"x": 1}`),
		[]byte(`not json`),
		42,
	}

	for _, in := range inputs {
		err := s.Update(in, 0.016)
		if !errors.Is(err, ErrDecode) {
			t.Errorf("Update(%v): expected ErrDecode, got %v", in, err)
		}
	}

	after := s.Snapshot()
	for i := range before {
		if before[i] != after[i] {
			t.Errorf("particle %d changed on failed decode: %+v -> %+v", i, before[i], after[i])
		}
	}
	if s.Ticks() != 0 {
		t.Errorf("expected 0 ticks, got %d", s.Ticks())
	}
}

func TestStateDecodeFailureDefaults(t *testing.T) {
	s := mustNew(t, 100, 100)
	s.Step(Accel{X: 3, Y: 4}, 0)

	st, err := s.State(map[string]any{"y": 1.0})
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
	if de.Field != "x" {
		t.Errorf("expected field x, got %q", de.Field)
	}

	if st.TiltXDeg != 0 || st.TiltZDeg != 0 {
		t.Errorf("expected neutral tilt, got (%f, %f)", st.TiltXDeg, st.TiltZDeg)
	}

	want := s.Snapshot()
	if len(st.Particles) != len(want) {
		t.Fatalf("expected %d particles, got %d", len(want), len(st.Particles))
	}
	for i := range want {
		if st.Particles[i] != want[i] {
			t.Errorf("particle %d: %+v, want %+v", i, st.Particles[i], want[i])
		}
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := mustNew(t, 100, 100)
	st := s.StateOf(Accel{})
	st.Particles[0].X = -999
	st.Particles[0].VY = 42

	again := s.StateOf(Accel{})
	if again.Particles[0].X == -999 || again.Particles[0].VY == 42 {
		t.Error("mutating a returned state leaked into the simulator")
	}

	clone := again.Clone()
	clone.Particles[1].X = 7
	if again.Particles[1].X == 7 {
		t.Error("State.Clone shares particles")
	}
}

func TestLastTilt(t *testing.T) {
	s := mustNew(t, 100, 100)
	s.Step(Accel{X: 2, Y: 1}, 0)
	tx, tz := s.LastTilt()
	if tx != 5 || tz != -10 {
		t.Errorf("LastTilt = (%f, %f), want (5, -10)", tx, tz)
	}

	_ = s.Update(map[string]any{}, 0)
	tx, tz = s.LastTilt()
	if tx != 5 || tz != -10 {
		t.Error("failed update should not touch the cached tilt")
	}
}

func TestFixedTickIgnoresDt(t *testing.T) {
	a := mustNew(t, 100, 100)
	b := mustNew(t, 100, 100)
	a.Step(Accel{X: 1, Y: 1}, 1.0/30)
	b.Step(Accel{X: 1, Y: 1}, 1.0/144)

	pa, pb := a.Snapshot(), b.Snapshot()
	for i := range pa {
		if pa[i] != pb[i] {
			t.Fatalf("fixed tick should not depend on dt: %+v vs %+v", pa[i], pb[i])
		}
	}
}

func TestGreet(t *testing.T) {
	s := mustNew(t, 300, 500)
	got := s.Greet("Worker")
	want := "Hello from Go, Worker! Simulator ready for 300x500 area."
	if got != want {
		t.Errorf("Greet = %q, want %q", got, want)
	}
}
