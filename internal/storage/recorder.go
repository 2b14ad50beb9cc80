package storage

import "github.com/san-kum/tiltsim/internal/tilt"

// Recorder keeps every Every-th frame of a run.
type Recorder struct {
	Every  int
	frames []Frame
	seen   int
}

func NewRecorder(every int) *Recorder {
	if every < 1 {
		every = 1
	}
	return &Recorder{Every: every}
}

func (r *Recorder) Observe(t float64, a tilt.Accel, st tilt.State) {
	if r.seen%r.Every == 0 {
		r.frames = append(r.frames, Frame{Time: t, Accel: a, State: st.Clone()})
	}
	r.seen++
}

func (r *Recorder) Frames() []Frame { return r.frames }
