package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/storage"
	"github.com/san-kum/tiltsim/internal/tilt"
)

// Experiment is a headless run: a simulator fed by a sensor source at the
// configured frame rate for the configured duration.
type Experiment struct {
	cfg       *config.Config
	src       sensor.Source
	simulator *tilt.Simulator
	metrics   []metrics.Metric
	recorder  *storage.Recorder
}

type Result struct {
	Frames  []storage.Frame
	Metrics map[string]float64
	Steps   int
	Final   tilt.State
}

// New builds the simulator from cfg. every controls recording: every n-th
// frame is kept, 0 disables recording.
func New(cfg *config.Config, src sensor.Source, every int) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sim, err := cfg.NewSimulator()
	if err != nil {
		return nil, err
	}
	e := &Experiment{
		cfg:       cfg,
		src:       src,
		simulator: sim,
		metrics:   metrics.Standard(sim.Width(), sim.Height()),
	}
	if every > 0 {
		e.recorder = storage.NewRecorder(every)
	}
	return e, nil
}

func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.src == nil {
		return nil, fmt.Errorf("experiment has no sensor source")
	}
	for _, m := range e.metrics {
		m.Reset()
	}

	dt := e.cfg.Dt()
	steps := int(math.Round(e.cfg.Duration * float64(e.cfg.FrameRate)))
	result := &Result{}

	t := 0.0
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return e.finish(result), ctx.Err()
		default:
		}

		a := e.src.Next(t)
		e.simulator.Step(a, dt)
		st := e.simulator.StateOf(a)

		for _, m := range e.metrics {
			m.Observe(st, t)
		}
		if e.recorder != nil {
			e.recorder.Observe(t, a, st)
		}
		result.Final = st
		result.Steps++
		t += dt
	}

	return e.finish(result), nil
}

func (e *Experiment) finish(r *Result) *Result {
	r.Metrics = metrics.Collect(e.metrics)
	if e.recorder != nil {
		r.Frames = e.recorder.Frames()
	}
	return r
}

// Simulator returns the underlying simulator.
func (e *Experiment) Simulator() *tilt.Simulator {
	return e.simulator
}
