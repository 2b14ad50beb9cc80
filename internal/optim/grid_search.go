package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/experiment"
)

var ErrUnknownParam = errors.New("optim: unknown parameter")

// Params are the config fields a sweep can vary.
var Params = []string{"sensitivity", "max_tilt_x", "max_tilt_z", "particles", "amplitude", "period"}

// Apply sets the named parameters on cfg.
func Apply(cfg *config.Config, params map[string]float64) error {
	for name, v := range params {
		switch name {
		case "sensitivity":
			cfg.Constants.Sensitivity = v
		case "max_tilt_x":
			cfg.Constants.MaxTiltX = v
		case "max_tilt_z":
			cfg.Constants.MaxTiltZ = v
		case "particles":
			cfg.Particles = int(math.Round(v))
		case "amplitude":
			cfg.Sensor.Amplitude = v
		case "period":
			cfg.Sensor.Period = v
		default:
			return fmt.Errorf("%w: %s (available: %v)", ErrUnknownParam, name, Params)
		}
	}
	return nil
}

// Trial is one grid point and the metrics its run produced.
type Trial struct {
	Params  map[string]float64
	Metrics map[string]float64
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: 1}
}

// WithWorkers runs up to n grid points at once.
func (g *GridSearch) WithWorkers(n int) *GridSearch {
	if n > 0 {
		g.workers = n
	}
	return g
}

// Points enumerates the grid, first parameter slowest.
func (g *GridSearch) Points() []map[string]float64 {
	var points []map[string]float64
	g.enumerate(0, map[string]float64{}, &points)
	return points
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		p := make(map[string]float64, len(current))
		for k, v := range current {
			p[k] = v
		}
		*out = append(*out, p)
		return
	}
	for _, val := range g.ranges[depth] {
		current[g.paramNames[depth]] = val
		g.enumerate(depth+1, current, out)
	}
	delete(current, g.paramNames[depth])
}

// Search runs every grid point and returns all trials in grid order, plus
// the index of the one with the smallest metricName (largest if maximize).
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
	maximize bool,
) ([]Trial, int, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, -1, fmt.Errorf("optim: %d params but %d ranges", len(g.paramNames), len(g.ranges))
	}

	points := g.Points()
	trials := make([]Trial, len(points))
	errs := make([]error, len(points))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				trials[i], errs[i] = runTrial(ctx, points[i], buildExperiment)
			}
		}()
	}
	for i := range points {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, -1, fmt.Errorf("trial %v: %w", points[i], err)
		}
	}

	best := -1
	for i, tr := range trials {
		v, ok := tr.Metrics[metricName]
		if !ok {
			return trials, -1, fmt.Errorf("optim: metric %q not reported", metricName)
		}
		if best < 0 {
			best = i
			continue
		}
		b := trials[best].Metrics[metricName]
		if (maximize && v > b) || (!maximize && v < b) {
			best = i
		}
	}
	return trials, best, nil
}

func runTrial(
	ctx context.Context,
	params map[string]float64,
	build func(map[string]float64) (*experiment.Experiment, error),
) (Trial, error) {
	exp, err := build(params)
	if err != nil {
		return Trial{Params: params}, err
	}
	res, err := exp.Run(ctx)
	if err != nil {
		return Trial{Params: params}, err
	}
	return Trial{Params: params, Metrics: res.Metrics}, nil
}
