package sensor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/tiltsim/internal/tilt"
)

var ErrEmptyReplay = errors.New("sensor: replay has no samples")

// Sample is one recorded reading.
type Sample struct {
	T float64
	A tilt.Accel
}

// Replay plays back recorded samples, holding each one until the next.
type Replay struct {
	samples []Sample
}

func NewReplay(samples []Sample) (*Replay, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyReplay
	}
	s := make([]Sample, len(samples))
	copy(s, samples)
	sort.SliceStable(s, func(i, j int) bool { return s[i].T < s[j].T })
	return &Replay{samples: s}, nil
}

func LoadReplay(path string) (*Replay, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadReplay(f)
}

// ReadReplay parses "t,x,y,z" rows. A leading header row is skipped and
// columns past the fourth are ignored, so a stored run's frames.csv replays
// as is.
func ReadReplay(r io.Reader) (*Replay, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var samples []Sample
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if len(rec) < 4 {
			return nil, fmt.Errorf("replay line %d: want t,x,y,z, got %d fields", line, len(rec))
		}
		if line == 1 && (strings.EqualFold(rec[0], "t") || strings.EqualFold(rec[0], "time")) {
			continue
		}

		var v [4]float64
		for i, field := range rec[:4] {
			v[i], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("replay line %d: %w", line, err)
			}
		}
		samples = append(samples, Sample{T: v[0], A: tilt.Accel{X: v[1], Y: v[2], Z: v[3]}})
	}
	return NewReplay(samples)
}

func (r *Replay) Len() int { return len(r.samples) }

// Duration is the timestamp of the last sample.
func (r *Replay) Duration() float64 { return r.samples[len(r.samples)-1].T }

func (r *Replay) Next(t float64) tilt.Accel {
	i := sort.Search(len(r.samples), func(i int) bool { return r.samples[i].T > t })
	if i == 0 {
		return r.samples[0].A
	}
	return r.samples[i-1].A
}
