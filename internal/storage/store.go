package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/tiltsim/internal/tilt"
)

const (
	metadataFile = "metadata.json"
	framesFile   = "frames.csv"

	// frame columns before the per-particle block
	headerCols   = 6
	particleCols = 4
)

var ErrMalformedFrames = errors.New("storage: malformed frames file")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Particles int                `json:"particles"`
	Stepper   string             `json:"stepper"`
	Sensor    string             `json:"sensor"`
	Dt        float64            `json:"dt"`
	Duration  float64            `json:"duration"`
	Frames    int                `json:"frames"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Frame is one recorded tick: the sample fed in and the state it produced.
type Frame struct {
	Time  float64
	Accel tilt.Accel
	State tilt.State
}

// Save writes meta and frames under a fresh run directory and returns its id.
// meta.ID, Timestamp and Frames are filled in.
func (s *Store) Save(meta RunMetadata, frames []Frame) (string, error) {
	prefix := meta.Preset
	if prefix == "" {
		prefix = "run"
	}
	meta.ID = fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Frames = len(frames)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, framesFile), frames); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeFrames(path string, frames []Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	n := 0
	if len(frames) > 0 {
		n = len(frames[0].State.Particles)
	}
	header := []string{"time", "ax", "ay", "az", "tilt_x", "tilt_z"}
	for i := 0; i < n; i++ {
		header = append(header,
			fmt.Sprintf("p%d_x", i), fmt.Sprintf("p%d_y", i),
			fmt.Sprintf("p%d_vx", i), fmt.Sprintf("p%d_vy", i))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, fr := range frames {
		row := make([]string, 0, headerCols+particleCols*n)
		row = append(row,
			ftoa(fr.Time),
			ftoa(fr.Accel.X), ftoa(fr.Accel.Y), ftoa(fr.Accel.Z),
			ftoa(fr.State.TiltXDeg), ftoa(fr.State.TiltZDeg))
		for _, p := range fr.State.Particles {
			row = append(row, ftoa(p.X), ftoa(p.Y), ftoa(p.VX), ftoa(p.VY))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadFrames(runID string) ([]Frame, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, framesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Frame{}, nil
	}

	frames := make([]Frame, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) < headerCols || (len(record)-headerCols)%particleCols != 0 {
			return nil, fmt.Errorf("%w: row %d has %d columns", ErrMalformedFrames, i+1, len(record))
		}
		vals := make([]float64, len(record))
		for j, field := range record {
			vals[j], err = strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d: %v", ErrMalformedFrames, i+1, err)
			}
		}

		fr := Frame{
			Time:  vals[0],
			Accel: tilt.Accel{X: vals[1], Y: vals[2], Z: vals[3]},
			State: tilt.State{TiltXDeg: vals[4], TiltZDeg: vals[5]},
		}
		for k := headerCols; k < len(vals); k += particleCols {
			fr.State.Particles = append(fr.State.Particles, tilt.Particle{
				X: vals[k], Y: vals[k+1], VX: vals[k+2], VY: vals[k+3],
			})
		}
		frames = append(frames, fr)
	}
	return frames, nil
}
