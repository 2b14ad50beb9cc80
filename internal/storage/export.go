package storage

import (
	"encoding/json"
	"os"

	"github.com/san-kum/tiltsim/internal/tilt"
)

type ExportData struct {
	RunMetadata
	Times  []float64    `json:"times"`
	Accels []tilt.Accel `json:"accels"`
	States []tilt.State `json:"states"`
}

// ExportJSON writes a run as a single JSON document, in the same state shape
// the WebSocket host sends.
func ExportJSON(path string, meta RunMetadata, frames []Frame) error {
	data := ExportData{
		RunMetadata: meta,
		Times:       make([]float64, len(frames)),
		Accels:      make([]tilt.Accel, len(frames)),
		States:      make([]tilt.State, len(frames)),
	}
	for i, fr := range frames {
		data.Times[i] = fr.Time
		data.Accels[i] = fr.Accel
		data.States[i] = fr.State
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
