package metrics

import "github.com/san-kum/tiltsim/internal/tilt"

// WallContacts counts particle-samples spent touching a wall.
type WallContacts struct {
	name          string
	width, height float64
	count         int
}

func NewWallContacts(width, height float64) *WallContacts {
	return &WallContacts{name: "wall_contacts", width: width, height: height}
}

func (w *WallContacts) Name() string { return w.name }

func (w *WallContacts) Observe(st tilt.State, t float64) {
	for _, p := range st.Particles {
		if p.X == 0 || p.X == w.width || p.Y == 0 || p.Y == w.height {
			w.count++
		}
	}
}

func (w *WallContacts) Value() float64 { return float64(w.count) }

func (w *WallContacts) Reset() { w.count = 0 }
