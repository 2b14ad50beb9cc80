package viz

import (
	"math"

	"github.com/san-kum/tiltsim/internal/tilt"
)

// margin in dots between the glass and the canvas edge
const margin = 4

// glassFrame maps simulator coordinates onto canvas dots, rotated by the
// glass tilt about the canvas centre.
type glassFrame struct {
	scale    float64
	cx, cy   float64
	w, h     float64
	sin, cos float64
}

func newGlassFrame(c *Canvas, width, height, tiltZDeg float64) glassFrame {
	dw, dh := c.Dots()
	sx := (float64(dw) - 2*margin) / width
	sy := (float64(dh) - 2*margin) / height
	rad := tiltZDeg * math.Pi / 180
	return glassFrame{
		scale: math.Min(sx, sy),
		cx:    float64(dw) / 2,
		cy:    float64(dh) / 2,
		w:     width,
		h:     height,
		sin:   math.Sin(rad),
		cos:   math.Cos(rad),
	}
}

// project turns sim (x, y), y growing downward like the browser, into dots.
func (f glassFrame) project(x, y float64) (float64, float64) {
	lx := (x - f.w/2) * f.scale
	ly := (y - f.h/2) * f.scale
	return f.cx + lx*f.cos - ly*f.sin, f.cy + lx*f.sin + ly*f.cos
}

// DrawGlass renders the glass outline tilted by tiltZDeg, the particles
// inside it, and a level liquid surface through their mean height.
func DrawGlass(c *Canvas, width, height float64, st tilt.State, tiltZDeg float64) {
	f := newGlassFrame(c, width, height, tiltZDeg)

	// open-topped glass: two walls and a base
	corners := [][2]float64{{0, 0}, {0, height}, {width, height}, {width, 0}}
	for i := 0; i < len(corners)-1; i++ {
		x0, y0 := f.project(corners[i][0], corners[i][1])
		x1, y1 := f.project(corners[i+1][0], corners[i+1][1])
		c.DrawLineF(x0, y0, x1, y1)
	}

	if len(st.Particles) == 0 {
		return
	}
	meanY := 0.0
	for _, p := range st.Particles {
		px, py := f.project(p.X, p.Y)
		c.Blob(px, py)
		meanY += p.Y
	}
	meanY /= float64(len(st.Particles))

	// the surface stays level with the world, not the glass
	_, sy := f.project(width/2, meanY)
	half := width / 2 * f.scale * 0.9
	for x := f.cx - half; x <= f.cx+half; x += 2 {
		c.Set(round(x), round(sy))
	}
}
