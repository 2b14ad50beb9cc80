package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/tiltsim/internal/tilt"
	"github.com/san-kum/tiltsim/internal/viz"
)

const (
	background = "#0a0a0a"
	beer       = "#f5a623"
	glassLine  = "#d0d0d0"
)

func header(sb *strings.Builder, width, height float64) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background))
}

// GlassSVG draws one state the way the browser does: the glass rotated by
// tilt_z about its centre, with particles as dots in glass coordinates.
func GlassSVG(st tilt.State, width, height float64, radius float64) string {
	pad := math.Max(width, height) * 0.25
	vw, vh := width+2*pad, height+2*pad

	var sb strings.Builder
	header(&sb, vw, vh)

	sb.WriteString(fmt.Sprintf(`<g transform="translate(%.1f %.1f) rotate(%.2f %.1f %.1f)">
`, pad, pad, st.TiltZDeg, width/2, height/2))
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="2" d="M0,0 L0,%.1f L%.1f,%.1f L%.1f,0"/>
`, glassLine, height, width, height, width))

	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, beer))
	for _, p := range st.Particles {
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, p.X, p.Y, radius))
	}
	sb.WriteString("</g>\n</g>\n")

	sb.WriteString(fmt.Sprintf(`<text x="8" y="%.0f" fill="%s" font-family="monospace" font-size="12">tilt x %+.1f° z %+.1f°</text>
`, vh-8, glassLine, st.TiltXDeg, st.TiltZDeg))
	sb.WriteString("</svg>")
	return sb.String()
}

// CanvasToSVG converts a braille canvas to SVG, one circle per set dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	dw, dh := canvas.Dots()
	var sb strings.Builder
	sb.Grow(256 + 48*canvas.Count())
	header(&sb, float64(dw)*scale, float64(dh)*scale)
	sb.WriteString(fmt.Sprintf(`<g fill="%s">
`, beer))

	dotRadius := scale * 0.4
	for y := 0; y < dh; y++ {
		for x := 0; x < dw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG plots values against their index as a polyline.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = math.Min(minY, v)
		maxY = math.Max(maxY, v)
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, strokeColor))

	last := float64(len(values) - 1)
	for i, v := range values {
		x := float64(i) / last * float64(width)
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
