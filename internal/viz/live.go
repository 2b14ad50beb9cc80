package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/tiltsim/internal/metrics"
	"github.com/san-kum/tiltsim/internal/sensor"
	"github.com/san-kum/tiltsim/internal/storage"
	"github.com/san-kum/tiltsim/internal/tilt"
)

const (
	cols            = 40
	rows            = 20
	historyCapacity = 120

	// spring tuning for the displayed tilt; the simulator's angles jump
	// every sample, the glass on screen should not
	springFreq    = 6.0
	springDamping = 0.7
)

type TickMsg time.Time

// Model drives a simulator from a sensor source at a fixed frame rate and
// draws the tilted glass.
type Model struct {
	sim       *tilt.Simulator
	src       sensor.Source
	manual    *sensor.Manual
	metrics   []metrics.Metric
	recorder  *storage.Recorder
	title     string
	frameRate int

	t, dt   float64
	running bool
	accel   tilt.Accel
	state   tilt.State
	canvas  *Canvas

	spring       harmonica.Spring
	shownX, velX float64
	shownZ, velZ float64

	tiltHistory []float64
}

func NewModel(sim *tilt.Simulator, src sensor.Source, frameRate int, title string) Model {
	if frameRate <= 0 {
		frameRate = 60
	}
	m := Model{
		sim:         sim,
		src:         src,
		title:       title,
		frameRate:   frameRate,
		dt:          1 / float64(frameRate),
		running:     true,
		canvas:      NewCanvas(cols, rows),
		spring:      harmonica.NewSpring(harmonica.FPS(frameRate), springFreq, springDamping),
		metrics:     metrics.Standard(sim.Width(), sim.Height()),
		tiltHistory: make([]float64, 0, historyCapacity),
	}
	if man, ok := src.(*sensor.Manual); ok {
		m.manual = man
	}
	m.state = sim.StateOf(tilt.Accel{})
	return m
}

// WithRecorder records every frame the model steps.
func (m Model) WithRecorder(r *storage.Recorder) Model {
	m.recorder = r
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "left", "h":
			m.nudge(1, 0)
		case "right", "l":
			m.nudge(-1, 0)
		case "up", "k":
			m.nudge(0, 1)
		case "down", "j":
			m.nudge(0, -1)
		case "0":
			if m.manual != nil {
				m.manual.Level()
			}
		}
	case TickMsg:
		if m.running {
			m.Step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) nudge(dx, dy float64) {
	if m.manual != nil {
		m.manual.Nudge(dx, dy)
	}
}

// Step advances one frame: sample, update, snapshot, smooth.
func (m *Model) Step() {
	m.accel = m.src.Next(m.t)
	m.sim.Step(m.accel, m.dt)
	m.state = m.sim.StateOf(m.accel)

	for _, mt := range m.metrics {
		mt.Observe(m.state, m.t)
	}
	if m.recorder != nil {
		m.recorder.Observe(m.t, m.accel, m.state)
	}

	m.shownX, m.velX = m.spring.Update(m.shownX, m.velX, m.state.TiltXDeg)
	m.shownZ, m.velZ = m.spring.Update(m.shownZ, m.velZ, m.state.TiltZDeg)

	m.tiltHistory = append(m.tiltHistory, m.state.TiltZDeg)
	if len(m.tiltHistory) > historyCapacity {
		m.tiltHistory = m.tiltHistory[1:]
	}
	m.t += m.dt
}

func (m Model) State() tilt.State             { return m.state }
func (m Model) Elapsed() float64              { return m.t }
func (m Model) Shown() (tiltX, tiltZ float64) { return m.shownX, m.shownZ }
func (m Model) Metrics() map[string]float64   { return metrics.Collect(m.metrics) }

func (m Model) View() string {
	shownX, shownZ := m.Shown()
	m.canvas.Clear()
	DrawGlass(m.canvas, m.sim.Width(), m.sim.Height(), m.state, shownZ)
	canvasView := canvasStyle.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")
	if m.running {
		s.WriteString(runningTag.Render("RUNNING") + "\n\n")
	} else {
		s.WriteString(pausedTag.Render("PAUSED") + "\n\n")
	}

	if len(m.tiltHistory) > 1 {
		chart := asciigraph.Plot(m.tiltHistory,
			asciigraph.Height(4),
			asciigraph.Width(30),
			asciigraph.LowerBound(-m.sim.Constants().MaxTiltZ),
			asciigraph.UpperBound(m.sim.Constants().MaxTiltZ),
			asciigraph.Caption("tilt z"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", m.t))
	row("Accel", fmt.Sprintf("%+.2f %+.2f %+.2f", m.accel.X, m.accel.Y, m.accel.Z))
	row("Tilt X", m.tiltValue(m.state.TiltXDeg, m.sim.Constants().MaxTiltX))
	row("Tilt Z", m.tiltValue(m.state.TiltZDeg, m.sim.Constants().MaxTiltZ))
	row("Glass", fmt.Sprintf("%+.1f° %+.1f°", shownX, shownZ))
	row("Energy", fmt.Sprintf("%.2f", metrics.Energy(m.state.Particles)))
	row("Particles", fmt.Sprintf("%d", len(m.state.Particles)))

	help := "SP:Pause Q:Quit"
	if m.manual != nil {
		help += "\n←→↑↓:Tilt 0:Level"
	}
	s.WriteString(helpStyle.Render("─────────────────────\n" + help))

	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
}

func (m Model) tiltValue(v, limit float64) string {
	text := fmt.Sprintf("%+.1f°", v)
	if limit > 0 && math.Abs(v) >= limit {
		return clampedTilt.Render(text + " (max)")
	}
	return text
}
