package server

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/tilt"
)

// Message types exchanged with the browser worker.
const (
	TypeInit        = "INIT_WORKER"
	TypeAccel       = "ACCELEROMETER_DATA"
	TypeReady       = "WORKER_READY"
	TypeStateUpdate = "FLUID_STATE_UPDATE"
	TypeError       = "WORKER_ERROR"
)

const (
	errNotInitialized = "simulator not initialized"
	errBadEnvelope    = "invalid message"

	// dt reported for the first sample of a session
	firstDt = 1.0 / 60.0
)

// Message is the inbound envelope.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is the outbound envelope.
type Reply struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type initPayload struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// session is one browser worker's simulator. It is driven by a single
// connection's read loop and never shared.
type session struct {
	cfg  *config.Config
	log  *slog.Logger
	now  func() time.Time
	sim  *tilt.Simulator
	last time.Time
}

func newSession(cfg *config.Config, log *slog.Logger) *session {
	return &session{cfg: cfg, log: log, now: time.Now}
}

func (s *session) handle(msg Message) Reply {
	if s.sim == nil && msg.Type != TypeInit {
		s.log.Warn("message before init", "type", msg.Type)
		return Reply{Type: TypeError, Payload: errNotInitialized}
	}

	switch msg.Type {
	case TypeInit:
		return s.init(msg.Payload)
	case TypeAccel:
		return s.accel(msg.Payload)
	default:
		return Reply{Type: TypeError, Payload: "unknown message type: " + msg.Type}
	}
}

func (s *session) init(payload json.RawMessage) Reply {
	w, h := s.cfg.Width, s.cfg.Height
	if len(payload) > 0 {
		var p initPayload
		if err := json.Unmarshal(payload, &p); err == nil && p.Width > 0 && p.Height > 0 {
			w, h = p.Width, p.Height
		}
	}

	sim, err := s.cfg.NewSimulatorSized(w, h)
	if err != nil {
		s.log.Error("init failed", "err", err)
		return Reply{Type: TypeError, Payload: "init failed: " + err.Error()}
	}
	s.sim = sim
	s.last = time.Time{}

	greeting := sim.Greet("Worker")
	s.log.Info("simulator ready", "width", w, "height", h, "particles", sim.Len())
	return Reply{Type: TypeReady, Payload: greeting}
}

func (s *session) accel(payload json.RawMessage) Reply {
	now := s.now()
	dt := firstDt
	if !s.last.IsZero() {
		dt = now.Sub(s.last).Seconds()
	}
	s.last = now

	if err := s.sim.Update(payload, dt); err != nil {
		s.log.Debug("ignoring sample", "err", err)
	}
	st, _ := s.sim.State(payload)
	return Reply{Type: TypeStateUpdate, Payload: encodeState(st)}
}

// summary is logged when the connection ends.
func (s *session) summary() []any {
	if s.sim == nil {
		return []any{"initialized", false}
	}
	tx, tz := s.sim.LastTilt()
	return []any{"ticks", s.sim.Ticks(), "last_tilt_x", tx, "last_tilt_z", tz}
}

// encodeState falls back to JSON null rather than failing the frame.
func encodeState(st tilt.State) json.RawMessage {
	data, err := json.Marshal(st)
	if err != nil {
		return json.RawMessage("null")
	}
	return data
}
