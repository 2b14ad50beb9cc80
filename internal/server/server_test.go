package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tiltsim/internal/config"
	"github.com/san-kum/tiltsim/internal/tilt"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type stateReply struct {
	Type    string     `json:"type"`
	Payload tilt.State `json:"payload"`
}

type textReply struct {
	Type    string `json:"type"`
	Payload string `json:"payload"`
}

var _ = Describe("session", func() {
	var (
		cfg   *config.Config
		sess  *session
		clock time.Time
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		sess = newSession(cfg, quiet)
		clock = time.Unix(1000, 0)
		sess.now = func() time.Time { return clock }
	})

	accel := func(payload string) Reply {
		return sess.handle(Message{Type: TypeAccel, Payload: json.RawMessage(payload)})
	}

	decodeState := func(r Reply) tilt.State {
		raw, ok := r.Payload.(json.RawMessage)
		Expect(ok).To(BeTrue())
		var st tilt.State
		Expect(json.Unmarshal(raw, &st)).To(Succeed())
		return st
	}

	It("rejects samples before init", func() {
		r := accel(`{"x":1,"y":1,"z":1}`)
		Expect(r.Type).To(Equal(TypeError))
		Expect(r.Payload).To(Equal(errNotInitialized))
	})

	It("greets on init with the configured size", func() {
		r := sess.handle(Message{Type: TypeInit})
		Expect(r.Type).To(Equal(TypeReady))
		Expect(r.Payload).To(Equal("Hello from Go, Worker! Simulator ready for 300x500 area."))
	})

	It("accepts a size from the init payload", func() {
		r := sess.handle(Message{Type: TypeInit, Payload: json.RawMessage(`{"width":100,"height":100}`)})
		Expect(r.Payload).To(ContainSubstring("100x100"))
	})

	It("ignores an unusable init size", func() {
		r := sess.handle(Message{Type: TypeInit, Payload: json.RawMessage(`{"width":-5}`)})
		Expect(r.Payload).To(ContainSubstring("300x500"))
	})

	It("steps and reports state for a sample", func() {
		sess.handle(Message{Type: TypeInit, Payload: json.RawMessage(`{"width":100,"height":100}`)})

		st := decodeState(accel(`{"x":10,"y":0,"z":0}`))
		Expect(st.TiltZDeg).To(Equal(-45.0))
		Expect(st.TiltXDeg).To(Equal(0.0))
		Expect(st.Particles).To(HaveLen(10))
		Expect(st.Particles[0].VX).To(Equal(-1.0))
		Expect(st.Particles[0].X).To(Equal(4.0))
	})

	It("reports neutral tilt and unchanged particles for a malformed sample", func() {
		sess.handle(Message{Type: TypeInit})
		before := sess.sim.Snapshot()

		r := accel(`{"x":"left","y":0}`)
		Expect(r.Type).To(Equal(TypeStateUpdate))
		st := decodeState(r)
		Expect(st.TiltXDeg).To(BeZero())
		Expect(st.TiltZDeg).To(BeZero())
		Expect(st.Particles).To(Equal(before))
	})

	It("derives dt from the sample clock", func() {
		cfg.Stepper = "scaled"
		sess.handle(Message{Type: TypeInit, Payload: json.RawMessage(`{"width":1000,"height":1000}`)})

		// first sample counts as one reference frame
		st := decodeState(accel(`{"x":-1,"y":0,"z":0}`))
		Expect(st.Particles[0].VX).To(BeNumerically("~", 0.1, 1e-9))

		clock = clock.Add(time.Second / 30)
		st = decodeState(accel(`{"x":-1,"y":0,"z":0}`))
		Expect(st.Particles[0].VX).To(BeNumerically("~", 0.3, 1e-6))
	})

	It("summarizes ticks and the last tilt for the close log", func() {
		Expect(sess.summary()).To(Equal([]any{"initialized", false}))

		sess.handle(Message{Type: TypeInit})
		accel(`{"x":2,"y":1,"z":9.8}`)
		accel(`{"x":"bad"}`)
		accel(`{"x":-1,"y":-2,"z":9.8}`)

		Expect(sess.summary()).To(Equal([]any{
			"ticks", 2,
			"last_tilt_x", -10.0,
			"last_tilt_z", 5.0,
		}))
	})

	It("rejects unknown message types", func() {
		sess.handle(Message{Type: TypeInit})
		r := sess.handle(Message{Type: "RESET"})
		Expect(r.Type).To(Equal(TypeError))
		Expect(r.Payload).To(ContainSubstring("RESET"))
	})
})

var _ = Describe("Server", func() {
	var (
		cfg *config.Config
		ts  *httptest.Server
	)

	BeforeEach(func() {
		cfg = config.DefaultConfig()
		cfg.Server.MaxSessions = 1
	})

	JustBeforeEach(func() {
		ts = httptest.NewServer(New(cfg, quiet).Handler())
	})

	AfterEach(func() {
		ts.Close()
	})

	dialFrom := func(origin string) (*websocket.Conn, *http.Response, error) {
		url := "ws" + strings.TrimPrefix(ts.URL, "http") + cfg.Server.Path
		var h http.Header
		if origin != "" {
			h = http.Header{"Origin": {origin}}
		}
		return websocket.DefaultDialer.Dial(url, h)
	}

	dial := func() (*websocket.Conn, *http.Response, error) {
		return dialFrom("")
	}

	It("answers health checks", func() {
		resp, err := http.Get(ts.URL + "/healthz")
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		Expect(string(body)).To(Equal("ok"))
	})

	It("runs the worker protocol end to end", func() {
		conn, _, err := dial()
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		Expect(conn.WriteJSON(map[string]any{"type": TypeInit})).To(Succeed())
		var ready textReply
		Expect(conn.ReadJSON(&ready)).To(Succeed())
		Expect(ready.Type).To(Equal(TypeReady))

		Expect(conn.WriteJSON(map[string]any{
			"type":    TypeAccel,
			"payload": map[string]float64{"x": 2, "y": -3, "z": 9.8},
		})).To(Succeed())
		var update stateReply
		Expect(conn.ReadJSON(&update)).To(Succeed())
		Expect(update.Type).To(Equal(TypeStateUpdate))
		Expect(update.Payload.TiltZDeg).To(Equal(-10.0))
		Expect(update.Payload.TiltXDeg).To(Equal(-15.0))
		Expect(update.Payload.Particles).To(HaveLen(10))
		for _, p := range update.Payload.Particles {
			Expect(p.X).To(BeNumerically(">=", 0))
			Expect(p.X).To(BeNumerically("<=", cfg.Width))
		}
	})

	It("reports a broken envelope without dropping the connection", func() {
		conn, _, err := dial()
		Expect(err).NotTo(HaveOccurred())
		defer conn.Close()

		Expect(conn.WriteMessage(websocket.TextMessage, []byte("{nope"))).To(Succeed())
		var r textReply
		Expect(conn.ReadJSON(&r)).To(Succeed())
		Expect(r.Type).To(Equal(TypeError))
		Expect(r.Payload).To(Equal(errBadEnvelope))

		Expect(conn.WriteJSON(map[string]any{"type": TypeInit})).To(Succeed())
		Expect(conn.ReadJSON(&r)).To(Succeed())
		Expect(r.Type).To(Equal(TypeReady))
	})

	It("accepts the page's own origin", func() {
		conn, _, err := dialFrom(ts.URL)
		Expect(err).NotTo(HaveOccurred())
		conn.Close()
	})

	It("refuses a foreign origin by default", func() {
		_, resp, err := dialFrom("http://elsewhere.test")
		Expect(err).To(MatchError(websocket.ErrBadHandshake))
		Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
	})

	Context("with configured origins", func() {
		BeforeEach(func() {
			cfg.Server.Origins = []string{"http://glass.test/"}
		})

		It("admits a listed origin", func() {
			conn, _, err := dialFrom("http://glass.test")
			Expect(err).NotTo(HaveOccurred())
			conn.Close()
		})

		It("still refuses others", func() {
			_, resp, err := dialFrom("http://elsewhere.test")
			Expect(err).To(MatchError(websocket.ErrBadHandshake))
			Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
		})
	})

	Context("with a wildcard origin", func() {
		BeforeEach(func() {
			cfg.Server.Origins = []string{"*"}
		})

		It("admits anyone", func() {
			conn, _, err := dialFrom("http://elsewhere.test")
			Expect(err).NotTo(HaveOccurred())
			conn.Close()
		})
	})

	It("turns away sessions over the limit", func() {
		first, _, err := dial()
		Expect(err).NotTo(HaveOccurred())
		defer first.Close()

		_, resp, err := dial()
		Expect(err).To(MatchError(websocket.ErrBadHandshake))
		Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))
	})

	It("frees the slot when a session ends", func() {
		first, _, err := dial()
		Expect(err).NotTo(HaveOccurred())
		first.Close()

		Eventually(func() error {
			c, _, err := dial()
			if err == nil {
				c.Close()
			}
			return err
		}).Should(Succeed())
	})
})
