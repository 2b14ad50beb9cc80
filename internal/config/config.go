package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/tiltsim/internal/integrators"
	"github.com/san-kum/tiltsim/internal/tilt"
)

const (
	// The browser worker sized its glass at 300x500.
	DefaultWidth       = 300.0
	DefaultHeight      = 500.0
	DefaultStepper     = "fixed"
	DefaultFrameRate   = 60
	DefaultDuration    = 10.0
	DefaultAddr        = ":8080"
	DefaultPath        = "/ws"
	DefaultMaxSessions = 64
	DefaultSensor      = "sway"
	DefaultAmplitude   = 6.0
	DefaultPeriod      = 4.0
)

type Config struct {
	Width     float64        `yaml:"width"`
	Height    float64        `yaml:"height"`
	Particles int            `yaml:"particles"`
	Stepper   string         `yaml:"stepper"`
	Constants tilt.Constants `yaml:"constants"`
	FrameRate int            `yaml:"frame_rate"`
	Duration  float64        `yaml:"duration"`
	Server    ServerConfig   `yaml:"server"`
	Sensor    SensorConfig   `yaml:"sensor"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	Path        string `yaml:"path"`
	MaxSessions int    `yaml:"max_sessions"`

	// Origins are the browser origins allowed to connect. Empty means
	// same-origin only; "*" allows any.
	Origins []string `yaml:"origins,omitempty"`
}

type SensorConfig struct {
	Kind      string  `yaml:"kind"`
	Path      string  `yaml:"path"`
	Amplitude float64 `yaml:"amplitude"`
	Period    float64 `yaml:"period"`
	Seed      int64   `yaml:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:     DefaultWidth,
		Height:    DefaultHeight,
		Particles: tilt.DefaultParticles,
		Stepper:   DefaultStepper,
		Constants: tilt.DefaultConstants(),
		FrameRate: DefaultFrameRate,
		Duration:  DefaultDuration,
		Server: ServerConfig{
			Addr:        DefaultAddr,
			Path:        DefaultPath,
			MaxSessions: DefaultMaxSessions,
		},
		Sensor: SensorConfig{
			Kind:      DefaultSensor,
			Amplitude: DefaultAmplitude,
			Period:    DefaultPeriod,
		},
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads path on top of base, so fields the file omits keep base's
// values. base is modified and returned.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, base); err != nil {
		return nil, err
	}
	return base, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %gx%g", c.Width, c.Height)
	}
	if c.Particles < 1 {
		return fmt.Errorf("particles must be at least 1, got %d", c.Particles)
	}
	if c.FrameRate <= 0 {
		return fmt.Errorf("frame_rate must be positive, got %d", c.FrameRate)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if _, err := integrators.New(c.Stepper); err != nil {
		return err
	}
	if c.Server.MaxSessions < 0 {
		return fmt.Errorf("server.max_sessions must not be negative, got %d", c.Server.MaxSessions)
	}
	return nil
}

// Dt is the tick length implied by FrameRate.
func (c *Config) Dt() float64 {
	return 1.0 / float64(c.FrameRate)
}

// NewSimulator builds a simulator from the config.
func (c *Config) NewSimulator() (*tilt.Simulator, error) {
	return c.NewSimulatorSized(c.Width, c.Height)
}

// NewSimulatorSized is NewSimulator with the box size overridden, as when a
// browser reports its own glass dimensions.
func (c *Config) NewSimulatorSized(width, height float64) (*tilt.Simulator, error) {
	st, err := integrators.New(c.Stepper)
	if err != nil {
		return nil, err
	}
	return tilt.New(width, height,
		tilt.WithParticles(c.Particles),
		tilt.WithConstants(c.Constants),
		tilt.WithStepper(st),
	)
}
