package config

import (
	"sort"

	"github.com/san-kum/tiltsim/internal/tilt"
)

// Presets are glass shapes; fields left zero fall back to DefaultConfig.
var Presets = map[string]*Config{
	"phone": {
		Width: 300, Height: 500, Particles: 10, Stepper: "fixed",
	},
	"tablet": {
		Width: 768, Height: 1024, Particles: 16, Stepper: "scaled",
	},
	"pint": {
		Width: 160, Height: 480, Particles: 8, Stepper: "fixed",
		Constants: tilt.Constants{MaxTiltX: 25, MaxTiltZ: 30, Sensitivity: 4},
	},
	"dense": {
		Width: 300, Height: 500, Particles: 200, Stepper: "scaled",
	},
}

// GetPreset returns a full config for the named preset, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Width, cfg.Height = p.Width, p.Height
	if p.Particles > 0 {
		cfg.Particles = p.Particles
	}
	if p.Stepper != "" {
		cfg.Stepper = p.Stepper
	}
	if p.Constants != (tilt.Constants{}) {
		cfg.Constants = p.Constants
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
