package config

import "sort"

// Preset adjusts DefaultConfig into a named starting point.
type Preset struct {
	Description string
	Apply       func(*Config)
}

var Presets = map[string]Preset{
	"fiber": {
		Description: "16x16 membrane, center drive, default camera",
		Apply:       func(*Config) {},
	},
	"calm": {
		Description: "heavier damping and a slower drive",
		Apply: func(c *Config) {
			c.Sim.Damping = 1.05
			c.Sim.TimeStep = 0.05
		},
	},
	"gravity": {
		Description: "fiber with the downward bias switched on",
		Apply: func(c *Config) {
			c.Sim.Gravity = true
			c.Sim.Instability = "clamp"
		},
	},
	"noise": {
		Description: "perlin-noise heights instead of a flat start",
		Apply: func(c *Config) {
			c.Grid.Init = "noise"
			c.Grid.Seed = 42
			c.Grid.Amplitude = 0.5
		},
	},
	"wide": {
		Description: "48x48 membrane viewed from further back",
		Apply: func(c *Config) {
			c.Grid.Side = 48
			c.Camera.Position = [3]float64{-3, -3, 15}
			c.Run.Ticks = 1200
		},
	},
}

// GetPreset returns a fresh config for name, or nil if there is none.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
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
