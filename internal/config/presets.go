package config

import (
	"fmt"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// Preset is a named adjustment applied on top of DefaultConfig.
type Preset struct {
	Description string
	Apply       func(c *Config)
}

var Presets = map[string]Preset{
	"calm": {
		Description: "light steady air, long lines",
		Apply: func(c *Config) {
			c.Wind.Speed, c.Wind.Turbulence = 4.0, 0
			c.Lines.Length = 20.0
			c.Kite.InitialPosition[1], c.Kite.InitialPosition[2] = 12.0, -16.0
		},
	},
	"breeze": {
		Description: "default flying conditions",
		Apply:       func(c *Config) {},
	},
	"gusty": {
		Description: "moderate wind with heavy turbulence",
		Apply: func(c *Config) {
			c.Wind.Speed, c.Wind.Turbulence = 10.0, 45.0
			c.Wind.GustFrequency = 0.9
		},
	},
	"strong": {
		Description: "strong wind, short stiff lines",
		Apply: func(c *Config) {
			c.Wind.Speed, c.Wind.Turbulence = 16.0, 20.0
			c.Lines.Length, c.Lines.Stiffness = 10.0, 80.0
			c.Lines.MaxTension = 150.0
			c.Kite.InitialPosition[1], c.Kite.InitialPosition[2] = 6.5, -8.0
		},
	},
	"crosswind": {
		Description: "wind from 30° off the pilot axis",
		Apply: func(c *Config) {
			c.Wind.Direction = 30.0
		},
	},
	"ground": {
		Description: "kite parked on the ground, lines slack",
		Apply: func(c *Config) {
			c.Wind.Speed, c.Wind.Turbulence = 3.0, 0
			c.Kite.InitialPosition = mgl64.Vec3{0, 0.5, -12.0}
		},
	},
}

func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

// LookupPreset is GetPreset with an error naming the available presets.
func LookupPreset(name string) (*Config, error) {
	cfg := GetPreset(name)
	if cfg == nil {
		return nil, fmt.Errorf("%q (available: %v): %w", name, ListPresets(), dynamo.ErrUnknownPreset)
	}
	return cfg, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
