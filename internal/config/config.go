package config

import (
	"fmt"
	"io"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

const (
	DefaultMass    = 0.3
	DefaultInertia = 0.08

	DefaultLineLength = 15.0
	DefaultStiffness  = 40.0
	DefaultMaxTension = 80.0

	DefaultBarWidth       = 0.6
	DefaultBarMaxRotation = 0.8
	DefaultBarResponse    = 8.0

	DefaultWindSpeed       = 8.0
	DefaultWindTurbulence  = 10.0
	DefaultGustFrequency   = 0.5
	DefaultMaxApparentWind = 30.0

	DefaultAirDensity = 1.225
	// DefaultExtradosBoost is the peak extra force on aft panels, reached at
	// 60° off the panel normal: 1 + 0.4·sin(π·cosθ). Empirical.
	DefaultExtradosBoost         = 0.4
	DefaultCenterOfPressureShift = 0.05
	DefaultMinIncidence          = 0.05

	DefaultSolverPasses    = 2
	DefaultSolverDamping   = 0.7
	DefaultSolverTolerance = 0.005

	DefaultGravity        = 9.81
	DefaultMaxDeltaTime   = 0.02
	DefaultForceSmoothing = 0.75
	DefaultLinearDamping  = 0.4
	DefaultAngularDamping = 2.0
	DefaultMinHeight      = 0.1
	DefaultGroundFriction = 0.85

	DefaultMaxForce               = 1000.0
	DefaultMaxVelocity            = 30.0
	DefaultMaxAngularVelocity     = 25.0
	DefaultMaxAcceleration        = 200.0
	DefaultMaxAngularAcceleration = 400.0
	DefaultEpsilon                = 1e-6

	DefaultDt       = 1.0 / 60.0
	DefaultDuration = 30.0
)

// Config is the immutable parameter bundle handed to the stepper. Values
// are copied in; mutating a Config after construction has no effect on a
// running simulation.
type Config struct {
	Kite        KiteConfig        `yaml:"kite"`
	Lines       LinesConfig       `yaml:"lines"`
	Bar         BarConfig         `yaml:"bar"`
	Wind        WindConfig        `yaml:"wind"`
	Aero        AeroConfig        `yaml:"aero"`
	Solver      SolverConfig      `yaml:"solver"`
	Integration IntegrationConfig `yaml:"integration"`
	Safety      SafetyConfig      `yaml:"safety"`
	Run         RunConfig         `yaml:"run"`
}

type KiteConfig struct {
	Mass            float64        `yaml:"mass"`
	Inertia         float64        `yaml:"inertia"`
	InitialPosition mgl64.Vec3     `yaml:"initial_position"`
	InitialPitch    float64        `yaml:"initial_pitch_deg"`
	Geometry        GeometryConfig `yaml:"geometry"`
}

// GeometryConfig describes the kite in its local frame: +Y along the spine
// toward the nose, +X toward the right tip, +Z toward the bridle side.
type GeometryConfig struct {
	Points       map[string]mgl64.Vec3 `yaml:"points"`
	Panels       [][3]string           `yaml:"panels"`
	LeftControl  string                `yaml:"left_control"`
	RightControl string                `yaml:"right_control"`
	// GroundPoints lists the points tested against the ground. Empty means
	// every point.
	GroundPoints []string `yaml:"ground_points,omitempty"`
}

type LinesConfig struct {
	Length     float64 `yaml:"length"`
	Stiffness  float64 `yaml:"stiffness"`
	MaxTension float64 `yaml:"max_tension"`
}

type BarConfig struct {
	Position    mgl64.Vec3 `yaml:"position"`
	Width       float64    `yaml:"width"`
	MaxRotation float64    `yaml:"max_rotation"`
	Response    float64    `yaml:"response"`
}

type WindConfig struct {
	Speed           float64 `yaml:"speed"`
	Direction       float64 `yaml:"direction_deg"`
	Turbulence      float64 `yaml:"turbulence_pct"`
	GustFrequency   float64 `yaml:"gust_frequency"`
	MaxApparentWind float64 `yaml:"max_apparent_wind"`
}

type AeroConfig struct {
	AirDensity            float64 `yaml:"air_density"`
	LiftScale             float64 `yaml:"lift_scale"`
	DragScale             float64 `yaml:"drag_scale"`
	ExtradosBoost         float64 `yaml:"extrados_boost"`
	CenterOfPressureShift float64 `yaml:"center_of_pressure_shift"`
	MinIncidence          float64 `yaml:"min_incidence"`
}

type SolverConfig struct {
	Passes             int     `yaml:"passes"`
	Damping            float64 `yaml:"damping"`
	Tolerance          float64 `yaml:"tolerance"`
	VelocityCorrection bool    `yaml:"velocity_correction"`
}

type IntegrationConfig struct {
	Gravity        float64 `yaml:"gravity"`
	MaxDeltaTime   float64 `yaml:"max_delta_time"`
	ForceSmoothing float64 `yaml:"force_smoothing"`
	LinearDamping  float64 `yaml:"linear_damping"`
	AngularDamping float64 `yaml:"angular_damping"`
	MinHeight      float64 `yaml:"min_height"`
	GroundFriction float64 `yaml:"ground_friction"`
}

// SafetyConfig holds the hard ceilings that keep the integrator bounded.
type SafetyConfig struct {
	MaxForce               float64 `yaml:"max_force"`
	MaxVelocity            float64 `yaml:"max_velocity"`
	MaxAngularVelocity     float64 `yaml:"max_angular_velocity"`
	MaxAcceleration        float64 `yaml:"max_acceleration"`
	MaxAngularAcceleration float64 `yaml:"max_angular_acceleration"`
	Epsilon                float64 `yaml:"epsilon"`
}

type RunConfig struct {
	Dt       float64 `yaml:"dt"`
	Duration float64 `yaml:"duration"`
}

// DefaultGeometry returns the four-panel delta kite: two flat fore panels
// forming the sail and two aft whisker pockets behind it.
func DefaultGeometry() GeometryConfig {
	return GeometryConfig{
		Points: map[string]mgl64.Vec3{
			"nose":          {0, 0.65, 0},
			"spine_base":    {0, 0, 0},
			"left_tip":      {-0.825, 0, 0},
			"right_tip":     {0.825, 0, 0},
			"left_whisker":  {-0.4125, 0.1, -0.4},
			"right_whisker": {0.4125, 0.1, -0.4},
			"left_control":  {-0.15, 0.3, 0.4},
			"right_control": {0.15, 0.3, 0.4},
		},
		Panels: [][3]string{
			{"nose", "left_tip", "spine_base"},
			{"left_tip", "left_whisker", "spine_base"},
			{"nose", "spine_base", "right_tip"},
			{"right_tip", "spine_base", "right_whisker"},
		},
		LeftControl:  "left_control",
		RightControl: "right_control",
	}
}

func DefaultConfig() *Config {
	return &Config{
		Kite: KiteConfig{
			Mass:            DefaultMass,
			Inertia:         DefaultInertia,
			InitialPosition: mgl64.Vec3{0, 9, -12.5},
			Geometry:        DefaultGeometry(),
		},
		Lines: LinesConfig{
			Length:     DefaultLineLength,
			Stiffness:  DefaultStiffness,
			MaxTension: DefaultMaxTension,
		},
		Bar: BarConfig{
			Position:    mgl64.Vec3{0, 1.2, 0},
			Width:       DefaultBarWidth,
			MaxRotation: DefaultBarMaxRotation,
			Response:    DefaultBarResponse,
		},
		Wind: WindConfig{
			Speed:           DefaultWindSpeed,
			Turbulence:      DefaultWindTurbulence,
			GustFrequency:   DefaultGustFrequency,
			MaxApparentWind: DefaultMaxApparentWind,
		},
		Aero: AeroConfig{
			AirDensity:            DefaultAirDensity,
			LiftScale:             1.0,
			DragScale:             1.0,
			ExtradosBoost:         DefaultExtradosBoost,
			CenterOfPressureShift: DefaultCenterOfPressureShift,
			MinIncidence:          DefaultMinIncidence,
		},
		Solver: SolverConfig{
			Passes:             DefaultSolverPasses,
			Damping:            DefaultSolverDamping,
			Tolerance:          DefaultSolverTolerance,
			VelocityCorrection: true,
		},
		Integration: IntegrationConfig{
			Gravity:        DefaultGravity,
			MaxDeltaTime:   DefaultMaxDeltaTime,
			ForceSmoothing: DefaultForceSmoothing,
			LinearDamping:  DefaultLinearDamping,
			AngularDamping: DefaultAngularDamping,
			MinHeight:      DefaultMinHeight,
			GroundFriction: DefaultGroundFriction,
		},
		Safety: SafetyConfig{
			MaxForce:               DefaultMaxForce,
			MaxVelocity:            DefaultMaxVelocity,
			MaxAngularVelocity:     DefaultMaxAngularVelocity,
			MaxAcceleration:        DefaultMaxAcceleration,
			MaxAngularAcceleration: DefaultMaxAngularAcceleration,
			Epsilon:                DefaultEpsilon,
		},
		Run: RunConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
		},
	}
}

// Clone returns a deep copy; the geometry map and slices are not shared.
func (c *Config) Clone() *Config {
	out := *c
	g := c.Kite.Geometry
	out.Kite.Geometry.Points = make(map[string]mgl64.Vec3, len(g.Points))
	for k, v := range g.Points {
		out.Kite.Geometry.Points[k] = v
	}
	out.Kite.Geometry.Panels = append([][3]string(nil), g.Panels...)
	out.Kite.Geometry.GroundPoints = append([]string(nil), g.GroundPoints...)
	return &out
}

func Load(path string) (*Config, error) {
	return LoadOnto(path, DefaultConfig())
}

// LoadOnto overlays the YAML file at path onto a copy of base. Fields the
// file omits keep base's values; base itself is not modified.
func LoadOnto(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := base.Clone()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Write encodes cfg as YAML to w.
func Write(w io.Writer, cfg *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}

// Validate checks that every physical parameter is in range. Geometry is
// checked when panels are built.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		ok   bool
	}{
		{"kite.mass", c.Kite.Mass > 0},
		{"kite.inertia", c.Kite.Inertia > 0},
		{"lines.length", c.Lines.Length > 0},
		{"lines.stiffness", c.Lines.Stiffness >= 0},
		{"lines.max_tension", c.Lines.MaxTension > 0},
		{"bar.width", c.Bar.Width >= 0},
		{"bar.max_rotation", c.Bar.MaxRotation >= 0},
		{"bar.response", c.Bar.Response >= 0},
		{"wind.speed", c.Wind.Speed >= 0},
		{"wind.turbulence_pct", c.Wind.Turbulence >= 0 && c.Wind.Turbulence <= 100},
		{"wind.max_apparent_wind", c.Wind.MaxApparentWind > 0},
		{"aero.air_density", c.Aero.AirDensity > 0},
		{"aero.lift_scale", c.Aero.LiftScale >= 0},
		{"aero.drag_scale", c.Aero.DragScale >= 0},
		{"aero.min_incidence", c.Aero.MinIncidence >= 0 && c.Aero.MinIncidence < 1},
		{"solver.passes", c.Solver.Passes >= 1},
		{"solver.damping", c.Solver.Damping > 0 && c.Solver.Damping <= 1},
		{"solver.tolerance", c.Solver.Tolerance >= 0},
		{"integration.max_delta_time", c.Integration.MaxDeltaTime > 0},
		{"integration.force_smoothing", c.Integration.ForceSmoothing > 0 && c.Integration.ForceSmoothing <= 1},
		{"integration.linear_damping", c.Integration.LinearDamping >= 0},
		{"integration.angular_damping", c.Integration.AngularDamping >= 0},
		{"integration.ground_friction", c.Integration.GroundFriction >= 0 && c.Integration.GroundFriction <= 1},
		{"safety.max_force", c.Safety.MaxForce > 0},
		{"safety.max_velocity", c.Safety.MaxVelocity > 0},
		{"safety.max_angular_velocity", c.Safety.MaxAngularVelocity > 0},
		{"safety.max_acceleration", c.Safety.MaxAcceleration > 0},
		{"safety.max_angular_acceleration", c.Safety.MaxAngularAcceleration > 0},
		{"safety.epsilon", c.Safety.Epsilon > 0},
		{"run.dt", c.Run.Dt > 0},
		{"run.duration", c.Run.Duration > 0},
	}
	for _, chk := range checks {
		if !chk.ok {
			return fmt.Errorf("%s: %w", chk.name, dynamo.ErrParameterBounds)
		}
	}
	return nil
}
