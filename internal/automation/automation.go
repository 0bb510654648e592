package automation

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario is a scripted flight: conditions change at fixed times while
// the pilot flies.
type Scenario struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Events      []Event `yaml:"events"`
}

// Event changes the wind or the line length at time At. Nil fields keep
// their current value.
type Event struct {
	At            float64  `yaml:"at"`
	WindSpeed     *float64 `yaml:"wind_speed,omitempty"`
	WindDirection *float64 `yaml:"wind_direction,omitempty"`
	Turbulence    *float64 `yaml:"turbulence,omitempty"`
	LineLength    *float64 `yaml:"line_length,omitempty"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Validate sorts the events by time and rejects negative times.
func (s *Scenario) Validate() error {
	for i, e := range s.Events {
		if !(e.At >= 0) || math.IsInf(e.At, 0) {
			return fmt.Errorf("event %d: at = %v: %w", i, e.At, dynamo.ErrParameterBounds)
		}
		if e.LineLength != nil && !(*e.LineLength > 0) {
			return fmt.Errorf("event %d: line_length = %v: %w", i, *e.LineLength, dynamo.ErrParameterBounds)
		}
	}
	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].At < s.Events[j].At })
	return nil
}

// Director plays a scenario against a stepper. Attach it to a runner as
// an observer; each event fires at the end of the first tick at or after
// its time.
type Director struct {
	stepper  *sim.Stepper
	scenario *Scenario
	next     int

	speed, direction, turbulence, length float64
}

// NewDirector records the stepper's current wind and line length so Reset
// can restore them.
func NewDirector(stepper *sim.Stepper, scenario *Scenario) *Director {
	w := stepper.Wind()
	return &Director{
		stepper:    stepper,
		scenario:   scenario,
		speed:      w.Speed(),
		direction:  w.Direction(),
		turbulence: w.Turbulence(),
		length:     stepper.LineLength(),
	}
}

func (d *Director) OnStep(f dynamo.Frame) {
	for d.next < len(d.scenario.Events) && d.scenario.Events[d.next].At <= f.Time {
		d.apply(d.scenario.Events[d.next])
		d.next++
	}
}

func (d *Director) apply(e Event) {
	w := d.stepper.Wind()
	speed, dir, turb := w.Speed(), w.Direction(), w.Turbulence()
	if e.WindSpeed != nil {
		speed = *e.WindSpeed
	}
	if e.WindDirection != nil {
		dir = *e.WindDirection
	}
	if e.Turbulence != nil {
		turb = *e.Turbulence
	}
	d.stepper.SetWindParameters(speed, dir, turb)
	if e.LineLength != nil {
		d.stepper.SetLineLength(*e.LineLength)
	}
}

// Fired reports how many events have been applied.
func (d *Director) Fired() int { return d.next }

// Reset rewinds the script and restores the starting conditions.
func (d *Director) Reset() {
	d.next = 0
	d.stepper.SetWindParameters(d.speed, d.direction, d.turbulence)
	d.stepper.SetLineLength(d.length)
}

// MonteCarlo perturbs the wind of a base configuration. Jitters are
// standard deviations.
type MonteCarlo struct {
	Trials           int     `yaml:"trials"`
	Seed             int64   `yaml:"seed"`
	SpeedJitter      float64 `yaml:"speed_jitter"`
	DirectionJitter  float64 `yaml:"direction_jitter"`
	TurbulenceJitter float64 `yaml:"turbulence_jitter"`
}

// Configs returns one perturbed copy of base per trial. The same seed gives
// the same set.
func (mc MonteCarlo) Configs(base *config.Config) []*config.Config {
	rng := rand.New(rand.NewSource(mc.Seed))
	out := make([]*config.Config, 0, mc.Trials)
	for i := 0; i < mc.Trials; i++ {
		cfg := base.Clone()
		cfg.Wind.Speed = math.Max(0, cfg.Wind.Speed+rng.NormFloat64()*mc.SpeedJitter)
		cfg.Wind.Direction += rng.NormFloat64() * mc.DirectionJitter
		cfg.Wind.Turbulence = clamp(cfg.Wind.Turbulence+rng.NormFloat64()*mc.TurbulenceJitter, 0, 100)
		out = append(out, cfg)
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

// TrialSummary is the outcome of one Monte Carlo member.
type TrialSummary struct {
	Trial        int
	WindSpeed    float64
	Direction    float64
	Turbulence   float64
	Airborne     bool
	MinAltitude  float64
	WarningTicks int
}

// Summarize marks a trial airborne when the kite stayed above minAltitude
// after the first second of flight.
func Summarize(configs []*config.Config, results []*sim.Result, minAltitude float64) []TrialSummary {
	out := make([]TrialSummary, 0, len(results))
	for i, r := range results {
		if r == nil {
			continue
		}
		s := TrialSummary{
			Trial:        i,
			WindSpeed:    configs[i].Wind.Speed,
			Direction:    configs[i].Wind.Direction,
			Turbulence:   configs[i].Wind.Turbulence,
			MinAltitude:  math.Inf(1),
			WarningTicks: r.WarningTicks,
		}
		for _, f := range r.Frames {
			if f.Time < 1 {
				continue
			}
			s.MinAltitude = math.Min(s.MinAltitude, f.Altitude())
		}
		if math.IsInf(s.MinAltitude, 1) {
			s.MinAltitude = 0
		}
		s.Airborne = s.MinAltitude > minAltitude
		out = append(out, s)
	}
	return out
}

// Stats counts airborne and grounded trials.
func Stats(trials []TrialSummary) (airborne, grounded int) {
	for _, t := range trials {
		if t.Airborne {
			airborne++
		} else {
			grounded++
		}
	}
	return
}
