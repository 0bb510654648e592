package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/sim"
)

const scenarioDoc = `
name: gust front
description: wind picks up, then the pilot lets out line
events:
  - at: 1.0
    line_length: 18
  - at: 0.5
    wind_speed: 12
    turbulence: 30
`

func writeScenario(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenarioSortsEvents(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioDoc))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Name != "gust front" || len(sc.Events) != 2 {
		t.Fatalf("scenario = %+v", sc)
	}
	if sc.Events[0].At != 0.5 || sc.Events[1].At != 1.0 {
		t.Errorf("events not sorted: %v, %v", sc.Events[0].At, sc.Events[1].At)
	}
	if sc.Events[0].WindDirection != nil {
		t.Error("unset field should stay nil")
	}
}

func TestLoadScenarioRejectsBadEvents(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"negative time", "events:\n  - at: -1\n"},
		{"zero line", "events:\n  - at: 1\n    line_length: 0\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.doc))
			if !errors.Is(err, dynamo.ErrParameterBounds) {
				t.Errorf("err = %v, want ErrParameterBounds", err)
			}
		})
	}
}

func TestDirectorAppliesEvents(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioDoc))
	if err != nil {
		t.Fatal(err)
	}
	stepper, err := sim.NewStepper(config.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	startDir := stepper.Wind().Direction()
	startLen := stepper.LineLength()

	d := NewDirector(stepper, sc)
	runner := sim.NewRunner(stepper, control.NewNone())
	runner.AddObserver(d)

	if _, err := runner.Run(context.Background(), config.RunConfig{Dt: 0.01, Duration: 0.75}); err != nil {
		t.Fatal(err)
	}
	if d.Fired() != 1 {
		t.Errorf("fired = %d, want 1", d.Fired())
	}
	if got := stepper.Wind().Speed(); got != 12 {
		t.Errorf("speed = %v, want 12", got)
	}
	if got := stepper.Wind().Direction(); got != startDir {
		t.Errorf("direction changed to %v", got)
	}
	if stepper.LineLength() != startLen {
		t.Error("line length changed before its event")
	}

	if _, err := runner.Run(context.Background(), config.RunConfig{Dt: 0.01, Duration: 1.5}); err != nil {
		t.Fatal(err)
	}
	if d.Fired() != 2 {
		t.Errorf("fired after rerun = %d, want 2", d.Fired())
	}
	if got := stepper.LineLength(); got != 18 {
		t.Errorf("line length = %v, want 18", got)
	}

	d.Reset()
	if stepper.Wind().Speed() != config.DefaultWindSpeed || stepper.LineLength() != startLen {
		t.Error("reset did not restore starting conditions")
	}
}

func TestMonteCarloConfigs(t *testing.T) {
	base := config.DefaultConfig()
	mc := MonteCarlo{Trials: 20, Seed: 7, SpeedJitter: 2, DirectionJitter: 10, TurbulenceJitter: 200}

	a, b := mc.Configs(base), mc.Configs(base)
	if len(a) != 20 {
		t.Fatalf("configs = %d, want 20", len(a))
	}
	for i := range a {
		if a[i].Wind != b[i].Wind {
			t.Fatalf("trial %d not reproducible", i)
		}
		if a[i].Wind.Speed < 0 || a[i].Wind.Turbulence < 0 || a[i].Wind.Turbulence > 100 {
			t.Errorf("trial %d wind out of range: %+v", i, a[i].Wind)
		}
		if err := a[i].Validate(); err != nil {
			t.Errorf("trial %d invalid: %v", i, err)
		}
	}
	if base.Wind.Speed != config.DefaultWindSpeed {
		t.Error("base config mutated")
	}
}

func TestSummarize(t *testing.T) {
	frame := func(tm, alt float64) dynamo.Frame {
		f := dynamo.Frame{Time: tm}
		f.Body.Position[1] = alt
		return f
	}
	configs := []*config.Config{config.DefaultConfig(), config.DefaultConfig()}
	results := []*sim.Result{
		{Frames: []dynamo.Frame{frame(0, 0), frame(1, 6), frame(2, 8)}},
		{Frames: []dynamo.Frame{frame(0, 9), frame(1, 4), frame(2, 0.2)}, WarningTicks: 3},
	}

	trials := Summarize(configs, results, 1)
	if len(trials) != 2 {
		t.Fatalf("trials = %d, want 2", len(trials))
	}
	if !trials[0].Airborne || trials[0].MinAltitude != 6 {
		t.Errorf("trial 0 = %+v, want airborne at min 6", trials[0])
	}
	if trials[1].Airborne || trials[1].WarningTicks != 3 {
		t.Errorf("trial 1 = %+v, want grounded", trials[1])
	}
	if up, down := Stats(trials); up != 1 || down != 1 {
		t.Errorf("stats = %d/%d, want 1/1", up, down)
	}
}
