package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/metrics"
	"github.com/san-kum/kitesim/internal/sim"
)

// fixedBar flies a manual pilot holding params["bar"]; control effort is
// then smallest for the smallest |bar|.
func fixedBar(params map[string]float64) (*sim.Runner, error) {
	cfg := config.DefaultConfig()
	cfg.Wind.Speed = params["wind"]
	stepper, err := sim.NewStepper(cfg)
	if err != nil {
		return nil, err
	}
	pilot := control.NewManual(cfg.Bar.MaxRotation)
	pilot.Set(params["bar"])
	r := sim.NewRunner(stepper, pilot)
	r.AddMetric(metrics.NewControlEffort())
	return r, nil
}

var shortRun = config.RunConfig{Dt: 0.01, Duration: 0.2}

func TestGridSearchFindsMinimum(t *testing.T) {
	g := NewGridSearch([]string{"bar", "wind"}, [][]float64{{0.5, -0.1, 0.3}, {6, 10}})
	best, trials, err := g.Search(context.Background(), fixedBar, shortRun, "control_effort")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(trials) != 6 {
		t.Errorf("trials = %d, want 6", len(trials))
	}
	if best.Params["bar"] != -0.1 {
		t.Errorf("best bar = %v, want -0.1", best.Params["bar"])
	}
	for _, tr := range trials {
		if tr.Value < best.Value {
			t.Errorf("trial %v beats best %v", tr, best)
		}
	}
}

func TestGridSearchErrors(t *testing.T) {
	g := NewGridSearch([]string{"bar"}, nil)
	if _, _, err := g.Search(context.Background(), fixedBar, shortRun, "control_effort"); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("mismatched grid err = %v", err)
	}

	g = NewGridSearch([]string{"bar"}, [][]float64{{0}})
	if _, _, err := g.Search(context.Background(), fixedBar, shortRun, "missing"); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("missing metric err = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, trials, err := g.Search(ctx, fixedBar, shortRun, "control_effort"); !errors.Is(err, context.Canceled) || len(trials) != 0 {
		t.Errorf("canceled search err = %v trials = %d", err, len(trials))
	}
}

func TestRange(t *testing.T) {
	got := Range(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Range[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if r := Range(3, 9, 1); len(r) != 1 || r[0] != 3 {
		t.Errorf("Range n=1 = %v", r)
	}
}
