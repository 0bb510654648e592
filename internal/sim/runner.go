package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/dynamo"
	"go.uber.org/zap"
)

// Runner drives a Stepper at a fixed dt, asking a pilot for the bar target
// before every tick.
type Runner struct {
	stepper   *Stepper
	pilot     dynamo.Pilot
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	logger    *zap.Logger
}

func NewRunner(stepper *Stepper, pilot dynamo.Pilot) *Runner {
	if pilot == nil {
		pilot = control.NewNone()
	}
	return &Runner{
		stepper: stepper,
		pilot:   pilot,
		logger:  stepper.logger,
	}
}

func (r *Runner) AddMetric(m dynamo.Metric)     { r.metrics = append(r.metrics, m) }
func (r *Runner) AddObserver(o dynamo.Observer) { r.observers = append(r.observers, o) }

type Result struct {
	Frames       []dynamo.Frame
	Metrics      map[string]float64
	StepsTaken   int
	WarningTicks int
}

// Series extracts one value per recorded frame.
func (r *Result) Series(fn func(dynamo.Frame) float64) []float64 {
	out := make([]float64, len(r.Frames))
	for i, f := range r.Frames {
		out[i] = fn(f)
	}
	return out
}

// Run resets the stepper and simulates cfg.Duration seconds. On
// cancellation the partial result is returned with a *SimulationError
// wrapping ErrSimulationCanceled.
func (r *Runner) Run(ctx context.Context, cfg config.RunConfig) (*Result, error) {
	if err := validateRun(cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Frames:  make([]dynamo.Frame, 0, steps+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range r.metrics {
		m.Reset()
	}
	if p, ok := r.pilot.(interface{ Reset() }); ok {
		p.Reset()
	}
	for _, obs := range r.observers {
		if o, ok := obs.(interface{ Reset() }); ok {
			o.Reset()
		}
	}

	r.stepper.Reset()
	frame := r.stepper.Frame()
	result.Frames = append(result.Frames, frame)

	r.logger.Info("run started",
		zap.Float64("dt", cfg.Dt),
		zap.Float64("duration", cfg.Duration),
		zap.Int("steps", steps))

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			r.collect(result)
			return result, &SimulationError{
				Step:    i,
				Time:    frame.Time,
				Wrapped: fmt.Errorf("%w: %w", dynamo.ErrSimulationCanceled, ctx.Err()),
			}
		default:
		}

		target := r.pilot.Steer(frame)
		r.stepper.Step(cfg.Dt, target)
		frame = r.stepper.Frame()

		for _, m := range r.metrics {
			m.Observe(frame)
		}
		for _, obs := range r.observers {
			obs.OnStep(frame)
		}
		if frame.Warnings.Any() {
			result.WarningTicks++
		}
		result.StepsTaken++
		result.Frames = append(result.Frames, frame)
	}

	r.collect(result)
	r.logger.Info("run finished",
		zap.Int("steps", result.StepsTaken),
		zap.Int("warning_ticks", result.WarningTicks),
		zap.Float64("altitude", frame.Altitude()))
	return result, nil
}

func (r *Runner) collect(result *Result) {
	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}

func validateRun(cfg config.RunConfig) error {
	if !(cfg.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f: %w", cfg.Dt, dynamo.ErrParameterBounds)
	}
	if !(cfg.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f: %w", cfg.Duration, dynamo.ErrParameterBounds)
	}
	return nil
}
