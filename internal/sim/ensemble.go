package sim

import (
	"context"
	"sync"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
	"go.uber.org/zap"
)

// Ensemble runs independent simulations, one goroutine per configuration.
// Each member gets its own Stepper, pilot and metrics.
type Ensemble struct {
	configs []*config.Config
	pilot   func() dynamo.Pilot
	metrics func() []dynamo.Metric
	logger  *zap.Logger
}

func NewEnsemble(configs []*config.Config, pilot func() dynamo.Pilot, metrics func() []dynamo.Metric) *Ensemble {
	return &Ensemble{configs: configs, pilot: pilot, metrics: metrics, logger: zap.NewNop()}
}

// WithLogger sets the parent logger for every member. nil keeps the
// current one.
func (e *Ensemble) WithLogger(l *zap.Logger) *Ensemble {
	if l != nil {
		e.logger = l
	}
	return e
}

// Run returns one result per configuration, in order. The first error
// encountered is returned after every member has finished.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(e.configs))
	errs := make([]error, len(e.configs))

	var wg sync.WaitGroup
	for i, cfg := range e.configs {
		wg.Add(1)
		go func(idx int, cfg *config.Config) {
			defer wg.Done()

			stepper, err := NewStepper(cfg, WithLogger(e.logger.With(zap.Int("member", idx))))
			if err != nil {
				errs[idx] = err
				return
			}
			var pilot dynamo.Pilot
			if e.pilot != nil {
				pilot = e.pilot()
			}
			r := NewRunner(stepper, pilot)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					r.AddMetric(m)
				}
			}
			results[idx], errs[idx] = r.Run(ctx, cfg.Run)
		}(i, cfg)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
