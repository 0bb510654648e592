package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/sim"
)

// GridSearch tries every combination of parameter values and keeps the one
// with the lowest metric. It is used to tune pilot gains.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Build returns a runner, with the named metric attached, for one grid
// point.
type Build func(params map[string]float64) (*sim.Runner, error)

// Trial is one evaluated grid point.
type Trial struct {
	Params map[string]float64
	Value  float64
}

// Search evaluates the grid in order and returns the best point and every
// trial. Build errors and cancellation stop the search.
func (g *GridSearch) Search(ctx context.Context, build Build, run config.RunConfig, metricName string) (Trial, []Trial, error) {
	if len(g.paramNames) == 0 || len(g.paramNames) != len(g.ranges) {
		return Trial{}, nil, fmt.Errorf("grid has %d names and %d ranges: %w",
			len(g.paramNames), len(g.ranges), dynamo.ErrParameterBounds)
	}

	best := Trial{Value: math.Inf(1)}
	var trials []Trial
	err := g.searchRecursive(ctx, 0, map[string]float64{}, func(params map[string]float64) error {
		runner, err := build(params)
		if err != nil {
			return err
		}
		result, err := runner.Run(ctx, run)
		if err != nil {
			return err
		}
		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("metric %q not attached: %w", metricName, dynamo.ErrParameterBounds)
		}
		trial := Trial{Params: params, Value: val}
		trials = append(trials, trial)
		if val < best.Value {
			best = trial
		}
		return nil
	})
	return best, trials, err
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current map[string]float64, eval func(map[string]float64) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return eval(current)
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, eval); err != nil {
			return err
		}
	}
	return nil
}

// Range returns n evenly spaced values from lo to hi inclusive.
func Range(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
