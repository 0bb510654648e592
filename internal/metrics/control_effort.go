package metrics

import (
	"math"

	"github.com/san-kum/kitesim/internal/dynamo"
)

// ControlEffort is the mean absolute bar rotation in radians. Travel
// reports the total distance the bar moved.
type ControlEffort struct {
	name    string
	absSum  float64
	travel  float64
	last    float64
	samples int
}

func NewControlEffort() *ControlEffort { return &ControlEffort{name: "control_effort"} }

func (c *ControlEffort) Name() string { return c.name }

func (c *ControlEffort) Observe(f dynamo.Frame) {
	if c.samples > 0 {
		c.travel += math.Abs(f.BarRotation - c.last)
	}
	c.last = f.BarRotation
	c.absSum += math.Abs(f.BarRotation)
	c.samples++
}

func (c *ControlEffort) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.absSum / float64(c.samples)
}

func (c *ControlEffort) Travel() float64 { return c.travel }

func (c *ControlEffort) Reset() { *c = ControlEffort{name: c.name} }
