package metrics

import (
	"math"

	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// AzimuthError is the RMS distance in degrees between the kite's azimuth
// and a target bearing.
type AzimuthError struct {
	name    string
	target  float64
	sumSq   float64
	samples int
}

func NewAzimuthError(target float64) *AzimuthError {
	return &AzimuthError{name: "azimuth_error", target: target}
}

func (a *AzimuthError) Name() string { return a.name }

func (a *AzimuthError) Observe(f dynamo.Frame) {
	d := control.Azimuth(f) - a.target
	a.sumSq += d * d
	a.samples++
}

func (a *AzimuthError) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return math.Sqrt(a.sumSq / float64(a.samples))
}

func (a *AzimuthError) Reset() {
	a.sumSq = 0
	a.samples = 0
}
