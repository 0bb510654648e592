package metrics

import (
	"github.com/san-kum/kitesim/internal/dynamo"
)

type MeanAltitude struct {
	name    string
	sum     float64
	samples int
}

func NewMeanAltitude() *MeanAltitude {
	return &MeanAltitude{name: "mean_altitude"}
}

func (m *MeanAltitude) Name() string { return m.name }

func (m *MeanAltitude) Observe(f dynamo.Frame) {
	m.sum += f.Altitude()
	m.samples++
}

func (m *MeanAltitude) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanAltitude) Reset() {
	m.sum = 0
	m.samples = 0
}

// WarningRate is the share of ticks that raised any safety flag.
type WarningRate struct {
	name       string
	violations int
	samples    int
}

func NewWarningRate() *WarningRate {
	return &WarningRate{name: "warning_rate"}
}

func (w *WarningRate) Name() string { return w.name }

func (w *WarningRate) Observe(f dynamo.Frame) {
	w.samples++
	if f.Warnings.Any() {
		w.violations++
	}
}

func (w *WarningRate) Value() float64 {
	if w.samples == 0 {
		return 0
	}
	return float64(w.violations) / float64(w.samples)
}

func (w *WarningRate) Reset() {
	w.violations = 0
	w.samples = 0
}

// Energy is the mean mechanical energy of the kite: translational kinetic
// plus potential above the ground. Rotation is ignored.
type Energy struct {
	name    string
	mass    float64
	gravity float64
	samples int
	total   float64
}

func NewEnergy(mass, gravity float64) *Energy {
	return &Energy{
		name:    "energy",
		mass:    mass,
		gravity: gravity,
	}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(f dynamo.Frame) {
	v := f.Body.Velocity
	ke := 0.5 * e.mass * v.LenSqr()
	pe := e.mass * e.gravity * f.Altitude()
	e.total += ke + pe
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *Energy) Reset() {
	e.total = 0
	e.samples = 0
}

// Standard returns the metric set reported by the CLI.
func Standard(mass, gravity float64) []dynamo.Metric {
	return []dynamo.Metric{
		NewMaxTension(),
		NewMeanTension(),
		NewMeanAltitude(),
		NewSlackFraction(),
		NewWarningRate(),
		NewControlEffort(),
		NewEnergy(mass, gravity),
	}
}
