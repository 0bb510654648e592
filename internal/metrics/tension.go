package metrics

import (
	"math"

	"github.com/san-kum/kitesim/internal/dynamo"
)

// MaxTension is the peak single-line tension seen.
type MaxTension struct {
	name string
	max  float64
}

func NewMaxTension() *MaxTension {
	return &MaxTension{name: "max_tension"}
}

func (m *MaxTension) Name() string { return m.name }

func (m *MaxTension) Observe(f dynamo.Frame) {
	m.max = math.Max(m.max, math.Max(f.Tensions.LeftTension, f.Tensions.RightTension))
}

func (m *MaxTension) Value() float64 { return m.max }

func (m *MaxTension) Reset() { m.max = 0 }

// MeanTension averages the summed tension of both lines.
type MeanTension struct {
	name    string
	sum     float64
	samples int
}

func NewMeanTension() *MeanTension {
	return &MeanTension{name: "mean_tension"}
}

func (m *MeanTension) Name() string { return m.name }

func (m *MeanTension) Observe(f dynamo.Frame) {
	m.sum += f.Tensions.Total()
	m.samples++
}

func (m *MeanTension) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanTension) Reset() {
	m.sum = 0
	m.samples = 0
}

// SlackFraction is the share of ticks with at least one slack line.
type SlackFraction struct {
	name    string
	slack   int
	samples int
}

func NewSlackFraction() *SlackFraction {
	return &SlackFraction{name: "slack_fraction"}
}

func (s *SlackFraction) Name() string { return s.name }

func (s *SlackFraction) Observe(f dynamo.Frame) {
	s.samples++
	if !f.Tensions.LeftTaut || !f.Tensions.RightTaut {
		s.slack++
	}
}

func (s *SlackFraction) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.slack) / float64(s.samples)
}

func (s *SlackFraction) Reset() {
	s.slack = 0
	s.samples = 0
}
