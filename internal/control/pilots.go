package control

import (
	"math"

	"github.com/san-kum/kitesim/internal/dynamo"
)

// None holds the bar level.
type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Steer(f dynamo.Frame) float64 {
	return 0
}

// Manual passes through a target set from outside the simulation.
type Manual struct {
	Target float64
	Limit  float64
}

func NewManual(limit float64) *Manual {
	return &Manual{Limit: limit}
}

// Nudge moves the target by delta, within ±Limit when Limit is set.
func (m *Manual) Nudge(delta float64) {
	m.Set(m.Target + delta)
}

func (m *Manual) Set(target float64) {
	if m.Limit > 0 {
		target = math.Max(-m.Limit, math.Min(m.Limit, target))
	}
	m.Target = target
}

func (m *Manual) Steer(f dynamo.Frame) float64 {
	return m.Target
}

// Azimuth is the kite's bearing in degrees around the pilot, measured from
// downwind (-Z), positive toward +X.
func Azimuth(f dynamo.Frame) float64 {
	p := f.Body.Position
	return math.Atan2(p.X(), -p.Z()) * 180 / math.Pi
}

// PID steers the kite toward a target azimuth. A kite right of the target
// gets a positive (left turn) rotation.
type PID struct {
	Kp     float64
	Ki     float64
	Kd     float64
	Target float64
	Limit  float64

	integral float64
	prevErr  float64
	prevT    float64
	first    bool
}

func NewPID(kp, ki, kd, target float64) *PID {
	return &PID{
		Kp:     kp,
		Ki:     ki,
		Kd:     kd,
		Target: target,
		first:  true,
	}
}

func (p *PID) Steer(f dynamo.Frame) float64 {
	err := Azimuth(f) - p.Target

	if p.first {
		p.prevErr = err
		p.prevT = f.Time
		p.first = false
		return p.limit(p.Kp * err)
	}

	dt := f.Time - p.prevT
	if dt <= 0 {
		return p.limit(p.Kp * err)
	}
	p.integral += err * dt
	derivative := (err - p.prevErr) / dt
	p.prevErr = err
	p.prevT = f.Time

	return p.limit(p.Kp*err + p.Ki*p.integral + p.Kd*derivative)
}

func (p *PID) limit(u float64) float64 {
	if p.Limit > 0 {
		return math.Max(-p.Limit, math.Min(p.Limit, u))
	}
	return u
}

// Reset clears integral and derivative state
func (p *PID) Reset() {
	p.integral = 0
	p.prevErr = 0
	p.first = true
}
