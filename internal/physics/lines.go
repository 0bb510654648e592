package physics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// StiffeningZoneStart is the fraction of rest length at which a line
// starts to carry load.
const StiffeningZoneStart = 0.95

// Line is the elastic model of one flying line.
type Line struct {
	MaxLength  float64
	Stiffness  float64
	MaxTension float64
}

func NewLine(cfg config.LinesConfig) Line {
	return Line{MaxLength: cfg.Length, Stiffness: cfg.Stiffness, MaxTension: cfg.MaxTension}
}

// RestTension is the load at exactly MaxLength, where the smooth zone hands
// over to the linear spring.
func (l Line) RestTension() float64 {
	return 0.5 * l.Stiffness * (1 - StiffeningZoneStart) * l.MaxLength
}

// Tension returns the line load at distance d between handle and control
// point: slack below the stiffening zone, a smoothstep ramp inside it and
// a linear spring past rest length, capped at MaxTension.
func (l Line) Tension(d float64) float64 {
	start := StiffeningZoneStart * l.MaxLength
	var t float64
	switch {
	case d < start:
		return 0
	case d <= l.MaxLength:
		zone := l.MaxLength - start
		if zone <= 0 {
			return 0
		}
		t = l.RestTension() * dynamo.Smoothstep((d-start)/zone)
	default:
		t = l.RestTension() + l.Stiffness*(d-l.MaxLength)
	}
	if t > l.MaxTension {
		t = l.MaxTension
	}
	return t
}

// LineState is the measured state of one line and its pull on the kite.
type LineState struct {
	Tension  float64
	Distance float64
	Taut     bool
	Attach   mgl64.Vec3
	Force    mgl64.Vec3
	Torque   mgl64.Vec3
}

// LineSolver measures line loads and projects the kite back inside the
// two-line length constraint.
type LineSolver struct {
	cfg          config.SolverConfig
	invMass      float64
	invInertia   float64
	eps          float64
	leftControl  mgl64.Vec3
	rightControl mgl64.Vec3
}

func NewLineSolver(cfg config.SolverConfig, mass, inertia float64, leftControl, rightControl mgl64.Vec3, eps float64) *LineSolver {
	s := &LineSolver{cfg: cfg, eps: eps, leftControl: leftControl, rightControl: rightControl}
	if mass > 0 {
		s.invMass = 1 / mass
	}
	if inertia > 0 {
		s.invInertia = 1 / inertia
	}
	return s
}

// LineForces measures both lines against the current pose.
func (s *LineSolver) LineForces(body dynamo.RigidBody, leftHandle, rightHandle mgl64.Vec3, line Line) (left, right LineState) {
	return s.measure(body, s.leftControl, leftHandle, line), s.measure(body, s.rightControl, rightHandle, line)
}

func (s *LineSolver) measure(body dynamo.RigidBody, ctrl, handle mgl64.Vec3, line Line) LineState {
	attach := body.ToWorld(ctrl)
	d := attach.Sub(handle)
	st := LineState{Distance: d.Len(), Attach: attach}
	st.Tension = line.Tension(st.Distance)
	st.Taut = st.Tension > 0

	n, ok := dynamo.SafeNormalize(d, s.eps)
	if !ok || !st.Taut {
		return st
	}
	st.Force = n.Mul(-st.Tension)
	st.Torque = attach.Sub(body.Position).Cross(st.Force)
	return st
}

// Solve runs the configured number of passes, each correcting the left
// then the right line once.
func (s *LineSolver) Solve(body *dynamo.RigidBody, leftHandle, rightHandle mgl64.Vec3, length float64) {
	for pass := 0; pass < s.cfg.Passes; pass++ {
		s.project(body, s.leftControl, leftHandle, length)
		s.project(body, s.rightControl, rightHandle, length)
	}
}

func (s *LineSolver) project(body *dynamo.RigidBody, ctrl, handle mgl64.Vec3, length float64) {
	attach := body.ToWorld(ctrl)
	d := attach.Sub(handle)
	dist := d.Len()
	if dist <= length+s.cfg.Tolerance {
		return
	}
	n, ok := dynamo.SafeNormalize(d, s.eps)
	if !ok {
		return
	}

	r := attach.Sub(body.Position)
	rn := r.Cross(n)
	w := s.invMass + rn.LenSqr()*s.invInertia
	if w < s.eps {
		return
	}

	lambda := s.cfg.Damping * (dist - length) / w
	body.Position = body.Position.Sub(n.Mul(s.invMass * lambda))
	rot := dynamo.AxisAngle(rn.Mul(-s.invInertia*lambda), s.eps)
	body.Orientation = rot.Mul(body.Orientation).Normalize()

	if !s.cfg.VelocityCorrection {
		return
	}
	if vn := body.PointVelocity(r).Dot(n); vn > 0 {
		j := -vn / w
		body.Velocity = body.Velocity.Add(n.Mul(s.invMass * j))
		body.AngularVelocity = body.AngularVelocity.Add(rn.Mul(s.invInertia * j))
	}
}

// Tensions packs two measured lines into the telemetry record.
func Tensions(left, right LineState) dynamo.LineTensions {
	return dynamo.LineTensions{
		LeftTension:   left.Tension,
		RightTension:  right.Tension,
		LeftDistance:  left.Distance,
		RightDistance: right.Distance,
		LeftTaut:      left.Taut,
		RightTaut:     right.Taut,
	}
}
