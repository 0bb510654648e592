package sim

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/control"
	"github.com/san-kum/kitesim/internal/dynamo"
	"github.com/san-kum/kitesim/internal/integrators"
	"github.com/san-kum/kitesim/internal/physics"
	"go.uber.org/zap"
)

// Stepper advances the kite one tick at a time. It is not safe for
// concurrent use; callers read state between ticks through value copies.
type Stepper struct {
	cfg    *config.Config
	logger *zap.Logger

	geom   *physics.Geometry
	wind   *physics.WindField
	aero   *physics.AeroModel
	solver *physics.LineSolver
	line   physics.Line
	bar    *control.Bar
	integ  *integrators.SemiImplicitEuler

	body      dynamo.RigidBody
	lastValid dynamo.RigidBody

	force    mgl64.Vec3
	torque   mgl64.Vec3
	primed   bool
	apparent mgl64.Vec3
	forces   physics.Forces
	tensions dynamo.LineTensions
	warnings dynamo.Warnings

	time  float64
	steps int
}

type Option func(*Stepper)

// WithLogger routes safety warnings to l. The default logger discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Stepper) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewStepper(cfg *config.Config, opts ...Option) (*Stepper, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg = cfg.Clone()

	geom, err := physics.NewGeometry(cfg.Kite.Geometry)
	if err != nil {
		return nil, fmt.Errorf("kite geometry: %w", err)
	}

	s := &Stepper{
		cfg:    cfg,
		logger: zap.NewNop(),
		geom:   geom,
		wind:   physics.NewWindField(cfg.Wind),
		aero:   physics.NewAeroModel(cfg.Aero, cfg.Safety.Epsilon),
		solver: physics.NewLineSolver(cfg.Solver, cfg.Kite.Mass, cfg.Kite.Inertia,
			geom.LeftControl, geom.RightControl, cfg.Safety.Epsilon),
		line:  physics.NewLine(cfg.Lines),
		bar:   control.NewBar(cfg.Bar),
		integ: integrators.NewSemiImplicitEuler(cfg.Kite, cfg.Integration, cfg.Safety),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Reset()
	return s, nil
}

func (s *Stepper) initialBody() dynamo.RigidBody {
	pitch := mgl64.DegToRad(s.cfg.Kite.InitialPitch)
	q := mgl64.QuatRotate(pitch, mgl64.Vec3{1, 0, 0})
	return dynamo.NewRigidBody(s.cfg.Kite.InitialPosition, q)
}

// Reset returns the kite to its initial pose at rest, levels the bar and
// rewinds the wind clock. Wind parameters and line length set at runtime
// are kept.
func (s *Stepper) Reset() {
	s.body = s.initialBody()
	s.lastValid = s.body
	s.bar.Reset()
	s.wind.Reset()
	s.force, s.torque = mgl64.Vec3{}, mgl64.Vec3{}
	s.primed = false
	s.apparent = mgl64.Vec3{}
	s.forces = physics.Forces{}
	s.warnings = dynamo.Warnings{}
	s.time, s.steps = 0, 0

	left, right := s.bar.Handles()
	s.tensions = physics.Tensions(s.solver.LineForces(s.body, left, right, s.line))
}

// Step advances the simulation by dt seconds with the bar easing toward
// target radians. Non-positive dt is a no-op; dt above MaxDeltaTime is
// clamped.
func (s *Stepper) Step(dt, target float64) {
	if !(dt > 0) {
		return
	}
	dt = math.Min(dt, s.cfg.Integration.MaxDeltaTime)
	var w dynamo.Warnings

	s.bar.Update(target, dt)
	leftHandle, rightHandle := s.bar.Handles()

	s.apparent = s.wind.ApparentWind(s.body.Velocity, dt)
	s.forces = s.aero.ComputeForces(s.apparent, s.body.Orientation, s.geom.Panels, s.body.Position)
	left, right := s.solver.LineForces(s.body, leftHandle, rightHandle, s.line)
	s.tensions = physics.Tensions(left, right)

	gravity := mgl64.Vec3{0, -s.cfg.Kite.Mass * s.cfg.Integration.Gravity, 0}
	force := s.forces.Net.Add(gravity).Add(left.Force).Add(right.Force)
	torque := s.forces.Torque.Add(left.Torque).Add(right.Torque)
	s.filter(force, torque)

	if !dynamo.VecFinite(s.force) || s.force.Len() > s.cfg.Safety.MaxForce {
		s.force = mgl64.Vec3{}
		w.InvalidForce = true
	}
	if !dynamo.VecFinite(s.torque) || s.torque.Len() > s.cfg.Safety.MaxForce {
		s.torque = mgl64.Vec3{}
		w.InvalidTorque = true
	}

	lin := s.integ.IntegrateLinear(&s.body, s.force, dt)
	w.ExcessiveAcceleration = lin.AccelerationClamped
	w.ExcessiveVelocity = lin.VelocityClamped
	w.LastAccelerationMagnitude = lin.Acceleration
	w.LastVelocityMagnitude = lin.Velocity

	s.solver.Solve(&s.body, leftHandle, rightHandle, s.line.MaxLength)
	integrators.ResolveGround(&s.body, s.geom.GroundPoints,
		s.cfg.Integration.MinHeight, s.cfg.Integration.GroundFriction)
	// the velocity projection can add speed along a line
	var clamped bool
	s.body.Velocity, clamped = dynamo.ClampMagnitude(s.body.Velocity, s.cfg.Safety.MaxVelocity)
	w.ExcessiveVelocity = w.ExcessiveVelocity || clamped
	w.ExcessiveAngularVelocity = s.integ.IntegrateAngular(&s.body, s.torque, dt)

	if s.body.IsValid() {
		s.lastValid = s.body
	} else {
		s.body = dynamo.RigidBody{Position: s.lastValid.Position, Orientation: s.lastValid.Orientation}
		w.InvalidState = true
	}
	s.sanitizeTensions()

	s.time += dt
	s.steps++
	s.logWarnings(w)
	s.warnings = w
}

// filter low-passes the applied load. The first tick after a reset takes
// the raw value so the body does not start from a zero load.
func (s *Stepper) filter(force, torque mgl64.Vec3) {
	if !s.primed {
		s.force, s.torque = force, torque
		s.primed = true
		return
	}
	alpha := s.cfg.Integration.ForceSmoothing
	s.force = s.force.Add(force.Sub(s.force).Mul(alpha))
	s.torque = s.torque.Add(torque.Sub(s.torque).Mul(alpha))
}

func (s *Stepper) sanitizeTensions() {
	for _, v := range []*float64{
		&s.tensions.LeftTension, &s.tensions.RightTension,
		&s.tensions.LeftDistance, &s.tensions.RightDistance,
	} {
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			*v = 0
		}
	}
}

// logWarnings reports flags that were clear on the previous tick.
func (s *Stepper) logWarnings(w dynamo.Warnings) {
	prev := s.warnings
	fields := []zap.Field{
		zap.Int("step", s.steps),
		zap.Float64("time", s.time),
	}
	switch {
	case w.InvalidState && !prev.InvalidState:
		s.logger.Warn("invalid state, rolled back to last valid pose", fields...)
	case w.InvalidForce && !prev.InvalidForce:
		s.logger.Warn("force outside envelope, zeroed", fields...)
	case w.InvalidTorque && !prev.InvalidTorque:
		s.logger.Warn("torque outside envelope, zeroed", fields...)
	}
	if w.ExcessiveAcceleration && !prev.ExcessiveAcceleration {
		s.logger.Warn("acceleration clamped",
			append(fields, zap.Float64("magnitude", w.LastAccelerationMagnitude))...)
	}
	if w.ExcessiveVelocity && !prev.ExcessiveVelocity {
		s.logger.Warn("velocity clamped",
			append(fields, zap.Float64("magnitude", w.LastVelocityMagnitude))...)
	}
	if w.ExcessiveAngularVelocity && !prev.ExcessiveAngularVelocity {
		s.logger.Warn("angular velocity clamped", fields...)
	}
}

// SetWindParameters changes the wind from the next tick on. Non-finite
// values are ignored.
func (s *Stepper) SetWindParameters(speed, directionDeg, turbulencePct float64) {
	for _, v := range []float64{speed, directionDeg, turbulencePct} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return
		}
	}
	s.wind.SetParameters(speed, directionDeg, turbulencePct)
}

// SetLineLength changes the rest length of both lines. Non-positive or
// non-finite lengths are ignored.
func (s *Stepper) SetLineLength(m float64) {
	if !(m > 0) || math.IsInf(m, 0) {
		return
	}
	s.line.MaxLength = m
}

func (s *Stepper) LineLength() float64 { return s.line.MaxLength }

func (s *Stepper) LineTensions() dynamo.LineTensions { return s.tensions }

func (s *Stepper) Warnings() dynamo.Warnings { return s.warnings }

func (s *Stepper) RigidBodyState() dynamo.RigidBody { return s.body }

func (s *Stepper) Forces() physics.Forces { return s.forces }

func (s *Stepper) BarRotation() float64 { return s.bar.Rotation() }

func (s *Stepper) Handles() (left, right mgl64.Vec3) { return s.bar.Handles() }

func (s *Stepper) Wind() *physics.WindField { return s.wind }

func (s *Stepper) Geometry() *physics.Geometry { return s.geom }

func (s *Stepper) Config() *config.Config { return s.cfg.Clone() }

func (s *Stepper) Time() float64 { return s.time }

func (s *Stepper) Steps() int { return s.steps }

// Frame returns the telemetry snapshot of the last tick.
func (s *Stepper) Frame() dynamo.Frame {
	return dynamo.Frame{
		Time:        s.time,
		Body:        s.body,
		Wind:        s.wind.InstantaneousWind(s.body.Position),
		Apparent:    s.apparent,
		AeroForce:   s.forces.Net,
		Tensions:    s.tensions,
		Warnings:    s.warnings,
		BarRotation: s.bar.Rotation(),
	}
}
