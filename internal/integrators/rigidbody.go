package integrators

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// SemiImplicitEuler advances a rigid body one tick: velocity first from the
// applied load, then pose from the new velocity. Every rate is clamped to
// the safety envelope.
type SemiImplicitEuler struct {
	mass           float64
	inertia        float64
	linearDamping  float64
	angularDamping float64
	safety         config.SafetyConfig
}

func NewSemiImplicitEuler(kite config.KiteConfig, integ config.IntegrationConfig, safety config.SafetyConfig) *SemiImplicitEuler {
	return &SemiImplicitEuler{
		mass:           kite.Mass,
		inertia:        kite.Inertia,
		linearDamping:  integ.LinearDamping,
		angularDamping: integ.AngularDamping,
		safety:         safety,
	}
}

// LinearStep reports what IntegrateLinear clamped. Magnitudes are taken
// before clamping.
type LinearStep struct {
	Acceleration        float64
	Velocity            float64
	AccelerationClamped bool
	VelocityClamped     bool
}

func (e *SemiImplicitEuler) IntegrateLinear(body *dynamo.RigidBody, force mgl64.Vec3, dt float64) LinearStep {
	var out LinearStep

	a := force.Mul(1 / e.mass)
	out.Acceleration = a.Len()
	a, out.AccelerationClamped = dynamo.ClampMagnitude(a, e.safety.MaxAcceleration)

	v := body.Velocity.Add(a.Mul(dt))
	v = v.Mul(math.Exp(-e.linearDamping * dt))
	out.Velocity = v.Len()
	v, out.VelocityClamped = dynamo.ClampMagnitude(v, e.safety.MaxVelocity)

	body.Velocity = v
	body.Position = body.Position.Add(v.Mul(dt))
	return out
}

// IntegrateAngular applies torque about the scalar inertia and rotates the
// body. It reports whether the angular velocity had to be clamped.
func (e *SemiImplicitEuler) IntegrateAngular(body *dynamo.RigidBody, torque mgl64.Vec3, dt float64) bool {
	alpha := torque.Mul(1 / e.inertia)
	alpha, _ = dynamo.ClampMagnitude(alpha, e.safety.MaxAngularAcceleration)

	w := body.AngularVelocity.Add(alpha.Mul(dt))
	w = w.Mul(math.Exp(-e.angularDamping * dt))
	w, clamped := dynamo.ClampMagnitude(w, e.safety.MaxAngularVelocity)
	body.AngularVelocity = w

	if w.Len() > e.safety.Epsilon {
		body.Orientation = dynamo.AxisAngle(w.Mul(dt), 0).Mul(body.Orientation).Normalize()
	}
	return clamped
}

// ResolveGround lifts the body so its lowest reference point sits at
// minHeight, cancels downward velocity and applies sliding friction. It
// reports whether the body touched the ground.
func ResolveGround(body *dynamo.RigidBody, points []mgl64.Vec3, minHeight, friction float64) bool {
	lowest := body.Position.Y()
	for i, p := range points {
		y := body.ToWorld(p).Y()
		if i == 0 || y < lowest {
			lowest = y
		}
	}
	if lowest >= minHeight {
		return false
	}

	body.Position[1] += minHeight - lowest
	if body.Velocity[1] < 0 {
		body.Velocity[1] = 0
	}
	body.Velocity[0] *= friction
	body.Velocity[2] *= friction
	return true
}
