package dynamo

import "github.com/go-gl/mathgl/mgl64"

// RigidBody is the 6-DOF state of the kite.
type RigidBody struct {
	Position        mgl64.Vec3
	Velocity        mgl64.Vec3
	Orientation     mgl64.Quat
	AngularVelocity mgl64.Vec3
}

// NewRigidBody returns a body at rest with the given pose.
func NewRigidBody(position mgl64.Vec3, orientation mgl64.Quat) RigidBody {
	return RigidBody{
		Position:    position,
		Orientation: orientation.Normalize(),
	}
}

// ToWorld maps a point from the body frame to world space.
func (b *RigidBody) ToWorld(local mgl64.Vec3) mgl64.Vec3 {
	return b.Position.Add(b.Orientation.Rotate(local))
}

// PointVelocity returns the world velocity of a point at lever arm r from
// the body center.
func (b *RigidBody) PointVelocity(r mgl64.Vec3) mgl64.Vec3 {
	return b.Velocity.Add(b.AngularVelocity.Cross(r))
}

// IsValid reports whether the pose and velocities are all finite.
func (b *RigidBody) IsValid() bool {
	return VecFinite(b.Position) && VecFinite(b.Velocity) &&
		QuatFinite(b.Orientation) && VecFinite(b.AngularVelocity)
}

// LineTensions is the per-line readout of the last tick.
type LineTensions struct {
	LeftTension   float64 `json:"left_tension"`
	RightTension  float64 `json:"right_tension"`
	LeftDistance  float64 `json:"left_distance"`
	RightDistance float64 `json:"right_distance"`
	LeftTaut      bool    `json:"left_taut"`
	RightTaut     bool    `json:"right_taut"`
}

// Total returns the summed tension of both lines.
func (l LineTensions) Total() float64 {
	return l.LeftTension + l.RightTension
}

// Warnings are the safety-envelope flags raised during the last tick.
type Warnings struct {
	ExcessiveAcceleration     bool    `json:"excessive_acceleration"`
	ExcessiveVelocity         bool    `json:"excessive_velocity"`
	ExcessiveAngularVelocity  bool    `json:"excessive_angular_velocity"`
	InvalidForce              bool    `json:"invalid_force"`
	InvalidTorque             bool    `json:"invalid_torque"`
	InvalidState              bool    `json:"invalid_state"`
	LastAccelerationMagnitude float64 `json:"last_acceleration_magnitude"`
	LastVelocityMagnitude     float64 `json:"last_velocity_magnitude"`
}

// Any reports whether any flag is raised.
func (w Warnings) Any() bool {
	return w.ExcessiveAcceleration || w.ExcessiveVelocity || w.ExcessiveAngularVelocity ||
		w.InvalidForce || w.InvalidTorque || w.InvalidState
}

// Frame is the telemetry snapshot published after each tick.
type Frame struct {
	Time        float64
	Body        RigidBody
	Wind        mgl64.Vec3
	Apparent    mgl64.Vec3
	AeroForce   mgl64.Vec3
	Tensions    LineTensions
	Warnings    Warnings
	BarRotation float64
}

// Altitude returns the height of the kite center.
func (f Frame) Altitude() float64 { return f.Body.Position.Y() }

// Pilot computes a target bar rotation from the last published frame.
type Pilot interface {
	Steer(f Frame) float64
}

// Metric reduces a stream of frames to a scalar.
type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

// Observer is notified after every tick.
type Observer interface {
	OnStep(f Frame)
}
