// Package dynamo provides the core primitives shared by the kite simulation.
//
// The package defines the rigid-body state and the telemetry types that
// flow between the physics stepper and its consumers:
//
//   - [RigidBody]: position, velocity, orientation and angular velocity
//   - [Frame]: per-tick telemetry snapshot (pose, tensions, warnings)
//   - [Metric] and [Observer]: consumers fed once per tick by the runner
//
// Vector and quaternion math is done with [mgl64]; the helpers here add the
// guarded operations the solver relies on (magnitude clamping, normalization
// that tolerates zero vectors, finiteness checks).
//
// # Example
//
//	body := dynamo.NewRigidBody(mgl64.Vec3{0, 7, -12}, mgl64.QuatIdent())
//	tip := body.ToWorld(mgl64.Vec3{0.8, 0, 0})
//
// # Thread Safety
//
// None of the types here are synchronized. The stepper that owns a
// [RigidBody] mutates it only from inside a tick; readers take value copies
// between ticks.
package dynamo
