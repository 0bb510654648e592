// Package control turns pilot intent into line geometry.
//
// A [Bar] eases toward a target rotation and places the two handles. A
// pilot supplies that target every tick:
//
//   - [None]: bar held level
//   - [Manual]: a value set from outside, e.g. keyboard input
//   - [PID]: steers the kite's azimuth toward a setpoint
//
// Positive rotation pulls the left handle back toward the pilot and
// turns the kite left.
//
// # Usage
//
//	pilot, _ := control.NewPilot("pid", map[string]float64{"kp": 0.05})
//	target := pilot.Steer(stepper.Frame())
//	stepper.Step(dt, target)
package control
