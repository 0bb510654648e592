// Package physics provides the force models of the two-line kite.
//
// The package is split along the tick pipeline:
//
//   - [WindField]: deterministic gusting wind and apparent wind
//   - [Geometry] and [Panel]: the kite's triangular surfaces in body frame
//   - [AeroModel]: per-panel pressure forces summed into force and torque
//   - [Line] and [LineSolver]: stiffening-zone tension and the two-pass
//     position-based projection that keeps both lines within rest length
//
// Nothing in this package returns errors once constructed. Degenerate
// panels, edge-on panels and slack lines are skipped, never reported.
//
// # Example
//
//	geom, _ := physics.NewGeometry(cfg.Kite.Geometry)
//	aero := physics.NewAeroModel(cfg.Aero, cfg.Safety.Epsilon)
//	f := aero.ComputeForces(apparent, body.Orientation, geom.Panels, body.Position)
package physics
