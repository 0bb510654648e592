// Package viz draws the kite in the terminal.
//
// [Model] flies a single stepper at 60 ticks per second with side, front
// and orbiting 3D views on a braille [Canvas]. [Menu] wraps it with a
// preset picker. Telemetry is drawn with lipgloss and asciigraph.
//
// # Key Bindings
//
//	←/→ h/l  steer the bar (switches to manual control)
//	+/-      wind speed
//	t/T      turbulence
//	v        cycle views
//	x y z    orbit and zoom the 3D camera (shift reverses)
//	c        cycle color themes
//	Space    pause
//	R        reset
//	?        help overlay
package viz
