package sim

import "github.com/san-kum/kitesim/internal/dynamo"

// SetBody overwrites the kite state without touching the last valid pose.
func (s *Stepper) SetBody(b dynamo.RigidBody) { s.body = b }
