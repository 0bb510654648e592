package sim

import "github.com/san-kum/kitesim/internal/dynamo"

// SimulationError is re-exported so callers of Run need not import dynamo.
type SimulationError = dynamo.SimulationError
