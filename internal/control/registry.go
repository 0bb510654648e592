package control

import (
	"fmt"
	"sort"

	"github.com/san-kum/kitesim/internal/dynamo"
)

var pilots = map[string]func(params map[string]float64) dynamo.Pilot{
	"none": func(params map[string]float64) dynamo.Pilot {
		return NewNone()
	},
	"manual": func(params map[string]float64) dynamo.Pilot {
		m := NewManual(params["limit"])
		m.Set(params["bar"])
		return m
	},
	"pid": func(params map[string]float64) dynamo.Pilot {
		kp, ok := params["kp"]
		if !ok {
			kp = 0.04
		}
		kd, ok := params["kd"]
		if !ok {
			kd = 0.01
		}
		p := NewPID(kp, params["ki"], kd, params["target"])
		p.Limit = params["limit"]
		return p
	},
}

// NewPilot builds a registered pilot. Missing params take their zero value
// except the PID gains, which have working defaults.
func NewPilot(name string, params map[string]float64) (dynamo.Pilot, error) {
	fn, ok := pilots[name]
	if !ok {
		return nil, fmt.Errorf("%q (available: %v): %w", name, ListPilots(), dynamo.ErrUnknownPilot)
	}
	return fn(params), nil
}

func ListPilots() []string {
	names := make([]string, 0, len(pilots))
	for name := range pilots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
