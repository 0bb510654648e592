package physics

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// Panel is one flat triangle of the sail, in body frame.
type Panel struct {
	Vertices [3]mgl64.Vec3
	Area     float64
	Centroid mgl64.Vec3
	// Aft marks panels whose mean Z lies behind the sail plane (extrados side).
	Aft bool
}

func NewPanel(v0, v1, v2 mgl64.Vec3) Panel {
	c := v0.Add(v1).Add(v2).Mul(1.0 / 3.0)
	return Panel{
		Vertices: [3]mgl64.Vec3{v0, v1, v2},
		Area:     0.5 * v1.Sub(v0).Cross(v2.Sub(v0)).Len(),
		Centroid: c,
		Aft:      c.Z() < 0,
	}
}

// Straddles reports whether the panel crosses the kite's centerline.
func (p Panel) Straddles(eps float64) bool {
	minX, maxX := math.Inf(1), math.Inf(-1)
	for _, v := range p.Vertices {
		minX = math.Min(minX, v.X())
		maxX = math.Max(maxX, v.X())
	}
	if minX < -eps && maxX > eps {
		return true
	}
	return math.Abs(p.Centroid.X()) <= eps
}

// Geometry is the kite built from a GeometryConfig.
type Geometry struct {
	Points       map[string]mgl64.Vec3
	Panels       []Panel
	TotalArea    float64
	LeftControl  mgl64.Vec3
	RightControl mgl64.Vec3
	GroundPoints []mgl64.Vec3
}

func NewGeometry(cfg config.GeometryConfig) (*Geometry, error) {
	if len(cfg.Points) == 0 {
		return nil, fmt.Errorf("no points: %w", dynamo.ErrInvalidGeometry)
	}
	lookup := func(name string) (mgl64.Vec3, error) {
		p, ok := cfg.Points[name]
		if !ok {
			return mgl64.Vec3{}, fmt.Errorf("unknown point %q: %w", name, dynamo.ErrInvalidGeometry)
		}
		if !dynamo.VecFinite(p) {
			return mgl64.Vec3{}, fmt.Errorf("point %q is not finite: %w", name, dynamo.ErrInvalidGeometry)
		}
		return p, nil
	}

	g := &Geometry{Points: make(map[string]mgl64.Vec3, len(cfg.Points))}
	for k, v := range cfg.Points {
		g.Points[k] = v
	}

	for i, tri := range cfg.Panels {
		var vs [3]mgl64.Vec3
		for j, name := range tri {
			v, err := lookup(name)
			if err != nil {
				return nil, fmt.Errorf("panel %d: %w", i, err)
			}
			vs[j] = v
		}
		p := NewPanel(vs[0], vs[1], vs[2])
		g.Panels = append(g.Panels, p)
		g.TotalArea += p.Area
	}
	if !(g.TotalArea > 0) {
		return nil, fmt.Errorf("panels enclose no area: %w", dynamo.ErrInvalidGeometry)
	}

	var err error
	if g.LeftControl, err = lookup(cfg.LeftControl); err != nil {
		return nil, fmt.Errorf("left control: %w", err)
	}
	if g.RightControl, err = lookup(cfg.RightControl); err != nil {
		return nil, fmt.Errorf("right control: %w", err)
	}

	names := cfg.GroundPoints
	if len(names) == 0 {
		names = make([]string, 0, len(cfg.Points))
		for k := range cfg.Points {
			names = append(names, k)
		}
		sort.Strings(names)
	}
	for _, name := range names {
		p, err := lookup(name)
		if err != nil {
			return nil, fmt.Errorf("ground point: %w", err)
		}
		g.GroundPoints = append(g.GroundPoints, p)
	}
	return g, nil
}
