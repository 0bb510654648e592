package viz

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// Camera orbits a target point and projects world points with a
// perspective transform.
type Camera struct {
	Target   mgl64.Vec3
	Yaw      float64
	Pitch    float64
	Distance float64
	FOV      float64
	Near     float64
	Far      float64
}

// NewCamera looks at the kite window from behind and above the pilot.
func NewCamera() *Camera {
	return &Camera{
		Target:   mgl64.Vec3{0, 5, -8},
		Yaw:      0,
		Pitch:    0.35,
		Distance: 26,
		FOV:      mgl64.DegToRad(50),
		Near:     0.1,
		Far:      500,
	}
}

func (c *Camera) Orbit(dyaw, dpitch float64) {
	c.Yaw += dyaw
	c.Pitch = mgl64.Clamp(c.Pitch+dpitch, -1.4, 1.4)
}

func (c *Camera) ZoomIn()  { c.Distance = math.Max(3, c.Distance/1.2) }
func (c *Camera) ZoomOut() { c.Distance = math.Min(200, c.Distance*1.2) }

// Eye returns the camera position. Yaw 0 puts it on +Z, behind the pilot.
func (c *Camera) Eye() mgl64.Vec3 {
	cp := math.Cos(c.Pitch)
	dir := mgl64.Vec3{math.Sin(c.Yaw) * cp, math.Sin(c.Pitch), math.Cos(c.Yaw) * cp}
	return c.Target.Add(dir.Mul(c.Distance))
}

// Project converts a world point to sub-pixels on a sw x sh surface.
// It returns x, y, depth and whether the point is in front of the camera.
func (c *Camera) Project(p mgl64.Vec3, sw, sh int) (int, int, float64, bool) {
	view := mgl64.LookAtV(c.Eye(), c.Target, mgl64.Vec3{0, 1, 0})
	// braille sub-pixels are twice as tall as they are wide
	aspect := float64(sw) / float64(sh) / 2
	proj := mgl64.Perspective(c.FOV, aspect, c.Near, c.Far)

	clip := proj.Mul4(view).Mul4x1(p.Vec4(1))
	if clip.W() <= c.Near {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	x := int(math.Round((ndc.X() + 1) / 2 * float64(sw-1)))
	y := int(math.Round((1 - ndc.Y()) / 2 * float64(sh-1)))
	return x, y, clip.W(), true
}

type Edge struct {
	Start, End mgl64.Vec3
}

type Wireframe struct{ Edges []Edge }

func NewWireframe() *Wireframe               { return &Wireframe{Edges: make([]Edge, 0, 32)} }
func (w *Wireframe) AddEdge(s, e mgl64.Vec3) { w.Edges = append(w.Edges, Edge{s, e}) }
func (w *Wireframe) AddPoint(p mgl64.Vec3)   { w.Edges = append(w.Edges, Edge{p, p}) }
func (w *Wireframe) Clear()                  { w.Edges = w.Edges[:0] }

type projectedEdge struct {
	x1, y1, x2, y2 int
	depth          float64
}

// Render3D draws the wireframe far-to-near. Edges with an endpoint behind
// the camera are dropped.
func Render3D(c *Canvas, w *Wireframe, cam *Camera) {
	if c == nil || w == nil || cam == nil {
		return
	}
	sw, sh := c.Width*2, c.Height*4
	lim := 4 * (sw + sh)
	proj := make([]projectedEdge, 0, len(w.Edges))
	for _, e := range w.Edges {
		x1, y1, d1, v1 := cam.Project(e.Start, sw, sh)
		x2, y2, d2, v2 := cam.Project(e.End, sw, sh)
		if !v1 || !v2 {
			continue
		}
		if absInt(x1) > lim || absInt(x2) > lim || absInt(y1) > lim || absInt(y2) > lim {
			continue
		}
		proj = append(proj, projectedEdge{x1, y1, x2, y2, (d1 + d2) / 2})
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth > proj[j].depth })
	for _, e := range proj {
		if e.x1 == e.x2 && e.y1 == e.y2 {
			c.Set(e.x1, e.y1)
		} else {
			c.DrawLine(e.x1, e.y1, e.x2, e.y2)
		}
	}
}

// GroundGrid returns a square grid on y = 0 centered at (cx, cz).
func GroundGrid(cx, cz, size float64, cells int) *Wireframe {
	w := NewWireframe()
	half := size / 2
	for i := 0; i <= cells; i++ {
		f := -half + size*float64(i)/float64(cells)
		w.AddEdge(mgl64.Vec3{cx - half, 0, cz + f}, mgl64.Vec3{cx + half, 0, cz + f})
		w.AddEdge(mgl64.Vec3{cx + f, 0, cz - half}, mgl64.Vec3{cx + f, 0, cz + half})
	}
	return w
}
