package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// PanelForce is the contribution of one panel, in world frame.
type PanelForce struct {
	Index            int
	Force            mgl64.Vec3
	CenterOfPressure mgl64.Vec3
	Torque           mgl64.Vec3
	Incidence        float64
}

// Forces is the aerodynamic breakdown of one tick. Net and Torque carry
// the lift and drag scaling; Left and Right are the raw per-side sums.
type Forces struct {
	Net    mgl64.Vec3
	Torque mgl64.Vec3
	Left   mgl64.Vec3
	Right  mgl64.Vec3
	Lift   mgl64.Vec3
	Drag   mgl64.Vec3
	Panels []PanelForce
}

type AeroModel struct {
	cfg config.AeroConfig
	eps float64
}

func NewAeroModel(cfg config.AeroConfig, eps float64) *AeroModel {
	return &AeroModel{cfg: cfg, eps: eps}
}

// ComputeForces sums flat-plate pressure over the panels. Each panel pushes
// along its normal with magnitude ½ρV²A·|cos θ|; panels seen nearly
// edge-on are skipped.
func (m *AeroModel) ComputeForces(apparent mgl64.Vec3, q mgl64.Quat, panels []Panel, pos mgl64.Vec3) Forces {
	var out Forces

	speed := apparent.Len()
	if !(speed >= m.eps) {
		return out
	}
	dir := apparent.Mul(1 / speed)
	dynPressure := 0.5 * m.cfg.AirDensity * speed * speed

	var total float64
	for _, p := range panels {
		total += p.Area
	}
	if !(total > 0) {
		return out
	}

	var net, torque mgl64.Vec3
	for i, p := range panels {
		local := p.Vertices[1].Sub(p.Vertices[0]).Cross(p.Vertices[2].Sub(p.Vertices[0]))
		if local.LenSqr() < m.eps {
			continue
		}
		if p.Aft {
			local = local.Mul(-1)
		}
		n, ok := dynamo.SafeNormalize(q.Rotate(local), m.eps)
		if !ok {
			continue
		}

		cosInc := math.Abs(dir.Dot(n))
		if cosInc < m.cfg.MinIncidence {
			continue
		}

		mag := dynPressure * p.Area * cosInc
		if p.Aft {
			mag *= 1 + m.cfg.ExtradosBoost*math.Sin(math.Pi*cosInc)
		}
		if n.Dot(dir) < 0 {
			n = n.Mul(-1)
		}
		f := n.Mul(mag)

		switch {
		case p.Straddles(m.eps):
			half := f.Mul(0.5)
			out.Left = out.Left.Add(half)
			out.Right = out.Right.Add(half)
		case p.Centroid.X() < 0:
			out.Left = out.Left.Add(f)
		default:
			out.Right = out.Right.Add(f)
		}

		shift := m.cfg.CenterOfPressureShift
		if p.Aft {
			shift = -shift
		}
		cpLocal := p.Centroid.Add(mgl64.Vec3{0, 0, shift})
		cp := pos.Add(q.Rotate(cpLocal))
		tau := cp.Sub(pos).Cross(f).Mul(p.Area / total)

		net = net.Add(f)
		torque = torque.Add(tau)
		out.Panels = append(out.Panels, PanelForce{
			Index:            i,
			Force:            f,
			CenterOfPressure: cp,
			Torque:           tau,
			Incidence:        cosInc,
		})
	}

	drag := dir.Mul(net.Dot(dir))
	lift := net.Sub(drag)
	out.Drag = drag.Mul(m.cfg.DragScale)
	out.Lift = lift.Mul(m.cfg.LiftScale)
	out.Net = out.Lift.Add(out.Drag)

	out.Torque = torque
	if raw := net.Len(); raw > m.eps {
		out.Torque = torque.Mul(out.Net.Len() / raw)
	}
	return out
}
