package control

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
)

// Bar is the control bar held by the pilot. It rotates about the world
// vertical through its center.
type Bar struct {
	cfg      config.BarConfig
	rotation float64
}

func NewBar(cfg config.BarConfig) *Bar {
	return &Bar{cfg: cfg}
}

func (b *Bar) Rotation() float64 { return b.rotation }

func (b *Bar) Reset() { b.rotation = 0 }

// Clamp limits a rotation to the bar's travel.
func (b *Bar) Clamp(rot float64) float64 {
	return mgl64.Clamp(rot, -b.cfg.MaxRotation, b.cfg.MaxRotation)
}

// Update eases the bar toward target at the configured response rate and
// returns the new rotation.
func (b *Bar) Update(target, dt float64) float64 {
	if dt <= 0 || math.IsNaN(target) {
		return b.rotation
	}
	target = b.Clamp(target)
	k := math.Min(1, b.cfg.Response*dt)
	b.rotation = b.Clamp(b.rotation + (target-b.rotation)*k)
	return b.rotation
}

// Handles returns the world positions of the left and right handles.
func (b *Bar) Handles() (left, right mgl64.Vec3) {
	half := b.cfg.Width / 2
	q := mgl64.QuatRotate(b.rotation, mgl64.Vec3{0, 1, 0})
	offset := q.Rotate(mgl64.Vec3{half, 0, 0})
	return b.cfg.Position.Sub(offset), b.cfg.Position.Add(offset)
}
