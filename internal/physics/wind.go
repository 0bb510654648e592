package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/kitesim/internal/config"
	"github.com/san-kum/kitesim/internal/dynamo"
)

// gust components, one per axis: frequency multiplier and amplitude as a
// fraction of speed·turbulence.
var gusts = [3]struct{ freq, amp float64 }{
	{1.3, 0.3},
	{0.7, 0.2},
	{1.1, 0.1},
}

// WindField is a uniform wind with smooth, deterministic gusting: the same
// accumulated time always yields the same wind.
type WindField struct {
	speed      float64
	direction  float64
	turbulence float64
	time       float64

	gustFrequency float64
	maxApparent   float64
}

func NewWindField(cfg config.WindConfig) *WindField {
	w := &WindField{
		gustFrequency: cfg.GustFrequency,
		maxApparent:   cfg.MaxApparentWind,
	}
	w.SetParameters(cfg.Speed, cfg.Direction, cfg.Turbulence)
	return w
}

// SetParameters sets speed in m/s, direction in degrees (0° blows toward
// -Z) and turbulence in percent.
func (w *WindField) SetParameters(speed, directionDeg, turbulencePct float64) {
	w.speed = math.Max(0, speed)
	w.direction = directionDeg
	w.turbulence = mgl64.Clamp(turbulencePct, 0, 100)
}

func (w *WindField) Speed() float64      { return w.speed }
func (w *WindField) Direction() float64  { return w.direction }
func (w *WindField) Turbulence() float64 { return w.turbulence }
func (w *WindField) Time() float64       { return w.time }

func (w *WindField) Reset() { w.time = 0 }

// Base returns the wind without gusts.
func (w *WindField) Base() mgl64.Vec3 {
	rad := mgl64.DegToRad(w.direction)
	return mgl64.Vec3{math.Sin(rad), 0, -math.Cos(rad)}.Mul(w.speed)
}

// InstantaneousWind returns the wind at the current time. The field is
// uniform, so position does not change the result.
func (w *WindField) InstantaneousWind(position mgl64.Vec3) mgl64.Vec3 {
	wind := w.Base()
	if w.turbulence <= 0 {
		return wind
	}
	scale := w.speed * w.turbulence / 100
	var gust mgl64.Vec3
	for i, g := range gusts {
		gust[i] = scale * g.amp * math.Sin(w.time*g.freq*w.gustFrequency)
	}
	return wind.Add(gust)
}

// ApparentWind advances the field by dt and returns the wind relative to a
// kite moving at kiteVelocity, clamped to the configured maximum.
func (w *WindField) ApparentWind(kiteVelocity mgl64.Vec3, dt float64) mgl64.Vec3 {
	if dt > 0 {
		w.time += dt
	}
	apparent := w.InstantaneousWind(mgl64.Vec3{}).Sub(kiteVelocity)
	apparent, _ = dynamo.ClampMagnitude(apparent, w.maxApparent)
	return apparent
}
