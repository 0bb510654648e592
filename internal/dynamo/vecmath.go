package dynamo

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// VecFinite reports whether every component of v is finite.
func VecFinite(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// QuatFinite reports whether every component of q is finite.
func QuatFinite(q mgl64.Quat) bool {
	if math.IsNaN(q.W) || math.IsInf(q.W, 0) {
		return false
	}
	return VecFinite(q.V)
}

// SafeNormalize returns v scaled to unit length. Vectors whose squared
// length is below eps, or that are not finite, yield the zero vector and
// false. mgl64's Normalize divides by zero on those.
func SafeNormalize(v mgl64.Vec3, eps float64) (mgl64.Vec3, bool) {
	l2 := v.LenSqr()
	if !(l2 >= eps) || math.IsInf(l2, 0) {
		return mgl64.Vec3{}, false
	}
	return v.Mul(1 / math.Sqrt(l2)), true
}

// ClampMagnitude scales v down to max if it is longer. The second result is
// true when clamping happened.
func ClampMagnitude(v mgl64.Vec3, max float64) (mgl64.Vec3, bool) {
	if max <= 0 {
		return v, false
	}
	l := v.Len()
	if l <= max {
		return v, false
	}
	return v.Mul(max / l), true
}

// AxisAngle builds the rotation by |rot| radians about rot's direction.
// Rotations shorter than eps return the identity.
func AxisAngle(rot mgl64.Vec3, eps float64) mgl64.Quat {
	angle := rot.Len()
	if !(angle > eps) {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, rot.Mul(1/angle))
}

// Smoothstep is the cubic Hermite ramp 3u²-2u³ with u clamped to [0, 1].
func Smoothstep(u float64) float64 {
	u = mgl64.Clamp(u, 0, 1)
	return u * u * (3 - 2*u)
}
