// Package spatial implements rigid transforms and 6D spatial vectors
// (motions, wrenches, inertias) on top of mgl64.
//
// A Transform maps coordinates of a child frame into its parent frame:
//
//	x_parent = Rotation * x_child + Translation
//
// Wrenches are laid out force first, torque second, matching the contact
// weight vector layout.
package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a placement in 3D space (an element of SE(3))
type Transform struct {
	Rotation    mgl64.Mat3
	Translation mgl64.Vec3
}

// Identity returns the identity transform
func Identity() Transform {
	return Transform{
		Rotation:    mgl64.Ident3(),
		Translation: mgl64.Vec3{0, 0, 0},
	}
}

// NewTransform builds a transform from a rotation and a translation
func NewTransform(rotation mgl64.Mat3, translation mgl64.Vec3) Transform {
	return Transform{Rotation: rotation, Translation: translation}
}

// Translation returns a pure translation
func Translation(p mgl64.Vec3) Transform {
	return Transform{Rotation: mgl64.Ident3(), Translation: p}
}

// FromQuat builds a transform from a unit quaternion and a translation
func FromQuat(q mgl64.Quat, translation mgl64.Vec3) Transform {
	return Transform{
		Rotation:    q.Normalize().Mat4().Mat3(),
		Translation: translation,
	}
}

// FromRPY builds a transform from URDF roll/pitch/yaw angles (fixed axes X, Y, Z)
func FromRPY(roll, pitch, yaw float64, translation mgl64.Vec3) Transform {
	r := mgl64.Rotate3DZ(yaw).Mul3(mgl64.Rotate3DY(pitch)).Mul3(mgl64.Rotate3DX(roll))
	return Transform{Rotation: r, Translation: translation}
}

// AxisAngle returns the rotation of angle radians about a unit axis (Rodrigues)
func AxisAngle(axis mgl64.Vec3, angle float64) mgl64.Mat3 {
	s, c := math.Sincos(angle)
	k := Skew(axis)
	return mgl64.Ident3().Add(k.Mul(s)).Add(k.Mul3(k).Mul(1 - c))
}

// Skew returns the cross product matrix of v, Skew(v)*u == v.Cross(u)
func Skew(v mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3FromRows(
		mgl64.Vec3{0, -v[2], v[1]},
		mgl64.Vec3{v[2], 0, -v[0]},
		mgl64.Vec3{-v[1], v[0], 0},
	)
}

// Apply maps a point from the child frame into the parent frame
func (t Transform) Apply(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Mul3x1(p).Add(t.Translation)
}

// ApplyInverse maps a point from the parent frame into the child frame
func (t Transform) ApplyInverse(p mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Transpose().Mul3x1(p.Sub(t.Translation))
}

// Compose returns t * other, the placement of other's child in t's parent
func (t Transform) Compose(other Transform) Transform {
	return Transform{
		Rotation:    t.Rotation.Mul3(other.Rotation),
		Translation: t.Rotation.Mul3x1(other.Translation).Add(t.Translation),
	}
}

// Inverse returns the inverse placement
func (t Transform) Inverse() Transform {
	rt := t.Rotation.Transpose()
	return Transform{
		Rotation:    rt,
		Translation: rt.Mul3x1(t.Translation).Mul(-1),
	}
}

// Between returns the placement of b expressed in a, a^-1 * b
func Between(a, b Transform) Transform {
	return a.Inverse().Compose(b)
}

// ApproxEqual compares rotation and translation element-wise with an
// absolute threshold
func (t Transform) ApproxEqual(other Transform, epsilon float64) bool {
	return ApproxEqualMat3(t.Rotation, other.Rotation, epsilon) &&
		ApproxEqualVec3(t.Translation, other.Translation, epsilon)
}

// ApproxEqualVec3 reports whether every component of a and b differs by at
// most epsilon. Unlike mgl64's ApproxEqualThreshold the threshold is absolute.
func ApproxEqualVec3(a, b mgl64.Vec3, epsilon float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

// ApproxEqualMat3 is the Mat3 counterpart of ApproxEqualVec3
func ApproxEqualMat3(a, b mgl64.Mat3, epsilon float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > epsilon {
			return false
		}
	}
	return true
}

// IsFiniteVec3 reports whether no component of v is NaN or infinite
func IsFiniteVec3(v mgl64.Vec3) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
