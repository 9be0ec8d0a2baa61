package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Inertia is the spatial inertia of a rigid body expressed in a body frame
type Inertia struct {
	Mass float64
	// Lever is the center of mass in the body frame
	Lever mgl64.Vec3
	// Rotational is the rotational inertia about the center of mass, in
	// body frame axes
	Rotational mgl64.Mat3
}

// NewInertia creates an inertia from a mass, a center of mass and a
// rotational inertia about that center
func NewInertia(mass float64, lever mgl64.Vec3, rotational mgl64.Mat3) Inertia {
	return Inertia{Mass: mass, Lever: lever, Rotational: rotational}
}

// BoxInertia returns the inertia of a solid box centered on the frame
// origin, given its full dimensions
func BoxInertia(mass float64, size mgl64.Vec3) Inertia {
	x, y, z := size.X(), size.Y(), size.Z()

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return Inertia{
		Mass: mass,
		Rotational: mgl64.Diag3(mgl64.Vec3{
			factor * (y*y + z*z),
			factor * (x*x + z*z),
			factor * (x*x + y*y),
		}),
	}
}

// Apply returns the momentum (as a wrench) of the body moving with velocity v
func (in Inertia) Apply(v Motion) Wrench {
	f := v.Linear.Sub(in.Lever.Cross(v.Angular)).Mul(in.Mass)
	return Wrench{
		Force:  f,
		Torque: in.Rotational.Mul3x1(v.Angular).Add(in.Lever.Cross(f)),
	}
}

// Rotated returns the rotational inertia in axes rotated by r, R * I * R^T
func Rotated(r, inertia mgl64.Mat3) mgl64.Mat3 {
	return r.Mul3(inertia).Mul3(r.Transpose())
}

// ActInertia expresses an inertia given in the child frame of t in its parent frame
func (t Transform) ActInertia(in Inertia) Inertia {
	return Inertia{
		Mass:       in.Mass,
		Lever:      t.Apply(in.Lever),
		Rotational: Rotated(t.Rotation, in.Rotational),
	}
}

// Add lumps two inertias expressed in the same frame, using the parallel
// axis theorem about the combined center of mass
func (in Inertia) Add(other Inertia) Inertia {
	mass := in.Mass + other.Mass
	if mass <= 0 || math.IsInf(mass, 0) {
		return Inertia{Mass: mass, Rotational: in.Rotational.Add(other.Rotational)}
	}

	com := in.Lever.Mul(in.Mass).Add(other.Lever.Mul(other.Mass)).Mul(1.0 / mass)

	return Inertia{
		Mass:  mass,
		Lever: com,
		Rotational: in.Rotational.Add(parallelAxis(in.Mass, in.Lever.Sub(com))).
			Add(other.Rotational).Add(parallelAxis(other.Mass, other.Lever.Sub(com))),
	}
}

// parallelAxis returns m * (|d|² I - d d^T)
func parallelAxis(mass float64, d mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Ident3().Mul(d.Dot(d)).Sub(d.OuterProd3(d)).Mul(mass)
}
