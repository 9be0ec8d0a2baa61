package spatial

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// Wrench is a force/torque pair expressed at the origin of some frame
type Wrench struct {
	Force  mgl64.Vec3
	Torque mgl64.Vec3
}

// WrenchFromVector reads a wrench from its 6-vector layout [force, torque]
func WrenchFromVector(v [6]float64) Wrench {
	return Wrench{
		Force:  mgl64.Vec3{v[0], v[1], v[2]},
		Torque: mgl64.Vec3{v[3], v[4], v[5]},
	}
}

// Vector returns the 6-vector layout [force, torque]
func (w Wrench) Vector() [6]float64 {
	return [6]float64{w.Force[0], w.Force[1], w.Force[2], w.Torque[0], w.Torque[1], w.Torque[2]}
}

func (w Wrench) Add(other Wrench) Wrench {
	return Wrench{Force: w.Force.Add(other.Force), Torque: w.Torque.Add(other.Torque)}
}

func (w Wrench) Sub(other Wrench) Wrench {
	return Wrench{Force: w.Force.Sub(other.Force), Torque: w.Torque.Sub(other.Torque)}
}

func (w Wrench) Mul(c float64) Wrench {
	return Wrench{Force: w.Force.Mul(c), Torque: w.Torque.Mul(c)}
}

// MaxAbs returns the infinity norm of the 6-vector, NaN as soon as one
// component is NaN
func (w Wrench) MaxAbs() float64 {
	m := 0.0
	for _, x := range w.Vector() {
		if math.IsNaN(x) {
			return math.NaN()
		}
		m = math.Max(m, math.Abs(x))
	}
	return m
}

// IsFinite reports whether no component is NaN or infinite
func (w Wrench) IsFinite() bool {
	return IsFiniteVec3(w.Force) && IsFiniteVec3(w.Torque)
}

// ActInvWrench is the exact inverse of ActWrench
func (t Transform) ActInvWrench(w Wrench) Wrench {
	rt := t.Rotation.Transpose()
	return Wrench{
		Force:  rt.Mul3x1(w.Force),
		Torque: rt.Mul3x1(w.Torque.Sub(t.Translation.Cross(w.Force))),
	}
}

// AdjointMatrix returns the 6x6 matrix of ActWrench,
//
//	[ R    0 ]
//	[ p̂R   R ]
func (t Transform) AdjointMatrix() *mat.Dense {
	m := mat.NewDense(6, 6, nil)
	pr := Skew(t.Translation).Mul3(t.Rotation)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, t.Rotation.At(i, j))
			m.Set(i+3, j+3, t.Rotation.At(i, j))
			m.Set(i+3, j, pr.At(i, j))
		}
	}
	return m
}
