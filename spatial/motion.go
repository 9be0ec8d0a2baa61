package spatial

import "github.com/go-gl/mathgl/mgl64"

// Motion is a spatial velocity or acceleration: linear part at the frame
// origin, angular part
type Motion struct {
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

func (m Motion) Add(other Motion) Motion {
	return Motion{Linear: m.Linear.Add(other.Linear), Angular: m.Angular.Add(other.Angular)}
}

func (m Motion) Mul(c float64) Motion {
	return Motion{Linear: m.Linear.Mul(c), Angular: m.Angular.Mul(c)}
}

// Cross is the motion cross product m × other
func (m Motion) Cross(other Motion) Motion {
	return Motion{
		Linear:  m.Angular.Cross(other.Linear).Add(m.Linear.Cross(other.Angular)),
		Angular: m.Angular.Cross(other.Angular),
	}
}

// CrossWrench is the dual cross product m ×* w
func (m Motion) CrossWrench(w Wrench) Wrench {
	return Wrench{
		Force:  m.Angular.Cross(w.Force),
		Torque: m.Angular.Cross(w.Torque).Add(m.Linear.Cross(w.Force)),
	}
}

// ActMotion moves a motion from the child frame of t to its parent frame
func (t Transform) ActMotion(m Motion) Motion {
	w := t.Rotation.Mul3x1(m.Angular)
	return Motion{
		Linear:  t.Rotation.Mul3x1(m.Linear).Add(t.Translation.Cross(w)),
		Angular: w,
	}
}

// ActInvMotion moves a motion from the parent frame of t to its child frame
func (t Transform) ActInvMotion(m Motion) Motion {
	rt := t.Rotation.Transpose()
	return Motion{
		Linear:  rt.Mul3x1(m.Linear.Sub(t.Translation.Cross(m.Angular))),
		Angular: rt.Mul3x1(m.Angular),
	}
}

// PointAcceleration returns the classical acceleration of a body-fixed point
// p given the body's spatial velocity v and spatial acceleration a, all in
// the same frame
func PointAcceleration(v, a Motion, p mgl64.Vec3) mgl64.Vec3 {
	vp := v.Linear.Add(v.Angular.Cross(p))
	return a.Linear.Add(a.Angular.Cross(p)).Add(v.Angular.Cross(vp))
}
