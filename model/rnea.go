package model

import (
	"github.com/akmonengine/dynacom/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// RNEA computes the generalized forces required to produce the acceleration
// a at configuration q and velocity v, under gravity; nil v or a read as
// zero. The first six values are the wrench the free-flyer must receive, in
// the base frame: the net external wrench acting on the robot.
//
// It also updates placements, body velocities and accelerations, Com, Vcom
// and Acom.
//
// References:
//   - Featherstone: "Rigid Body Dynamics Algorithms", section 5.3 (2008)
func (d *Data) RNEA(q, v, a []float64) ([]float64, error) {
	m := d.model
	if err := m.CheckConfiguration(q, v, a); err != nil {
		return nil, err
	}
	if v == nil {
		v = make([]float64, m.NV)
	}
	if a == nil {
		a = make([]float64, m.NV)
	}
	if err := d.ForwardKinematics(q); err != nil {
		return nil, err
	}

	for i, b := range m.Bodies {
		vj := jointMotion(b.Joint, v)
		aj := jointMotion(b.Joint, a)

		if b.Parent < 0 {
			d.V[i] = vj
			d.A[i] = aj
		} else {
			d.V[i] = d.LiMi[i].ActInvMotion(d.V[b.Parent]).Add(vj)
			d.A[i] = d.LiMi[i].ActInvMotion(d.A[b.Parent]).Add(aj).Add(d.V[i].Cross(vj))
		}

		// gravity seen as a uniform acceleration of the world, in body frame
		gravity := spatial.Motion{Linear: d.OMi[i].Rotation.Transpose().Mul3x1(m.Gravity)}
		accel := d.A[i].Add(gravity.Mul(-1))

		momentum := b.Inertia.Apply(d.V[i])
		d.F[i] = b.Inertia.Apply(accel).Add(d.V[i].CrossWrench(momentum))
	}

	for i := len(m.Bodies) - 1; i >= 0; i-- {
		b := m.Bodies[i]
		projectWrench(b.Joint, d.F[i], d.Tau)
		if b.Parent >= 0 {
			d.F[b.Parent] = d.F[b.Parent].Add(d.LiMi[i].ActWrench(d.F[i]))
		}
	}

	d.centerOfMassDerivatives()

	return d.Tau, nil
}

// centerOfMassDerivatives updates Com, Vcom and Acom from the body
// placements, velocities and accelerations
func (d *Data) centerOfMassDerivatives() {
	var c, vc, ac mgl64.Vec3
	mass := 0.0
	for i, b := range d.model.Bodies {
		in := b.Inertia
		rotation := d.OMi[i].Rotation
		vp := d.V[i].Linear.Add(d.V[i].Angular.Cross(in.Lever))

		c = c.Add(d.OMi[i].Apply(in.Lever).Mul(in.Mass))
		vc = vc.Add(rotation.Mul3x1(vp).Mul(in.Mass))
		ac = ac.Add(rotation.Mul3x1(spatial.PointAcceleration(d.V[i], d.A[i], in.Lever)).Mul(in.Mass))
		mass += in.Mass
	}
	if mass <= 0 {
		return
	}
	d.Com = c.Mul(1 / mass)
	d.Vcom = vc.Mul(1 / mass)
	d.Acom = ac.Mul(1 / mass)
}

// GravityWrench returns the RNEA free-flyer wrench at rest, m g opposed to
// gravity, expressed in the world frame at the center of mass
func (m *Model) GravityWrench() spatial.Wrench {
	return spatial.Wrench{Force: m.Gravity.Mul(-m.Mass())}
}
