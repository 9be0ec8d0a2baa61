package model

import (
	"fmt"

	"github.com/akmonengine/dynacom/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// Data holds the results of the algorithms run on a model. A Data belongs
// to a single model and is overwritten by every call.
type Data struct {
	model *Model

	// OMi is the world placement of each body
	OMi []spatial.Transform
	// LiMi is the placement of each body in its parent body
	LiMi []spatial.Transform
	// OMf is the world placement of each frame
	OMf []spatial.Transform

	// V and A are the spatial velocity and acceleration of each body, in
	// the body frame. A does not include gravity.
	V []spatial.Motion
	A []spatial.Motion
	// F is the wrench transmitted by the joint of each body, in the body frame
	F []spatial.Wrench

	Tau []float64

	// Com is the center of mass in the world frame
	Com mgl64.Vec3
	// Vcom and Acom are the center of mass velocity and acceleration in the
	// world frame. Acom does not include gravity.
	Vcom mgl64.Vec3
	Acom mgl64.Vec3
}

// NewData allocates the data of a model
func NewData(m *Model) *Data {
	n := len(m.Bodies)
	d := &Data{
		model: m,
		OMi:   make([]spatial.Transform, n),
		LiMi:  make([]spatial.Transform, n),
		OMf:   make([]spatial.Transform, len(m.Frames)),
		V:     make([]spatial.Motion, n),
		A:     make([]spatial.Motion, n),
		F:     make([]spatial.Wrench, n),
		Tau:   make([]float64, m.NV),
	}
	for i := range d.OMi {
		d.OMi[i] = spatial.Identity()
		d.LiMi[i] = spatial.Identity()
	}
	for i := range d.OMf {
		d.OMf[i] = spatial.Identity()
	}
	return d
}

func (d *Data) Model() *Model {
	return d.model
}

// jointTransform returns the placement of the body frame in its joint frame
func jointTransform(j Joint, q []float64) spatial.Transform {
	switch j.Type {
	case JointFreeFlyer:
		quat := mgl64.Quat{W: q[j.IdxQ+6], V: mgl64.Vec3{q[j.IdxQ+3], q[j.IdxQ+4], q[j.IdxQ+5]}}
		return spatial.FromQuat(quat, mgl64.Vec3{q[j.IdxQ], q[j.IdxQ+1], q[j.IdxQ+2]})
	case JointRevolute:
		return spatial.NewTransform(spatial.AxisAngle(j.Axis, q[j.IdxQ]), mgl64.Vec3{})
	case JointPrismatic:
		return spatial.Translation(j.Axis.Mul(q[j.IdxQ]))
	}
	return spatial.Identity()
}

// jointMotion returns S * x for the velocity-sized vector x
func jointMotion(j Joint, x []float64) spatial.Motion {
	switch j.Type {
	case JointFreeFlyer:
		i := j.IdxV
		return spatial.Motion{
			Linear:  mgl64.Vec3{x[i], x[i+1], x[i+2]},
			Angular: mgl64.Vec3{x[i+3], x[i+4], x[i+5]},
		}
	case JointRevolute:
		return spatial.Motion{Angular: j.Axis.Mul(x[j.IdxV])}
	case JointPrismatic:
		return spatial.Motion{Linear: j.Axis.Mul(x[j.IdxV])}
	}
	return spatial.Motion{}
}

// projectWrench writes S^T f into tau
func projectWrench(j Joint, f spatial.Wrench, tau []float64) {
	switch j.Type {
	case JointFreeFlyer:
		copy(tau[j.IdxV:j.IdxV+3], f.Force[:])
		copy(tau[j.IdxV+3:j.IdxV+6], f.Torque[:])
	case JointRevolute:
		tau[j.IdxV] = f.Torque.Dot(j.Axis)
	case JointPrismatic:
		tau[j.IdxV] = f.Force.Dot(j.Axis)
	}
}

// ForwardKinematics updates the body placements for the configuration q
func (d *Data) ForwardKinematics(q []float64) error {
	if err := d.model.CheckConfiguration(q, nil, nil); err != nil {
		return err
	}

	for i, b := range d.model.Bodies {
		d.LiMi[i] = b.Joint.Placement.Compose(jointTransform(b.Joint, q))
		if b.Parent < 0 {
			d.OMi[i] = d.LiMi[i]
		} else {
			d.OMi[i] = d.OMi[b.Parent].Compose(d.LiMi[i])
		}
	}
	return nil
}

// UpdateFramePlacements updates OMf from the current body placements
func (d *Data) UpdateFramePlacements() {
	for i, f := range d.model.Frames {
		d.OMf[i] = d.OMi[f.Body].Compose(f.Placement)
	}
}

// FramePlacement returns the world placement of a frame, as of the last
// UpdateFramePlacements
func (d *Data) FramePlacement(id int) (spatial.Transform, error) {
	if id < 0 || id >= len(d.OMf) {
		return spatial.Transform{}, fmt.Errorf("%w: no frame %d", ErrInvalidModel, id)
	}
	return d.OMf[id], nil
}

// CenterOfMass updates Com from the current body placements and returns it
func (d *Data) CenterOfMass() mgl64.Vec3 {
	var sum mgl64.Vec3
	mass := 0.0
	for i, b := range d.model.Bodies {
		sum = sum.Add(d.OMi[i].Apply(b.Inertia.Lever).Mul(b.Inertia.Mass))
		mass += b.Inertia.Mass
	}
	if mass > 0 {
		d.Com = sum.Mul(1 / mass)
	}
	return d.Com
}
