package dynacom

import (
	"fmt"
	"math"
	"slices"

	"github.com/akmonengine/dynacom/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// ComputeDynamics updates the ground reaction wrench needed to realize the
// motion (q, v, a) of the robot under gravity and an external wrench
// applied at the center of mass, world frame. The pose of every registered
// contact is refreshed.
//
// With flatHorizontalGround the center of pressure is taken on the plane
// z = 0 from the ground wrench alone. Otherwise the wrench is distributed
// among the active contacts, and the center of pressure is derived from the
// contact wrenches on the plane at their mean height.
//
// The ground wrench, center of mass, its acceleration and the center of
// pressure are committed together, only when the whole update succeeds.
// Buffered contact events are delivered before returning.
func (d *DynaCoM) ComputeDynamics(q, v, a []float64, external spatial.Wrench, flatHorizontalGround bool) error {
	defer d.Events.flush()

	if d.model == nil {
		return fmt.Errorf("%w: no model loaded", ErrLoad)
	}
	for _, x := range slices.Concat(q, v, a) {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: non-finite configuration", ErrConfiguration)
		}
	}
	if !external.IsFinite() {
		return fmt.Errorf("%w: non-finite external wrench", ErrConfiguration)
	}
	tau, err := d.data.RNEA(q, v, a)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	d.data.UpdateFramePlacements()

	// Net wrench on the free-flyer, from the base frame to the world frame
	// at the center of mass
	base := spatial.WrenchFromVector([6]float64(tau[0:6]))
	required := spatial.Translation(d.data.Com).ActInvWrench(d.data.OMi[0].ActWrench(base))
	ground := required.Sub(external)
	com := d.data.Com

	for _, name := range d.names {
		c := d.entries[name].contact
		if id := c.FrameID(); id >= 0 {
			c.SetPose(d.data.OMf[id])
		}
	}

	if flatHorizontalGround {
		d.cop = centerOfPressure(ground, com, 0)
	} else if err := d.DistributeForce(ground.Force, ground.Torque, com); err != nil {
		return err
	}

	d.groundForce = ground.Force
	d.groundTorque = ground.Torque
	d.com = com
	d.acom = d.data.Acom
	return nil
}

// ComputeNL returns the horizontal non-linear term of the linear inverted
// pendulum of natural frequency omega,
//
//	n = c_xy - p_xy - c̈_xy / omega²
//
// It does not depend on omega when the center of mass does not accelerate.
func (d *DynaCoM) ComputeNL(omega float64) (mgl64.Vec2, error) {
	if !(omega > 0) {
		return mgl64.Vec2{}, fmt.Errorf("%w: natural frequency must be positive, got %v", ErrConfiguration, omega)
	}
	w2 := omega * omega
	return mgl64.Vec2{
		d.com.X() - d.cop.X() - d.acom.X()/w2,
		d.com.Y() - d.cop.Y() - d.acom.Y()/w2,
	}, nil
}
