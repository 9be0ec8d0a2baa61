package dynacom

import (
	"errors"
	"math"
	"slices"

	"github.com/akmonengine/dynacom/contact"
	"github.com/akmonengine/dynacom/qp"
	"github.com/akmonengine/dynacom/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/mat"
)

// DistributeForce shares the wrench (force, torque), expressed in the world
// frame at com, among the active contacts. It minimizes the weighted sum of
// squared local wrench components so that the contact wrenches add up to
// the requested one, and each respects unilaterality, friction and the
// bounds of its support patch.
//
// Every result is checked against those constraints before being applied.
// On error the applied forces are left untouched and an *InfeasibleError
// is returned; it is never approximated.
func (d *DynaCoM) DistributeForce(force, torque, com mgl64.Vec3) error {
	defer d.Events.flush()

	target := spatial.Wrench{Force: force, Torque: torque}
	contacts := make([]*contact.Contact6D, len(d.active))
	for i, name := range d.active {
		contacts[i] = d.entries[name].contact
	}

	wrenches, err := d.distribute(contacts, target, com)
	if err != nil {
		var infeasible *InfeasibleError
		if errors.As(err, &infeasible) {
			d.Events.emit(DistributionInfeasibleEvent{Err: infeasible})
		}
		return err
	}

	for _, name := range d.names {
		d.entries[name].contact.SetAppliedForce(spatial.Wrench{})
	}
	for i, c := range contacts {
		c.SetAppliedForce(wrenches[i])
	}
	for _, name := range d.names {
		fz := d.entries[name].contact.AppliedForce().Force.Z()
		d.Events.recordLoad(name, fz, d.settings.UnloadedThreshold)
	}

	d.cop = d.contactCoP(com)
	return nil
}

// distribute returns the local wrench of each contact
func (d *DynaCoM) distribute(contacts []*contact.Contact6D, target spatial.Wrench, com mgl64.Vec3) ([]spatial.Wrench, error) {
	if len(contacts) == 0 {
		return nil, &InfeasibleError{Reason: "no active contact"}
	}
	if !target.IsFinite() || !spatial.IsFiniteVec3(com) {
		return nil, &InfeasibleError{
			Reason:   "non-finite wrench",
			Contacts: slices.Clone(d.active),
			Residual: math.NaN(),
		}
	}

	// Placement of each contact in the world aligned frame at com
	reference := spatial.Translation(com).Inverse()
	placements := make([]spatial.Transform, len(contacts))
	for i, c := range contacts {
		placements[i] = reference.Compose(c.Pose())
	}

	var wrenches []spatial.Wrench
	if len(contacts) == 1 {
		wrenches = []spatial.Wrench{placements[0].ActInvWrench(target)}
	} else {
		x, err := d.solve(contacts, placements, target)
		if err != nil {
			return nil, &InfeasibleError{
				Reason:   "no feasible distribution",
				Contacts: slices.Clone(d.active),
				Cause:    err,
			}
		}
		wrenches = make([]spatial.Wrench, len(contacts))
		for i := range contacts {
			wrenches[i] = spatial.WrenchFromVector([6]float64(x[6*i : 6*i+6]))
		}
	}

	if reason, residual := d.certify(contacts, placements, wrenches, target); reason != "" {
		return nil, &InfeasibleError{
			Reason:   reason,
			Contacts: slices.Clone(d.active),
			Residual: residual,
		}
	}
	return wrenches, nil
}

// solve builds and solves the quadratic program over the stacked local
// wrenches [w_0 … w_n-1]
//
//	minimize    Σ_i Σ_k weight_ik w_ik²
//	subject to  Σ_i X_i w_i = W
//	            C_i w_i <= 0
func (d *DynaCoM) solve(contacts []*contact.Contact6D, placements []spatial.Transform, target spatial.Wrench) ([]float64, error) {
	const size = contact.WeightsSize
	n := size * len(contacts)

	hessian := mat.NewSymDense(n, nil)
	aeq := mat.NewDense(size, n, nil)
	var rows [][size]float64
	var owners []int
	for i, c := range contacts {
		settings := c.Settings()
		for k, w := range settings.Weights {
			hessian.SetSym(size*i+k, size*i+k, w)
		}

		adjoint := placements[i].AdjointMatrix()
		aeq.Slice(0, size, size*i, size*i+size).(*mat.Dense).Copy(adjoint)

		for _, row := range c.Patch().Inequalities(settings.Mu, settings.Gu) {
			rows = append(rows, row)
			owners = append(owners, i)
		}
	}

	cin := mat.NewDense(len(rows), n, nil)
	for r, row := range rows {
		for k, v := range row {
			cin.Set(r, size*owners[r]+k, v)
		}
	}

	vector := target.Vector()
	result, err := d.solver.Solve(qp.Problem{
		Hessian: hessian,
		Aeq:     aeq,
		Beq:     vector[:],
		Cin:     cin,
		Din:     make([]float64, len(rows)),
	})
	if err != nil {
		return nil, err
	}
	return result.X, nil
}

// certify checks a distribution against the equality and every contact
// inequality. It returns the reason of the first failure and its residual,
// an empty reason when the distribution is valid. Comparisons are written
// so that a NaN fails them.
func (d *DynaCoM) certify(contacts []*contact.Contact6D, placements []spatial.Transform, wrenches []spatial.Wrench, target spatial.Wrench) (string, float64) {
	if !target.IsFinite() {
		return "non-finite wrench", math.NaN()
	}
	var sum spatial.Wrench
	for i := range contacts {
		if !wrenches[i].IsFinite() {
			return "non-finite wrench", math.NaN()
		}
		sum = sum.Add(placements[i].ActWrench(wrenches[i]))
	}
	if residual := sum.Sub(target).MaxAbs(); !(residual <= d.settings.EqualityTolerance) {
		return "net wrench not reached", residual
	}

	for i, c := range contacts {
		settings := c.Settings()
		patch := c.Patch()
		w := wrenches[i].Vector()
		tolerance := d.settings.InequalityTolerance * math.Max(1, math.Abs(w[2]))
		if !patch.SupportsTorque() {
			if torque := wrenches[i].Torque.Len(); !(torque <= tolerance) {
				return "contact constraint violated", torque
			}
		}
		// same slack as the rows, scaled back to a distance
		if cop, ok := contact.LocalCoP(wrenches[i]); ok && !patch.Contains(cop, tolerance/w[2]) {
			return "center of pressure outside the patch", math.Max(math.Abs(cop.X()), math.Abs(cop.Y()))
		}
		for _, row := range patch.Inequalities(settings.Mu, settings.Gu) {
			value := 0.0
			for k := range row {
				value += row[k] * w[k]
			}
			if !(value <= tolerance) {
				return "contact constraint violated", value
			}
		}
	}
	return "", 0
}

// contactCoP returns the center of pressure of the applied wrenches on the
// plane at the mean height of the active contacts. Without normal force it
// falls back to the projection of com on that plane.
func (d *DynaCoM) contactCoP(com mgl64.Vec3) mgl64.Vec3 {
	var sum spatial.Wrench
	height := 0.0
	for _, name := range d.active {
		c := d.entries[name].contact
		sum = sum.Add(c.WorldWrench())
		height += c.Pose().Translation.Z()
	}
	height /= float64(len(d.active))

	// move the wrench to com so that the fallback is its projection
	return centerOfPressure(spatial.Translation(com).ActInvWrench(sum), com, height)
}

// centerOfPressure returns the point of the plane z = height where the
// horizontal moment of a wrench expressed at point vanishes
//
//	p_xy = point_xy + (S τ_xy - f_xy (point_z - height)) / f_z,  S = [0 -1; 1 0]
//
// It returns the projection of point when the wrench has no normal force.
func centerOfPressure(w spatial.Wrench, point mgl64.Vec3, height float64) mgl64.Vec3 {
	fz := w.Force.Z()
	if fz == 0 {
		return mgl64.Vec3{point.X(), point.Y(), height}
	}
	lever := point.Z() - height
	return mgl64.Vec3{
		point.X() + (-w.Torque.Y()-w.Force.X()*lever)/fz,
		point.Y() + (w.Torque.X()-w.Force.Y()*lever)/fz,
		height,
	}
}
