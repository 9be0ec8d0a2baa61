// Package model holds the kinematic tree of a floating base robot loaded
// from URDF, and the rigid body algorithms the contact dynamics rely on:
// forward kinematics, frame placements, center of mass and the recursive
// Newton-Euler inverse dynamics.
//
// The configuration of a model is laid out as
//
//	q = [x y z qx qy qz qw, joints...]
//	v = [vx vy vz wx wy wz, joints...]
//
// the base velocity being expressed in the base frame.
package model

import (
	"errors"
	"fmt"

	"github.com/akmonengine/dynacom/spatial"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

var ErrInvalidModel = errors.New("model: invalid model")

// StandardGravity is the default gravity of a model, along -z
const StandardGravity = 9.81

// RootJointName names the free-flyer joint attaching the root link
const RootJointName = "root_joint"

// JointType represents the motion allowed by a joint
type JointType int

const (
	JointFreeFlyer JointType = iota
	JointRevolute
	JointPrismatic
)

func (t JointType) String() string {
	switch t {
	case JointFreeFlyer:
		return "free_flyer"
	case JointRevolute:
		return "revolute"
	case JointPrismatic:
		return "prismatic"
	}
	return "unknown"
}

// NQ returns the number of configuration variables of the joint
func (t JointType) NQ() int {
	if t == JointFreeFlyer {
		return 7
	}
	return 1
}

// NV returns the number of velocity variables of the joint
func (t JointType) NV() int {
	if t == JointFreeFlyer {
		return 6
	}
	return 1
}

// Joint connects a body to its parent body
type Joint struct {
	Name string
	Type JointType
	// Placement of the joint frame in the parent body frame
	Placement spatial.Transform
	// Axis of a revolute or prismatic joint, in the joint frame
	Axis       mgl64.Vec3
	IdxQ, IdxV int
	Lower      float64
	Upper      float64
}

// Body is a rigid body of the tree. Links attached through fixed joints are
// lumped into the body of their parent.
type Body struct {
	Name string
	// Parent body index, -1 for the root
	Parent  int
	Joint   Joint
	Inertia spatial.Inertia
}

// FrameType represents the origin of an operational frame
type FrameType int

const (
	FrameBody FrameType = iota
	FrameJoint
	FrameFixedJoint
)

// Frame is a named placement rigidly attached to a body
type Frame struct {
	Name      string
	Type      FrameType
	Body      int
	Placement spatial.Transform
}

// Model is the immutable description of a robot
type Model struct {
	Name    string
	Bodies  []Body
	Frames  []Frame
	NQ, NV  int
	Gravity mgl64.Vec3

	frames map[string]int
	joints map[string]int
}

// FrameID returns the index of a frame by name
func (m *Model) FrameID(name string) (int, bool) {
	id, ok := m.frames[name]
	return id, ok
}

// JointBody returns the body moved by a non-fixed joint
func (m *Model) JointBody(name string) (int, bool) {
	id, ok := m.joints[name]
	return id, ok
}

// JointNames returns the names of the actuated joints in configuration order
func (m *Model) JointNames() []string {
	names := make([]string, 0, len(m.Bodies)-1)
	for _, b := range m.Bodies[1:] {
		names = append(names, b.Joint.Name)
	}
	return names
}

// Mass returns the total mass of the robot
func (m *Model) Mass() float64 {
	mass := 0.0
	for _, b := range m.Bodies {
		mass += b.Inertia.Mass
	}
	return mass
}

// Neutral returns the configuration with the base at the origin, identity
// orientation and every joint at zero
func (m *Model) Neutral() []float64 {
	q := make([]float64, m.NQ)
	q[6] = 1
	return q
}

// CheckConfiguration validates the sizes of q, v and a
func (m *Model) CheckConfiguration(q, v, a []float64) error {
	if len(q) != m.NQ {
		return fmt.Errorf("%w: q has %d values, want %d", ErrInvalidModel, len(q), m.NQ)
	}
	if v != nil && len(v) != m.NV {
		return fmt.Errorf("%w: v has %d values, want %d", ErrInvalidModel, len(v), m.NV)
	}
	if a != nil && len(a) != m.NV {
		return fmt.Errorf("%w: a has %d values, want %d", ErrInvalidModel, len(a), m.NV)
	}
	return nil
}

func build(robot urdfRobot) (*Model, error) {
	if len(robot.Links) == 0 {
		return nil, fmt.Errorf("%w: robot %q has no link", ErrInvalidModel, robot.Name)
	}

	links := make(map[string]int, len(robot.Links))
	for i, l := range robot.Links {
		if _, ok := links[l.Name]; ok {
			return nil, fmt.Errorf("%w: duplicate link %q", ErrInvalidModel, l.Name)
		}
		links[l.Name] = i
	}

	order, parentJoint, err := sortTree(robot, links)
	if err != nil {
		return nil, err
	}

	m := &Model{
		Name:    robot.Name,
		Gravity: mgl64.Vec3{0, 0, -StandardGravity},
		frames:  make(map[string]int),
		joints:  make(map[string]int),
	}

	// body holding each link, and the link placement in that body
	linkBody := make([]int, len(robot.Links))
	linkPlacement := make([]spatial.Transform, len(robot.Links))

	for _, li := range order {
		link := robot.Links[li]
		inertia, err := link.inertia()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
		}

		ji, ok := parentJoint[li]
		if !ok {
			m.addBody(Body{
				Name:    link.Name,
				Parent:  -1,
				Joint:   Joint{Name: RootJointName, Type: JointFreeFlyer, Placement: spatial.Identity()},
				Inertia: inertia,
			})
			linkBody[li] = 0
			linkPlacement[li] = spatial.Identity()
			continue
		}

		joint := robot.Joints[ji]
		parent := links[joint.Parent.Link]
		origin, err := joint.Origin.transform()
		if err != nil {
			return nil, fmt.Errorf("%w: joint %q: %w", ErrInvalidModel, joint.Name, err)
		}
		placement := linkPlacement[parent].Compose(origin)

		if joint.Type == "fixed" {
			body := linkBody[parent]
			linkBody[li] = body
			linkPlacement[li] = placement

			m.Bodies[body].Inertia = m.Bodies[body].Inertia.Add(placement.ActInertia(inertia))
			m.addFrame(Frame{Name: joint.Name, Type: FrameFixedJoint, Body: body, Placement: placement})
			m.addFrame(Frame{Name: link.Name, Type: FrameBody, Body: body, Placement: placement})
			continue
		}

		j, err := movableJoint(joint, placement)
		if err != nil {
			return nil, err
		}
		j.IdxQ, j.IdxV = m.NQ, m.NV

		body := m.addBody(Body{Name: link.Name, Parent: linkBody[parent], Joint: j, Inertia: inertia})
		linkBody[li] = body
		linkPlacement[li] = spatial.Identity()
	}

	return m, nil
}

func (m *Model) addBody(b Body) int {
	if b.Parent == -1 {
		b.Joint.IdxQ, b.Joint.IdxV = 0, 0
	}
	m.Bodies = append(m.Bodies, b)
	id := len(m.Bodies) - 1

	m.NQ += b.Joint.Type.NQ()
	m.NV += b.Joint.Type.NV()
	m.joints[b.Joint.Name] = id

	m.addFrame(Frame{Name: b.Joint.Name, Type: FrameJoint, Body: id, Placement: spatial.Identity()})
	m.addFrame(Frame{Name: b.Name, Type: FrameBody, Body: id, Placement: spatial.Identity()})

	return id
}

// addFrame keeps the first frame registered under a name
func (m *Model) addFrame(f Frame) {
	if _, ok := m.frames[f.Name]; ok {
		return
	}
	m.Frames = append(m.Frames, f)
	m.frames[f.Name] = len(m.Frames) - 1
}

func movableJoint(joint urdfJoint, placement spatial.Transform) (Joint, error) {
	j := Joint{Name: joint.Name, Placement: placement}

	switch joint.Type {
	case "revolute", "continuous":
		j.Type = JointRevolute
	case "prismatic":
		j.Type = JointPrismatic
	default:
		return Joint{}, fmt.Errorf("%w: joint %q has unsupported type %q", ErrInvalidModel, joint.Name, joint.Type)
	}

	axis := mgl64.Vec3{1, 0, 0}
	if joint.Axis != nil {
		var err error
		if axis, err = parseVec3(joint.Axis.XYZ, axis); err != nil {
			return Joint{}, fmt.Errorf("%w: joint %q axis: %w", ErrInvalidModel, joint.Name, err)
		}
	}
	if axis.Len() == 0 {
		return Joint{}, fmt.Errorf("%w: joint %q has a null axis", ErrInvalidModel, joint.Name)
	}
	j.Axis = axis.Normalize()

	if joint.Limit != nil && joint.Type != "continuous" {
		j.Lower, j.Upper = joint.Limit.Lower, joint.Limit.Upper
	}
	return j, nil
}

// sortTree checks that links and joints form a tree with a single root and
// returns the links in a deterministic topological order together with the
// joint attaching each non-root link
func sortTree(robot urdfRobot, links map[string]int) ([]int, map[int]int, error) {
	g := simple.NewDirectedGraph()
	for i := range robot.Links {
		g.AddNode(simple.Node(i))
	}

	parentJoint := make(map[int]int, len(robot.Joints))
	for ji, joint := range robot.Joints {
		parent, ok := links[joint.Parent.Link]
		if !ok {
			return nil, nil, fmt.Errorf("%w: joint %q has unknown parent link %q", ErrInvalidModel, joint.Name, joint.Parent.Link)
		}
		child, ok := links[joint.Child.Link]
		if !ok {
			return nil, nil, fmt.Errorf("%w: joint %q has unknown child link %q", ErrInvalidModel, joint.Name, joint.Child.Link)
		}
		if parent == child {
			return nil, nil, fmt.Errorf("%w: joint %q attaches link %q to itself", ErrInvalidModel, joint.Name, joint.Child.Link)
		}
		if other, ok := parentJoint[child]; ok {
			return nil, nil, fmt.Errorf("%w: link %q is the child of joints %q and %q", ErrInvalidModel, joint.Child.Link, robot.Joints[other].Name, joint.Name)
		}
		parentJoint[child] = ji
		g.SetEdge(simple.Edge{F: simple.Node(parent), T: simple.Node(child)})
	}

	var roots []string
	for i, l := range robot.Links {
		if g.To(int64(i)).Len() == 0 {
			roots = append(roots, l.Name)
		}
	}
	if len(roots) != 1 {
		return nil, nil, fmt.Errorf("%w: want a single root link, got %v", ErrInvalidModel, roots)
	}

	sorted, err := topo.SortStabilized(g, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: kinematic loop: %w", ErrInvalidModel, err)
	}

	order := make([]int, len(sorted))
	for i, n := range sorted {
		order[i] = int(n.ID())
	}
	return order, parentJoint, nil
}
