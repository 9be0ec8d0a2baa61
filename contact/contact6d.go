// Package contact models rigid rectangular support contacts: their
// validated settings, their support patch and the wrench last assigned to
// them by the distribution solver.
package contact

import (
	"errors"
	"fmt"

	"github.com/akmonengine/dynacom/spatial"
	"github.com/go-gl/mathgl/mgl64"
)

// NoFrame is the frame id of a contact not bound to a robot model
const NoFrame = -1

var ErrNotInitialized = errors.New("contact: not initialized")

// Contact6D is a rectangular contact able to transmit a full 6D wrench
type Contact6D struct {
	settings    Settings
	patch       Patch
	initialized bool

	pose    spatial.Transform
	frameID int
	active  bool

	// last solved wrench, in the contact frame
	appliedForce spatial.Wrench
}

// NewContact6D creates and initializes a contact
func NewContact6D(settings Settings) (*Contact6D, error) {
	c := &Contact6D{}
	if err := c.Initialize(settings); err != nil {
		return nil, err
	}
	return c, nil
}

// Initialize validates and stores the settings and builds the support patch.
// The contact is left untouched on error.
func (c *Contact6D) Initialize(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	c.settings = settings.Clone()
	c.patch = Rectangle{HalfLength: settings.HalfLength, HalfWidth: settings.HalfWidth}
	c.pose = spatial.Identity()
	c.frameID = NoFrame
	c.appliedForce = spatial.Wrench{}
	c.initialized = true

	return nil
}

func (c *Contact6D) IsInitialized() bool {
	return c.initialized
}

// Settings returns a snapshot of the live settings
func (c *Contact6D) Settings() Settings {
	return c.settings.Clone()
}

// Update replaces the friction and weighting of the contact. Geometry and
// frame are fixed at initialization and cannot be changed here.
func (c *Contact6D) Update(settings Settings) error {
	if !c.initialized {
		return ErrNotInitialized
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.FrameName != c.settings.FrameName ||
		settings.HalfLength != c.settings.HalfLength ||
		settings.HalfWidth != c.settings.HalfWidth {
		return fmt.Errorf("%w: frame and patch geometry require Initialize", ErrInvalidSettings)
	}

	c.settings = settings.Clone()
	return nil
}

// SetMu sets the linear friction coefficient
func (c *Contact6D) SetMu(mu float64) error {
	s, err := c.settings.WithMu(mu)
	if err != nil {
		return err
	}
	return c.Update(s)
}

// SetGu sets the torsional friction coefficient
func (c *Contact6D) SetGu(gu float64) error {
	s, err := c.settings.WithGu(gu)
	if err != nil {
		return err
	}
	return c.Update(s)
}

// SetForceWeights sets weights[0:3]
func (c *Contact6D) SetForceWeights(w mgl64.Vec3) error {
	s, err := c.settings.WithForceWeights(w)
	if err != nil {
		return err
	}
	return c.Update(s)
}

// SetTorqueWeights sets weights[3:6]
func (c *Contact6D) SetTorqueWeights(w mgl64.Vec3) error {
	s, err := c.settings.WithTorqueWeights(w)
	if err != nil {
		return err
	}
	return c.Update(s)
}

func (c *Contact6D) Patch() Patch {
	return c.patch
}

// Pose returns the world placement of the contact frame, as last refreshed
func (c *Contact6D) Pose() spatial.Transform {
	return c.pose
}

func (c *Contact6D) SetPose(pose spatial.Transform) {
	c.pose = pose
}

// FrameID returns the model frame handle, NoFrame when unbound
func (c *Contact6D) FrameID() int {
	return c.frameID
}

func (c *Contact6D) SetFrameID(id int) {
	c.frameID = id
}

func (c *Contact6D) IsActive() bool {
	return c.active
}

func (c *Contact6D) SetActive(active bool) {
	c.active = active
}

// AppliedForce returns the last solved wrench in the contact frame
func (c *Contact6D) AppliedForce() spatial.Wrench {
	return c.appliedForce
}

func (c *Contact6D) SetAppliedForce(w spatial.Wrench) {
	c.appliedForce = w
}

// WorldWrench returns the applied wrench expressed in the world frame at
// the world origin
func (c *Contact6D) WorldWrench() spatial.Wrench {
	return c.pose.ActWrench(c.appliedForce)
}

// CoP returns the local center of pressure of the applied wrench. ok is
// false when the contact carries no normal force.
func (c *Contact6D) CoP() (cop mgl64.Vec2, ok bool) {
	return LocalCoP(c.appliedForce)
}

// LocalCoP returns the center of pressure of a wrench expressed in a contact
// frame, on the contact plane. ok is false without a positive normal force.
func LocalCoP(w spatial.Wrench) (cop mgl64.Vec2, ok bool) {
	fz := w.Force.Z()
	if !(fz > 0) {
		return mgl64.Vec2{}, false
	}
	return mgl64.Vec2{-w.Torque.Y() / fz, w.Torque.X() / fz}, true
}
