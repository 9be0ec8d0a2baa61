// Package dynacom distributes the ground reaction wrench of a floating-base
// robot among its rectangular support contacts.
//
// A DynaCoM owns a robot model, an ordered registry of contacts and the
// bookkeeping of the last control tick: the ground wrench at the center of
// mass, the center of mass itself and the center of pressure. A DynaCoM is
// not safe for concurrent use.
package dynacom

import (
	"fmt"
	"slices"

	"github.com/akmonengine/dynacom/contact"
	"github.com/akmonengine/dynacom/model"
	"github.com/akmonengine/dynacom/qp"
	"github.com/go-gl/mathgl/mgl64"
)

type entry struct {
	contact *contact.Contact6D
	// rank is the insertion order of the registration
	rank int
}

type DynaCoM struct {
	settings Settings
	solver   qp.Solver

	model      *model.Model
	data       *model.Data
	references map[string][]float64

	// Registry, names in insertion order and active names sorted by rank
	names    []string
	entries  map[string]*entry
	active   []string
	nextRank int

	// Ground wrench at the center of mass, world frame
	groundForce  mgl64.Vec3
	groundTorque mgl64.Vec3
	com          mgl64.Vec3
	acom         mgl64.Vec3
	cop          mgl64.Vec3

	Events Events
}

// New creates a context with the default settings and no model. Contacts
// may be registered and posed by hand; ComputeDynamics requires Initialize.
func New() *DynaCoM {
	return &DynaCoM{
		settings: DefaultSettings(),
		solver:   qp.Solver{MaxIterations: DefaultSettings().QPMaxIterations},
		entries:  make(map[string]*entry),
		Events:   NewEvents(),
	}
}

// Initialize validates the settings and loads the robot model, then
// places it at its neutral configuration. Registered contacts are bound to
// the frames of the new model. The context is left untouched on error.
func (d *DynaCoM) Initialize(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if settings.URDF == "" {
		return fmt.Errorf("%w: no URDF given", ErrConfiguration)
	}

	m, err := model.LoadURDF(settings.URDF)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}

	var references map[string][]float64
	if settings.SRDF != "" {
		references, err = model.LoadReferenceConfigurations(settings.SRDF, m)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrLoad, err)
		}
	}

	frames := make(map[string]int, len(d.names))
	for _, name := range d.names {
		frameName := d.entries[name].contact.Settings().FrameName
		id, ok := m.FrameID(frameName)
		if !ok {
			return fmt.Errorf("%w: frame %q of contact %q", ErrNotFound, frameName, name)
		}
		frames[name] = id
	}

	data := model.NewData(m)
	if err := data.ForwardKinematics(m.Neutral()); err != nil {
		return fmt.Errorf("%w: %w", ErrLoad, err)
	}
	data.UpdateFramePlacements()

	d.settings = settings
	d.solver = qp.Solver{MaxIterations: settings.QPMaxIterations}
	d.model = m
	d.data = data
	d.references = references
	d.com = data.CenterOfMass()
	for name, id := range frames {
		c := d.entries[name].contact
		c.SetFrameID(id)
		c.SetPose(data.OMf[id])
	}

	return nil
}

func (d *DynaCoM) Settings() Settings {
	return d.settings
}

// Model returns the loaded robot model, nil before Initialize
func (d *DynaCoM) Model() *model.Model {
	return d.model
}

// Data returns the algorithm results owned by this context
func (d *DynaCoM) Data() *model.Data {
	return d.data
}

// ReferenceConfiguration returns a copy of a configuration named in the SRDF
func (d *DynaCoM) ReferenceConfiguration(name string) ([]float64, error) {
	q, ok := d.references[name]
	if !ok {
		return nil, fmt.Errorf("%w: reference configuration %q", ErrNotFound, name)
	}
	return slices.Clone(q), nil
}

// Subscribe adds a listener for an event type
func (d *DynaCoM) Subscribe(eventType EventType, listener EventListener) {
	d.Events.Subscribe(eventType, listener)
}

// AddContact6D registers an initialized contact under a unique name. With a
// model loaded, the contact is bound to the frame named in its settings and
// takes the current pose of that frame. New contacts are active.
func (d *DynaCoM) AddContact6D(c *contact.Contact6D, name string) error {
	if c == nil || !c.IsInitialized() {
		return fmt.Errorf("%w: contact %q is not initialized", ErrConfiguration, name)
	}
	if name == "" {
		return fmt.Errorf("%w: empty contact name", ErrConfiguration)
	}
	if _, ok := d.entries[name]; ok {
		return fmt.Errorf("%w: contact %q already registered", ErrConfiguration, name)
	}

	if d.model != nil {
		frameName := c.Settings().FrameName
		id, ok := d.model.FrameID(frameName)
		if !ok {
			return fmt.Errorf("%w: frame %q of contact %q", ErrNotFound, frameName, name)
		}
		c.SetFrameID(id)
		c.SetPose(d.data.OMf[id])
	}

	d.entries[name] = &entry{contact: c, rank: d.nextRank}
	d.nextRank++
	d.names = append(d.names, name)
	d.active = append(d.active, name)
	c.SetActive(true)

	return nil
}

// RemoveContact6D unregisters a contact. The name may be registered again
// later as a new contact, last in order.
func (d *DynaCoM) RemoveContact6D(name string) error {
	e, ok := d.entries[name]
	if !ok {
		return d.notFound(name)
	}

	delete(d.entries, name)
	d.names = slices.DeleteFunc(d.names, func(n string) bool { return n == name })
	d.active = slices.DeleteFunc(d.active, func(n string) bool { return n == name })
	e.contact.SetActive(false)

	d.Events.forget(name)
	d.Events.emit(ContactRemovedEvent{Name: name})
	return nil
}

// ActivateContact6D adds a contact to the active set, keeping insertion
// order. Activating an active contact does nothing.
func (d *DynaCoM) ActivateContact6D(name string) error {
	e, ok := d.entries[name]
	if !ok {
		return d.notFound(name)
	}
	if e.contact.IsActive() {
		return nil
	}

	i, _ := slices.BinarySearchFunc(d.active, e.rank, func(n string, rank int) int {
		return d.entries[n].rank - rank
	})
	d.active = slices.Insert(d.active, i, name)
	e.contact.SetActive(true)

	d.Events.emit(ContactActivatedEvent{Name: name})
	return nil
}

// DeactivateContact6D removes a contact from the active set; it stays
// registered. Deactivating an inactive contact does nothing.
func (d *DynaCoM) DeactivateContact6D(name string) error {
	e, ok := d.entries[name]
	if !ok {
		return d.notFound(name)
	}
	if !e.contact.IsActive() {
		return nil
	}

	d.active = slices.DeleteFunc(d.active, func(n string) bool { return n == name })
	e.contact.SetActive(false)

	d.Events.emit(ContactDeactivatedEvent{Name: name})
	return nil
}

// Contact returns the registered contact
func (d *DynaCoM) Contact(name string) (*contact.Contact6D, error) {
	e, ok := d.entries[name]
	if !ok {
		return nil, d.notFound(name)
	}
	return e.contact, nil
}

// ActiveContacts returns the active names in insertion order
func (d *DynaCoM) ActiveContacts() []string {
	return slices.Clone(d.active)
}

// Contacts returns every registered name in insertion order
func (d *DynaCoM) Contacts() []string {
	return slices.Clone(d.names)
}

func (d *DynaCoM) notFound(name string) error {
	return fmt.Errorf("%w: contact %q", ErrNotFound, name)
}

// GroundCoMForce returns the last ground reaction force, world frame
func (d *DynaCoM) GroundCoMForce() mgl64.Vec3 {
	return d.groundForce
}

// GroundCoMTorque returns the last ground reaction torque about the center
// of mass, world frame
func (d *DynaCoM) GroundCoMTorque() mgl64.Vec3 {
	return d.groundTorque
}

func (d *DynaCoM) CoM() mgl64.Vec3 {
	return d.com
}

// CoMAcceleration returns the last center of mass acceleration, gravity
// excluded
func (d *DynaCoM) CoMAcceleration() mgl64.Vec3 {
	return d.acom
}

// CoP returns the last center of pressure; its z is the height of the
// support plane it was computed on
func (d *DynaCoM) CoP() mgl64.Vec3 {
	return d.cop
}
