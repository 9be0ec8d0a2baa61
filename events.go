package dynacom

const (
	CONTACT_ACTIVATED EventType = iota
	CONTACT_DEACTIVATED
	CONTACT_REMOVED
	CONTACT_LOADED
	CONTACT_UNLOADED
	DISTRIBUTION_INFEASIBLE
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

// Activation events
type ContactActivatedEvent struct {
	Name string
}

func (e ContactActivatedEvent) Type() EventType { return CONTACT_ACTIVATED }

type ContactDeactivatedEvent struct {
	Name string
}

func (e ContactDeactivatedEvent) Type() EventType { return CONTACT_DEACTIVATED }

type ContactRemovedEvent struct {
	Name string
}

func (e ContactRemovedEvent) Type() EventType { return CONTACT_REMOVED }

// Load events, the normal force crossing the unloaded threshold
type ContactLoadedEvent struct {
	Name        string
	NormalForce float64
}

func (e ContactLoadedEvent) Type() EventType { return CONTACT_LOADED }

type ContactUnloadedEvent struct {
	Name        string
	NormalForce float64
}

func (e ContactUnloadedEvent) Type() EventType { return CONTACT_UNLOADED }

type DistributionInfeasibleEvent struct {
	Err *InfeasibleError
}

func (e DistributionInfeasibleEvent) Type() EventType { return DISTRIBUTION_INFEASIBLE }

// EventListener - callback for events
type EventListener func(event Event)

// Events manager
type Events struct {
	// Listeners by event type
	listeners map[EventType][]EventListener

	// Event buffer to send at flush
	buffer []Event

	// Load tracking for Loaded/Unloaded detection
	loaded map[string]bool
}

func NewEvents() Events {
	return Events{
		listeners: make(map[EventType][]EventListener),
		buffer:    make([]Event, 0, 16),
		loaded:    make(map[string]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// recordLoad compares the normal force of a contact with its previous state.
// A contact seen for the first time only emits when it is loaded.
func (e *Events) recordLoad(name string, normalForce, threshold float64) {
	loaded := normalForce > threshold
	if e.loaded[name] == loaded {
		return
	}

	e.loaded[name] = loaded
	if loaded {
		e.buffer = append(e.buffer, ContactLoadedEvent{Name: name, NormalForce: normalForce})
	} else {
		e.buffer = append(e.buffer, ContactUnloadedEvent{Name: name, NormalForce: normalForce})
	}
}

// forget drops the load state of a removed contact
func (e *Events) forget(name string) {
	delete(e.loaded, name)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
