package registry

import "github.com/Blackmvmba88/blackmamba-cognitive-core/handler"

// EventKind identifies the type of a registry event.
type EventKind int

const (
	// EventRegister fires after a handler is registered.
	EventRegister EventKind = iota
	// EventUnregister fires after a handler is removed.
	EventUnregister
	// EventHealthChange fires when a handler's cached health changes value.
	EventHealthChange
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventRegister:
		return "register"
	case EventUnregister:
		return "unregister"
	case EventHealthChange:
		return "health_change"
	default:
		return "unknown"
	}
}

// Event describes a registry state change delivered to subscribers.
type Event struct {
	// Kind is the type of change.
	Kind EventKind

	// Name is the handler the event concerns.
	Name string

	// Registration is a snapshot taken at event time.
	Registration Registration

	// Previous is the prior health status for EventHealthChange events.
	Previous handler.Health
}

// Subscribe registers a callback for events of the given kind. Callbacks run
// synchronously on the mutating goroutine, outside the registry lock; a
// panicking callback is contained and does not affect the registry or other
// subscribers.
func (r *Registry) Subscribe(kind EventKind, fn func(Event)) {
	if fn == nil {
		return
	}
	r.subMu.Lock()
	r.subs[kind] = append(r.subs[kind], fn)
	r.subMu.Unlock()
}

func (r *Registry) publish(ev Event) {
	r.subMu.RLock()
	subs := r.subs[ev.Kind]
	r.subMu.RUnlock()

	for _, fn := range subs {
		func() {
			defer func() { _ = recover() }()
			fn(ev)
		}()
	}
}
