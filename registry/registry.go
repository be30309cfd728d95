package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
)

// Options carries the optional metadata supplied at registration time.
type Options struct {
	// Priority orders candidates during routing; higher is preferred.
	// Must be non-negative. Default: 0
	Priority int

	// Version is a free-form, informational version string.
	// Default: "1.0.0"
	Version string

	// Dependencies lists handler names that must already be registered.
	// The check happens once, at registration time.
	Dependencies []string

	// Metadata carries arbitrary annotations about the handler.
	Metadata map[string]any
}

// Registration is a snapshot of one registered handler and its metadata.
type Registration struct {
	// Name is the unique, immutable registry key.
	Name string

	// Handler is the capability object supplied by the caller. The registry
	// stores a non-owning reference.
	Handler handler.Handler

	// Priority orders candidates during routing; higher is preferred.
	Priority int

	// Version is informational only.
	Version string

	// Dependencies are the names checked at registration time.
	Dependencies []string

	// Metadata carries arbitrary annotations about the handler.
	Metadata map[string]any

	// Enabled reports whether the handler is eligible for routing.
	Enabled bool

	// Health is the cached health status written by the health monitor.
	Health handler.Health

	// LastProbe is when Health was last updated. Zero before the first probe.
	LastProbe time.Time

	// RegisteredAt is when the handler was registered.
	RegisteredAt time.Time

	// Seq is a monotonic registration sequence number, used as a
	// deterministic tie-break for equal priorities.
	Seq uint64
}

// entry is the registry's mutable record for one handler.
type entry struct {
	reg Registration
}

// Filter selects which registrations List returns.
type Filter struct {
	// EnabledOnly restricts the result to enabled handlers.
	EnabledOnly bool

	// Health restricts the result to handlers with the given health status.
	Health *handler.Health
}

// Stats summarizes the registry state.
type Stats struct {
	// Total is the number of registered handlers.
	Total int

	// Enabled is the number of enabled handlers.
	Enabled int

	// Health is a histogram of health status to handler count.
	Health map[string]int

	// Handlers maps handler name to a per-handler summary.
	Handlers map[string]HandlerStats
}

// HandlerStats summarizes one registered handler.
type HandlerStats struct {
	Version      string
	Priority     int
	Health       string
	Enabled      bool
	Dependencies []string
}

// Registry is the single source of truth for which handlers exist and their
// metadata. It supports hot-plugging: handlers may be registered, removed,
// enabled and disabled while routing decisions are being served.
//
// Reads proceed concurrently with each other; writes are serialized with
// each other and with in-flight reads, so every List snapshot observes
// either the pre- or post-mutation state, never a partial one.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	seq     uint64

	subMu sync.RWMutex
	subs  map[EventKind][]func(Event)
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		subs:    make(map[EventKind][]func(Event)),
	}
}

// Register adds a handler to the registry. The handler becomes visible to
// List immediately, enabled and with unknown health.
//
// Returns ErrDuplicateName if the name is already registered and
// ErrMissingDependency if any listed dependency is absent.
func (r *Registry) Register(h handler.Handler, opts Options) error {
	if h == nil || h.Name() == "" {
		return ErrInvalidName
	}
	if opts.Priority < 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidPriority, opts.Priority)
	}
	if opts.Version == "" {
		opts.Version = "1.0.0"
	}

	name := h.Name()

	r.mu.Lock()
	if _, exists := r.entries[name]; exists {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	for _, dep := range opts.Dependencies {
		if _, ok := r.entries[dep]; !ok {
			r.mu.Unlock()
			return fmt.Errorf("%w: %q requires %q", ErrMissingDependency, name, dep)
		}
	}

	r.seq++
	reg := Registration{
		Name:         name,
		Handler:      h,
		Priority:     opts.Priority,
		Version:      opts.Version,
		Dependencies: append([]string(nil), opts.Dependencies...),
		Metadata:     opts.Metadata,
		Enabled:      true,
		Health:       handler.HealthUnknown,
		RegisteredAt: time.Now(),
		Seq:          r.seq,
	}
	r.entries[name] = &entry{reg: reg}
	r.mu.Unlock()

	r.publish(Event{Kind: EventRegister, Name: name, Registration: reg})
	return nil
}

// Unregister removes a handler and publishes an unregister event, which the
// routing layer uses to discard the handler's circuit breaker. Returns
// ErrUnknownHandler if the name is not registered. Fallback chains
// referencing the name are not cascaded; dangling references are resolved
// lazily at route time.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
	reg := snapshot(e)
	delete(r.entries, name)
	r.mu.Unlock()

	r.publish(Event{Kind: EventUnregister, Name: name, Registration: reg})
	return nil
}

// Enable marks a handler as eligible for routing. Health and breaker state
// are unaffected.
func (r *Registry) Enable(name string) error {
	return r.setEnabled(name, true)
}

// Disable removes a handler from routing consideration without
// unregistering it. Health and breaker state are unaffected.
func (r *Registry) Disable(name string) error {
	return r.setEnabled(name, false)
}

func (r *Registry) setEnabled(name string, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownHandler, name)
	}
	e.reg.Enabled = enabled
	return nil
}

// SetHealth updates the cached health status of a handler. Unknown names are
// ignored: the registration may have been removed while a probe was in
// flight.
func (r *Registry) SetHealth(name string, health handler.Health) {
	r.mu.Lock()
	e, ok := r.entries[name]
	if !ok {
		r.mu.Unlock()
		return
	}
	old := e.reg.Health
	e.reg.Health = health
	e.reg.LastProbe = time.Now()
	reg := snapshot(e)
	r.mu.Unlock()

	if old != health {
		r.publish(Event{Kind: EventHealthChange, Name: name, Registration: reg, Previous: old})
	}
}

// Get returns the handler registered under name, if it exists and is
// enabled.
func (r *Registry) Get(name string) (handler.Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok || !e.reg.Enabled {
		return nil, false
	}
	return e.reg.Handler, true
}

// Info returns a snapshot of the full registration for name, regardless of
// its enabled state.
func (r *Registry) Info(name string) (Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Registration{}, false
	}
	return snapshot(e), true
}

// List returns a consistent snapshot of registrations matching the filter,
// ordered by priority descending, then registration sequence ascending.
func (r *Registry) List(f Filter) []Registration {
	r.mu.RLock()
	out := make([]Registration, 0, len(r.entries))
	for _, e := range r.entries {
		if f.EnabledOnly && !e.reg.Enabled {
			continue
		}
		if f.Health != nil && e.reg.Health != *f.Health {
			continue
		}
		out = append(out, snapshot(e))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority > out[j].Priority
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Names returns the names of registered handlers, ordered like List.
func (r *Registry) Names(enabledOnly bool) []string {
	regs := r.List(Filter{EnabledOnly: enabledOnly})
	names := make([]string, len(regs))
	for i, reg := range regs {
		names[i] = reg.Name
	}
	return names
}

// Len returns the number of registered handlers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Stats returns a summary of the registry state.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		Total:    len(r.entries),
		Health:   make(map[string]int),
		Handlers: make(map[string]HandlerStats, len(r.entries)),
	}
	for name, e := range r.entries {
		if e.reg.Enabled {
			stats.Enabled++
		}
		stats.Health[e.reg.Health.String()]++
		stats.Handlers[name] = HandlerStats{
			Version:      e.reg.Version,
			Priority:     e.reg.Priority,
			Health:       e.reg.Health.String(),
			Enabled:      e.reg.Enabled,
			Dependencies: append([]string(nil), e.reg.Dependencies...),
		}
	}
	return stats
}

// snapshot copies an entry's registration, detaching the slices a caller
// could otherwise mutate. Must be called with at least a read lock held.
func snapshot(e *entry) Registration {
	reg := e.reg
	reg.Dependencies = append([]string(nil), e.reg.Dependencies...)
	return reg
}
