// Package registry provides a concurrency-safe registry of request handlers
// with hot-plug support.
//
// The registry is the single source of truth for which handlers exist, their
// routing priority, their enabled state and their cached health. Handlers can
// be registered, unregistered, enabled and disabled at runtime while routing
// decisions are served concurrently.
//
// # Concurrency
//
// Reads (Get, Info, List, Names, Stats) proceed concurrently with each
// other. Writes (Register, Unregister, Enable, Disable, SetHealth) are
// mutually exclusive with each other and with in-flight reads, so a List
// snapshot never observes a partially applied mutation.
//
// # Events
//
// Subscribers can observe register, unregister and health-change events:
//
//	reg := registry.New()
//	reg.Subscribe(registry.EventHealthChange, func(ev registry.Event) {
//	    log.Printf("%s: %s -> %s", ev.Name, ev.Previous, ev.Registration.Health)
//	})
//
// Event delivery is best-effort; registry correctness does not depend on any
// subscriber consuming them.
package registry
