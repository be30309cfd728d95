// Package health keeps handler health fresh in the registry without routing
// ever waiting on a probe.
//
// A Monitor runs a background loop: each cycle it probes every enabled
// handler concurrently, bounded by a per-probe timeout, and writes the
// results back into the registry via SetHealth. Handlers that do not
// implement handler.Prober count as healthy; a probe that errors, panics or
// times out demotes its handler to unhealthy.
//
//	mon := health.NewMonitor(reg, health.Config{Interval: 30 * time.Second})
//	if err := mon.Start(); err != nil {
//	    return err
//	}
//	defer mon.Stop()
//
// Stop waits for the in-flight cycle to finish, so after it returns nothing
// is writing into the registry.
package health
