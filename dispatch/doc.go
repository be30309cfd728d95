// Package dispatch assembles the cognitive core's dispatch layer into one
// facade: handler registry, health-aware scored routing, per-handler circuit
// breakers and a background health monitor.
//
// The Core decides which registered handler processes each unit of work. It
// never invokes handlers itself: the caller routes, invokes the returned
// handler, and reports the outcome back so the handler's circuit breaker
// stays accurate.
//
//	core, err := dispatch.New()
//	if err != nil {
//	    return err
//	}
//	defer core.Close(ctx)
//
//	_ = core.Register(myHandler, registry.Options{Priority: 10})
//	_ = core.StartHealthMonitoring()
//
//	d, err := core.Route(ctx, req, pc)
//	if err != nil {
//	    return err
//	}
//	err = invoke(ctx, d.Handler, req)
//	core.RecordOutcome(d.Name, err == nil)
//
// For finer control over the individual pieces, use the registry, routing,
// resilience and health packages directly.
package dispatch
