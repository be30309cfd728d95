// Package routing selects the best handler for each request from a live
// registry, weighing capability, priority and cached health, and quarantining
// failing handlers behind per-handler circuit breakers.
//
// # Selection
//
// A routing decision considers every registration: disabled handlers and
// handlers whose CanHandle declines the request are rejected up front, the
// rest are scored with the configured Strategy and the highest score wins.
// Ties break toward the earliest registration, so repeated calls against an
// unchanged registry return the same winner.
//
// # Fallbacks
//
// When every matching handler is unavailable (disabled or quarantined by its
// breaker), the router walks the fallback chain configured for the top-scored
// unavailable candidate and promotes the first alternate that is registered,
// enabled and selectable. A chain entry is an explicit substitution, so the
// alternate's own CanHandle is not consulted.
//
// # Failure reporting
//
// An exhausted decision returns a *NoHandlerError listing every candidate
// tried and why it was rejected:
//
//	_, err := router.Route(ctx, req, pc)
//	var nhe *routing.NoHandlerError
//	if errors.As(err, &nhe) {
//	    for _, rej := range nhe.Rejections {
//	        log.Printf("%s: %s", rej.Name, rej.Reason)
//	    }
//	}
package routing
