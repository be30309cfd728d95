// Package resilience provides per-handler circuit breakers for the dispatch
// core.
//
// Each registered handler gets its own Breaker, held on a Board keyed by
// handler name. Callers report invocation outcomes through the Board; the
// router consults Selectable before offering a handler traffic.
//
// # State machine
//
// A breaker starts closed. Reaching the consecutive-failure threshold opens
// it; while open and within the cooldown the handler is never selectable.
// Once the cooldown elapses the breaker moves to half-open at the next
// inspection and one trial is permitted: a success closes the breaker, a
// failure reopens it and restarts the cooldown.
//
// # Usage
//
//	board := resilience.NewBoard(resilience.Config{
//	    Threshold: 5,
//	    Cooldown:  30 * time.Second,
//	})
//
//	if board.Selectable("text_analysis") {
//	    err := process(req)
//	    board.RecordOutcome("text_analysis", err == nil)
//	}
package resilience
