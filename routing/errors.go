package routing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoHandler is returned when routing exhausts all candidates and
// fallback chains. Returned errors wrap it; match with errors.Is.
var ErrNoHandler = errors.New("routing: no handler available")

// RejectReason explains why a candidate was not selected.
type RejectReason int

const (
	// ReasonDisabled means the handler is registered but disabled.
	ReasonDisabled RejectReason = iota
	// ReasonNoMatch means the handler's CanHandle returned false.
	ReasonNoMatch
	// ReasonBreakerOpen means the handler's circuit breaker is open and
	// within its cooldown.
	ReasonBreakerOpen
	// ReasonExcluded means the caller excluded the handler by name.
	ReasonExcluded
	// ReasonNotRegistered means a fallback alternate does not resolve to
	// a registered handler.
	ReasonNotRegistered
)

// String returns the string representation of the reason.
func (r RejectReason) String() string {
	switch r {
	case ReasonDisabled:
		return "disabled"
	case ReasonNoMatch:
		return "no match"
	case ReasonBreakerOpen:
		return "breaker open"
	case ReasonExcluded:
		return "excluded"
	case ReasonNotRegistered:
		return "not registered"
	default:
		return "unknown"
	}
}

// Rejection records one candidate considered and turned down during a
// routing decision.
type Rejection struct {
	// Name is the candidate handler name.
	Name string

	// Reason is why the candidate was rejected.
	Reason RejectReason
}

// NoHandlerError reports that a routing decision found no selectable
// handler. It carries one Rejection per candidate considered, for the
// caller's own fallback and reporting logic.
type NoHandlerError struct {
	// RequestID identifies the request that could not be routed.
	RequestID string

	// Rejections lists every candidate tried and why it was rejected.
	Rejections []Rejection
}

// Error returns the formatted error message.
func (e *NoHandlerError) Error() string {
	if len(e.Rejections) == 0 {
		return fmt.Sprintf("routing: no handler available for request %q: no candidates", e.RequestID)
	}

	parts := make([]string, len(e.Rejections))
	for i, r := range e.Rejections {
		parts[i] = fmt.Sprintf("%s (%s)", r.Name, r.Reason)
	}
	return fmt.Sprintf("routing: no handler available for request %q: tried %s",
		e.RequestID, strings.Join(parts, ", "))
}

// Unwrap makes the error match ErrNoHandler via errors.Is.
func (e *NoHandlerError) Unwrap() error {
	return ErrNoHandler
}
