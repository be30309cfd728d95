package handler

import (
	"context"
)

// Health represents the cached health status of a handler.
type Health int

const (
	// HealthUnknown indicates the handler has not been probed yet.
	HealthUnknown Health = iota
	// HealthHealthy indicates the handler is functioning normally.
	HealthHealthy
	// HealthDegraded indicates the handler is functioning but with issues.
	HealthDegraded
	// HealthUnhealthy indicates the handler is not functioning properly.
	HealthUnhealthy
)

// String returns the string representation of the health status.
func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Request is one unit of work to be dispatched to a handler.
type Request struct {
	// ID uniquely identifies the request.
	ID string

	// Type is a free-form request kind (e.g. "text", "event").
	Type string

	// Content is the request payload.
	Content map[string]any

	// Metadata carries arbitrary caller-supplied annotations.
	Metadata map[string]any
}

// ProcessingContext carries cross-request state that handlers may consult
// when deciding whether they can process a request.
type ProcessingContext struct {
	// RequestID is the ID of the request being processed.
	RequestID string

	// SessionID groups related requests, if any.
	SessionID string

	// Metadata carries arbitrary caller-supplied annotations.
	Metadata map[string]any
}

// Handler is the capability interface every registered handler must implement.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - CanHandle must be fast, non-blocking and side-effect free; it is called
//   on every routing decision.
type Handler interface {
	// Name returns the stable, unique name of this handler.
	Name() string

	// CanHandle reports whether this handler can process the request.
	CanHandle(ctx context.Context, req Request, pc ProcessingContext) bool
}

// Prober is an optional capability a Handler may implement to participate
// in periodic health probing. Handlers that do not implement Prober are
// treated as always healthy.
type Prober interface {
	// HealthProbe reports the current health of the handler. A non-nil
	// error demotes the handler to unhealthy regardless of the returned
	// status.
	HealthProbe(ctx context.Context) (Health, error)
}

// Func is an adapter to build a Handler from plain functions.
type Func struct {
	name      string
	canHandle func(context.Context, Request, ProcessingContext) bool
	probe     func(context.Context) (Health, error)
}

// NewFunc creates a Handler from a name and a can-handle function.
func NewFunc(name string, canHandle func(context.Context, Request, ProcessingContext) bool) *Func {
	return &Func{name: name, canHandle: canHandle}
}

// WithProbe attaches a health probe function to the handler.
func (f *Func) WithProbe(probe func(context.Context) (Health, error)) *Func {
	f.probe = probe
	return f
}

// Name returns the handler name.
func (f *Func) Name() string {
	return f.name
}

// CanHandle reports whether the handler can process the request.
func (f *Func) CanHandle(ctx context.Context, req Request, pc ProcessingContext) bool {
	if f.canHandle == nil {
		return false
	}
	return f.canHandle(ctx, req, pc)
}

// HealthProbe runs the attached probe. Without WithProbe the handler
// reports healthy, matching the default for handlers that cannot be probed.
func (f *Func) HealthProbe(ctx context.Context) (Health, error) {
	if f.probe == nil {
		return HealthHealthy, nil
	}
	return f.probe(ctx)
}
