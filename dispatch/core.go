package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/health"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/observe"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/registry"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/resilience"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/routing"
)

// options collects the configurable pieces of a Core.
type options struct {
	strategy       routing.Strategy
	breakerConfig  resilience.Config
	observer       observe.Observer
	healthInterval time.Duration
	probeTimeout   time.Duration
}

// Option configures a Core.
type Option func(*options)

// WithStrategy replaces the default routing strategy.
func WithStrategy(s routing.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithBreakerConfig sets the circuit breaker config shared by all handlers.
func WithBreakerConfig(cfg resilience.Config) Option {
	return func(o *options) { o.breakerConfig = cfg }
}

// WithObserver attaches an observability stack. Default: no-op observer.
func WithObserver(obs observe.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithHealthInterval sets the health monitor probe interval.
func WithHealthInterval(d time.Duration) Option {
	return func(o *options) { o.healthInterval = d }
}

// WithProbeTimeout sets the per-probe timeout of the health monitor.
func WithProbeTimeout(d time.Duration) Option {
	return func(o *options) { o.probeTimeout = d }
}

// Core is the assembled dispatch layer: a handler registry, a health-aware
// scoring router, per-handler circuit breakers and a background health
// monitor, wired to one observability stack.
//
// Core decides which handler processes a unit of work; invoking the handler
// is the caller's job, reported back through RecordOutcome.
type Core struct {
	registry *registry.Registry
	board    *resilience.Board
	router   *routing.Router
	monitor  *health.Monitor
	observer observe.Observer
	metrics  observe.Metrics
	tracer   trace.Tracer
	logger   observe.Logger
}

// New assembles a Core.
func New(opts ...Option) (*Core, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.observer == nil {
		o.observer = observe.Nop()
	}

	logger := o.observer.Logger()

	metrics, err := observe.NewMetrics(o.observer.Meter())
	if err != nil {
		return nil, fmt.Errorf("dispatch: create metrics: %w", err)
	}

	reg := registry.New()
	board := resilience.NewBoard(o.breakerConfig)

	c := &Core{
		registry: reg,
		board:    board,
		observer: o.observer,
		metrics:  metrics,
		tracer:   o.observer.Tracer(),
		logger:   logger,
	}

	board.OnStateChange(func(name string, from, to resilience.State) {
		ctx := context.Background()
		c.metrics.RecordBreakerTransition(ctx, name, from.String(), to.String())
		c.logger.Warn(ctx, "circuit breaker transition",
			observe.F("handler.name", name),
			observe.F("from", from.String()),
			observe.F("to", to.String()),
		)
	})

	c.router = routing.NewRouter(reg, routing.Config{
		Strategy: o.strategy,
		Board:    board,
		Logger:   logger,
	})
	c.monitor = health.NewMonitor(reg, health.Config{
		Interval:     o.healthInterval,
		ProbeTimeout: o.probeTimeout,
		Logger:       logger,
		Metrics:      metrics,
	})
	return c, nil
}

// Register adds a handler to the registry.
func (c *Core) Register(h handler.Handler, opts registry.Options) error {
	return c.registry.Register(h, opts)
}

// Unregister removes a handler. The router discards the handler's circuit
// breaker via the registry's unregister event, so a later re-registration
// under the same name starts clean.
func (c *Core) Unregister(name string) error {
	return c.registry.Unregister(name)
}

// Enable marks a handler eligible for routing.
func (c *Core) Enable(name string) error {
	return c.registry.Enable(name)
}

// Disable removes a handler from routing without unregistering it.
func (c *Core) Disable(name string) error {
	return c.registry.Disable(name)
}

// Get returns the named handler if it is registered and enabled.
func (c *Core) Get(name string) (handler.Handler, bool) {
	return c.registry.Get(name)
}

// List returns registrations matching the filter, priority-ordered.
func (c *Core) List(f registry.Filter) []registry.Registration {
	return c.registry.List(f)
}

// Subscribe registers a callback for registry events of the given kind.
func (c *Core) Subscribe(kind registry.EventKind, fn func(registry.Event)) {
	c.registry.Subscribe(kind, fn)
}

// Route selects a handler for the request, recording the decision as a span
// and in the dispatch metrics.
func (c *Core) Route(ctx context.Context, req handler.Request, pc handler.ProcessingContext, exclude ...string) (routing.Decision, error) {
	ctx, span := c.tracer.Start(ctx, "dispatch.route",
		trace.WithAttributes(
			attribute.String("request.id", req.ID),
			attribute.String("request.type", req.Type),
		),
	)
	defer span.End()

	start := time.Now()
	d, err := c.router.Route(ctx, req, pc, exclude...)
	elapsed := time.Since(start)

	if err != nil {
		c.metrics.RecordRoute(ctx, "", 0, elapsed, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no handler available")
		return routing.Decision{}, err
	}

	c.metrics.RecordRoute(ctx, d.Name, d.Score.Value, elapsed, nil)
	span.SetAttributes(
		attribute.String("handler.name", d.Name),
		attribute.Float64("score", d.Score.Value),
	)
	return d, nil
}

// RouteAll returns every selectable matching handler ranked by score.
func (c *Core) RouteAll(ctx context.Context, req handler.Request, pc handler.ProcessingContext) []routing.Decision {
	return c.router.RouteAll(ctx, req, pc)
}

// RecordOutcome reports the result of invoking a routed handler, feeding its
// circuit breaker.
func (c *Core) RecordOutcome(name string, success bool) {
	c.router.RecordOutcome(name, success)
}

// ResetBreaker forces the named handler's breaker back to closed.
func (c *Core) ResetBreaker(name string) {
	c.router.ResetBreaker(name)
}

// SetChain installs the fallback chain for a primary handler.
func (c *Core) SetChain(primary string, alternates []string) {
	c.router.Fallbacks().SetChain(primary, alternates)
}

// Chain returns the fallback chain for a primary handler, or nil.
func (c *Core) Chain(primary string) []string {
	return c.router.Fallbacks().Chain(primary)
}

// StartHealthMonitoring launches the background health monitor.
func (c *Core) StartHealthMonitoring() error {
	return c.monitor.Start()
}

// StopHealthMonitoring stops the monitor and waits for the in-flight cycle.
func (c *Core) StopHealthMonitoring() {
	c.monitor.Stop()
}

// CheckHealthNow runs one synchronous probe cycle.
func (c *Core) CheckHealthNow(ctx context.Context) health.Cycle {
	return c.monitor.CheckNow(ctx)
}

// Stats is a merged view over the registry and the router.
type Stats struct {
	// Registry summarizes registrations and their health.
	Registry registry.Stats

	// Router summarizes fallback chains and breaker states.
	Router routing.Stats
}

// Stats returns the merged registry and router statistics.
func (c *Core) Stats() Stats {
	return Stats{
		Registry: c.registry.Stats(),
		Router:   c.router.Stats(),
	}
}

// Close stops health monitoring and shuts down the observer. The Core must
// not be used afterwards.
func (c *Core) Close(ctx context.Context) error {
	c.monitor.Stop()
	if err := c.observer.Shutdown(ctx); err != nil {
		return fmt.Errorf("dispatch: shutdown observer: %w", err)
	}
	return nil
}
