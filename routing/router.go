package routing

import (
	"context"
	"sort"

	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/observe"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/registry"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/resilience"
)

// Config configures a Router.
type Config struct {
	// Strategy ranks candidates. Default: DefaultStrategy
	Strategy Strategy

	// Board holds the per-handler circuit breakers consulted during
	// selection. Default: a new board with default breaker config.
	Board *resilience.Board

	// Fallbacks resolves fallback chains. Default: an empty resolver.
	Fallbacks *Fallbacks

	// Logger receives routing decisions. Default: a no-op logger.
	Logger observe.Logger
}

// Decision is the outcome of a successful routing call.
type Decision struct {
	// Name is the selected handler's registry name.
	Name string

	// Handler is the selected handler.
	Handler handler.Handler

	// Score explains the ranking of the winner.
	Score Score
}

// Router selects the best available handler for a request, or fails with a
// NoHandlerError naming every candidate it turned down.
//
// Route is a pure function of the registry and breaker snapshot at call
// time: two calls with no intervening mutations return the same winner. No
// lock is held across scoring beyond the read locks taken for the snapshot.
type Router struct {
	registry  *registry.Registry
	strategy  Strategy
	board     *resilience.Board
	fallbacks *Fallbacks
	logger    observe.Logger
}

// NewRouter creates a router over the given registry. Unregistering a
// handler discards its circuit breaker, so re-registering the same name
// starts with a clean one.
func NewRouter(reg *registry.Registry, cfg Config) *Router {
	if cfg.Strategy == nil {
		cfg.Strategy = DefaultStrategy{}
	}
	if cfg.Board == nil {
		cfg.Board = resilience.NewBoard(resilience.Config{})
	}
	if cfg.Fallbacks == nil {
		cfg.Fallbacks = NewFallbacks()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}

	r := &Router{
		registry:  reg,
		strategy:  cfg.Strategy,
		board:     cfg.Board,
		fallbacks: cfg.Fallbacks,
		logger:    cfg.Logger,
	}
	reg.Subscribe(registry.EventUnregister, func(ev registry.Event) {
		r.board.Remove(ev.Name)
	})
	return r
}

// candidate pairs a registration with its score during one decision.
type candidate struct {
	reg   registry.Registration
	score Score
}

// better reports whether a beats b: higher score wins, earlier registration
// breaks ties.
func (a candidate) better(b candidate) bool {
	if a.score.Value != b.score.Value {
		return a.score.Value > b.score.Value
	}
	return a.reg.Seq < b.reg.Seq
}

// Route selects a handler for the request. Handlers named in exclude are
// skipped entirely.
//
// When no matching candidate is selectable, the fallback chain of the
// top-scored unavailable candidate (disabled or quarantined, but matching)
// is walked in order. A chain entry is an explicit statement that the
// alternate may stand in for the primary, so an alternate is promoted when
// it is registered, enabled and selectable; its own CanHandle is not
// consulted.
//
// On failure the returned error is a *NoHandlerError wrapping ErrNoHandler.
func (r *Router) Route(ctx context.Context, req handler.Request, pc handler.ProcessingContext, exclude ...string) (Decision, error) {
	excluded := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		excluded[name] = struct{}{}
	}

	var rejections []Rejection
	reject := func(name string, reason RejectReason) {
		rejections = append(rejections, Rejection{Name: name, Reason: reason})
	}

	// candidates can be selected directly; anchors matched the request but
	// are unavailable, so their fallback chains are in play.
	var candidates, anchors []registry.Registration
	for _, reg := range r.registry.List(registry.Filter{}) {
		if _, skip := excluded[reg.Name]; skip {
			reject(reg.Name, ReasonExcluded)
			continue
		}
		if !reg.Enabled {
			reject(reg.Name, ReasonDisabled)
			if reg.Handler.CanHandle(ctx, req, pc) {
				anchors = append(anchors, reg)
			}
			continue
		}
		if !reg.Handler.CanHandle(ctx, req, pc) {
			reject(reg.Name, ReasonNoMatch)
			continue
		}
		if !r.board.Selectable(reg.Name) {
			reject(reg.Name, ReasonBreakerOpen)
			anchors = append(anchors, reg)
			continue
		}
		candidates = append(candidates, reg)
	}

	if best := pick(candidates, r.strategy); best != nil {
		r.logger.Debug(ctx, "routed request",
			observe.F("request.id", req.ID),
			observe.F("handler.name", best.reg.Name),
			observe.F("score", best.score.Value),
		)
		return Decision{Name: best.reg.Name, Handler: best.reg.Handler, Score: best.score}, nil
	}

	// Nothing selectable. Walk the would-be winner's fallback chain and
	// promote the first alternate that resolves.
	if primary := pick(anchors, r.strategy); primary != nil {
		excluded[primary.reg.Name] = struct{}{}
		for _, alt := range r.fallbacks.Chain(primary.reg.Name) {
			if _, skip := excluded[alt]; skip {
				continue
			}
			excluded[alt] = struct{}{}

			d, rejection, ok := r.promote(alt)
			if ok {
				r.logger.Info(ctx, "routed request via fallback",
					observe.F("request.id", req.ID),
					observe.F("primary", primary.reg.Name),
					observe.F("handler.name", d.Name),
				)
				return d, nil
			}
			rejections = append(rejections, rejection)
		}
	}

	err := &NoHandlerError{RequestID: req.ID, Rejections: rejections}
	r.logger.Warn(ctx, "no handler available",
		observe.F("request.id", req.ID),
		observe.F("request.type", req.Type),
		observe.F("rejected", len(rejections)),
	)
	return Decision{}, err
}

// pick scores regs against their own max priority and returns the best, or
// nil for an empty slice.
func pick(regs []registry.Registration, strategy Strategy) *candidate {
	maxPriority := 0
	for _, reg := range regs {
		if reg.Priority > maxPriority {
			maxPriority = reg.Priority
		}
	}

	var best *candidate
	for _, reg := range regs {
		c := candidate{reg: reg, score: strategy.Score(reg, maxPriority)}
		if best == nil || c.better(*best) {
			b := c
			best = &b
		}
	}
	return best
}

// promote evaluates one fallback alternate: it must be registered, enabled
// and have a selectable breaker.
func (r *Router) promote(name string) (Decision, Rejection, bool) {
	reg, ok := r.registry.Info(name)
	if !ok {
		return Decision{}, Rejection{Name: name, Reason: ReasonNotRegistered}, false
	}
	if !reg.Enabled {
		return Decision{}, Rejection{Name: name, Reason: ReasonDisabled}, false
	}
	if !r.board.Selectable(name) {
		return Decision{}, Rejection{Name: name, Reason: ReasonBreakerOpen}, false
	}

	score := r.strategy.Score(reg, reg.Priority)
	return Decision{Name: reg.Name, Handler: reg.Handler, Score: score}, Rejection{}, true
}

// RouteAll returns every enabled, matching, selectable handler ranked by
// score descending, earliest registration first on ties.
func (r *Router) RouteAll(ctx context.Context, req handler.Request, pc handler.ProcessingContext) []Decision {
	var matching []registry.Registration
	maxPriority := 0
	for _, reg := range r.registry.List(registry.Filter{EnabledOnly: true}) {
		if !reg.Handler.CanHandle(ctx, req, pc) {
			continue
		}
		if !r.board.Selectable(reg.Name) {
			continue
		}
		matching = append(matching, reg)
		if reg.Priority > maxPriority {
			maxPriority = reg.Priority
		}
	}

	candidates := make([]candidate, len(matching))
	for i, reg := range matching {
		candidates[i] = candidate{reg: reg, score: r.strategy.Score(reg, maxPriority)}
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].better(candidates[j])
	})

	out := make([]Decision, len(candidates))
	for i, c := range candidates {
		out[i] = Decision{Name: c.reg.Name, Handler: c.reg.Handler, Score: c.score}
	}
	return out
}

// RecordOutcome reports the result of invoking a previously routed handler.
// It feeds the handler's circuit breaker and is a no-op for names that are
// no longer registered.
func (r *Router) RecordOutcome(name string, success bool) {
	if _, ok := r.registry.Info(name); !ok {
		return
	}
	r.board.RecordOutcome(name, success)
}

// ResetBreaker forces the named handler's circuit breaker back to closed.
func (r *Router) ResetBreaker(name string) {
	r.board.Reset(name)
}

// Fallbacks returns the router's fallback chain resolver.
func (r *Router) Fallbacks() *Fallbacks {
	return r.fallbacks
}

// Stats summarizes the router state.
type Stats struct {
	// Chains is a snapshot of the configured fallback chains.
	Chains map[string][]string

	// Breakers maps handler name to current breaker state.
	Breakers map[string]string

	// Open lists handlers currently quarantined by their breaker.
	Open []string
}

// Stats returns a summary of the router state.
func (r *Router) Stats() Stats {
	snap := r.board.Snapshot()

	stats := Stats{
		Chains:   r.fallbacks.Chains(),
		Breakers: make(map[string]string, len(snap)),
	}
	for name, m := range snap {
		stats.Breakers[name] = m.State.String()
		if m.State == resilience.StateOpen {
			stats.Open = append(stats.Open, name)
		}
	}
	sort.Strings(stats.Open)
	return stats
}
