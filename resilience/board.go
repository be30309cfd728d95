package resilience

import (
	"sync"
)

// Board holds one circuit breaker per handler name, created lazily on the
// first outcome report or state inspection for that name.
//
// Breaker state is sharded per name: updates for different handlers contend
// only on the board's map lookup, never on each other's breaker lock.
type Board struct {
	config   Config
	onChange func(name string, from, to State)

	mu       sync.RWMutex
	breakers map[string]*Breaker
}

// NewBoard creates an empty breaker board. Every breaker it creates shares
// the given config.
func NewBoard(config Config) *Board {
	config.applyDefaults()
	return &Board{
		config:   config,
		breakers: make(map[string]*Breaker),
	}
}

// OnStateChange registers a hook invoked with the handler name whenever any
// breaker on the board changes state. Must be set before the first outcome
// is reported; it composes with the per-breaker hook in the board config.
func (bd *Board) OnStateChange(fn func(name string, from, to State)) {
	bd.mu.Lock()
	bd.onChange = fn
	bd.mu.Unlock()
}

// RecordOutcome reports an invocation outcome for the named handler,
// creating its breaker on first use.
func (bd *Board) RecordOutcome(name string, success bool) {
	bd.breaker(name).RecordOutcome(success)
}

// State returns the current breaker state for the named handler. Names that
// never reported an outcome are closed.
func (bd *Board) State(name string) State {
	bd.mu.RLock()
	b, ok := bd.breakers[name]
	bd.mu.RUnlock()
	if !ok {
		return StateClosed
	}
	return b.State()
}

// Selectable reports whether the named handler may be offered traffic.
func (bd *Board) Selectable(name string) bool {
	return bd.State(name) != StateOpen
}

// Reset forces the named handler's breaker back to closed. No-op for names
// without a breaker.
func (bd *Board) Reset(name string) {
	bd.mu.RLock()
	b, ok := bd.breakers[name]
	bd.mu.RUnlock()
	if ok {
		b.Reset()
	}
}

// Remove discards the breaker for the named handler. Called when the handler
// is unregistered so a re-registration starts with a clean breaker.
func (bd *Board) Remove(name string) {
	bd.mu.Lock()
	delete(bd.breakers, name)
	bd.mu.Unlock()
}

// Snapshot returns the current state of every tracked breaker.
func (bd *Board) Snapshot() map[string]Metrics {
	bd.mu.RLock()
	breakers := make(map[string]*Breaker, len(bd.breakers))
	for name, b := range bd.breakers {
		breakers[name] = b
	}
	bd.mu.RUnlock()

	out := make(map[string]Metrics, len(breakers))
	for name, b := range breakers {
		out[name] = b.Metrics()
	}
	return out
}

func (bd *Board) breaker(name string) *Breaker {
	bd.mu.RLock()
	b, ok := bd.breakers[name]
	bd.mu.RUnlock()
	if ok {
		return b
	}

	bd.mu.Lock()
	defer bd.mu.Unlock()
	if b, ok := bd.breakers[name]; ok {
		return b
	}

	cfg := bd.config
	if bd.onChange != nil {
		onChange := bd.onChange
		perBreaker := cfg.OnStateChange
		cfg.OnStateChange = func(from, to State) {
			if perBreaker != nil {
				perBreaker(from, to)
			}
			onChange(name, from, to)
		}
	}
	b = NewBreaker(cfg)
	bd.breakers[name] = b
	return b
}
