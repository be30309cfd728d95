package resilience

import (
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means outcomes are flowing normally.
	StateClosed State = iota
	// StateOpen means the handler is quarantined until the cooldown elapses.
	StateOpen
	// StateHalfOpen means the cooldown elapsed and a trial is permitted.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config configures a circuit breaker.
type Config struct {
	// Threshold is the number of consecutive failures before opening.
	// Default: 5
	Threshold int

	// Cooldown is how long an open breaker blocks before a half-open
	// trial is allowed. Default: 30 seconds
	Cooldown time.Duration

	// OnStateChange is called when the breaker state changes.
	OnStateChange func(from, to State)

	// now overrides the clock in tests.
	now func() time.Time
}

func (c *Config) applyDefaults() {
	if c.Threshold <= 0 {
		c.Threshold = 5
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.now == nil {
		c.now = time.Now
	}
}

// Breaker tracks consecutive failures for one handler and quarantines it
// once the failure threshold is reached.
//
// The open-to-half-open transition happens at read time: once the cooldown
// has elapsed, the next State or Selectable call moves the breaker to
// half-open. The breaker keeps no in-flight trial count; single-flight
// enforcement during half-open is the caller's concern.
type Breaker struct {
	config Config

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
}

// NewBreaker creates a breaker in the closed state.
func NewBreaker(config Config) *Breaker {
	config.applyDefaults()
	return &Breaker{config: config, state: StateClosed}
}

// RecordOutcome reports the result of one invocation of the handler.
func (b *Breaker) RecordOutcome(success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.currentStateLocked()

	switch b.state {
	case StateClosed:
		if success {
			b.failures = 0
		} else {
			b.failures++
			if b.failures >= b.config.Threshold {
				b.state = StateOpen
				b.openedAt = b.config.now()
			}
		}

	case StateHalfOpen:
		if success {
			b.state = StateClosed
			b.failures = 0
		} else {
			// Failed trial: reopen and restart the cooldown clock.
			b.state = StateOpen
			b.openedAt = b.config.now()
		}

	case StateOpen:
		// Outcome for a request admitted before the breaker opened.
		// A success closes the breaker early; a failure restarts the
		// cooldown.
		if success {
			b.state = StateClosed
			b.failures = 0
		} else {
			b.openedAt = b.config.now()
		}
	}

	b.notifyLocked(old)
}

// State returns the current breaker state, applying the read-time
// open-to-half-open transition.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.state
	s := b.currentStateLocked()
	if old != s {
		b.notifyLocked(old)
	}
	return s
}

// Selectable reports whether the handler may be offered traffic: true in the
// closed and half-open states, false while open within the cooldown.
func (b *Breaker) Selectable() bool {
	return b.State() != StateOpen
}

// Reset forces the breaker back to closed and clears the failure count.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	old := b.state
	b.state = StateClosed
	b.failures = 0
	b.notifyLocked(old)
}

// Metrics is a snapshot of a breaker's state.
type Metrics struct {
	State    State
	Failures int
	OpenedAt time.Time
}

// Metrics returns a snapshot of the breaker state.
func (b *Breaker) Metrics() Metrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return Metrics{
		State:    b.currentStateLocked(),
		Failures: b.failures,
		OpenedAt: b.openedAt,
	}
}

func (b *Breaker) currentStateLocked() State {
	if b.state == StateOpen && b.config.now().Sub(b.openedAt) >= b.config.Cooldown {
		b.state = StateHalfOpen
	}
	return b.state
}

func (b *Breaker) notifyLocked(old State) {
	if old != b.state && b.config.OnStateChange != nil {
		b.config.OnStateChange(old, b.state)
	}
}
