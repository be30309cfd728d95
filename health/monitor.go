package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/observe"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/registry"
)

// Config configures the health monitor.
type Config struct {
	// Interval is how often a probe cycle runs. Default: 60 seconds
	Interval time.Duration

	// ProbeTimeout bounds each individual probe. Default: 5 seconds
	ProbeTimeout time.Duration

	// MaxConcurrent caps how many probes run at once within a cycle.
	// Default: 0 (unbounded)
	MaxConcurrent int

	// OnChange is called after a cycle for each handler whose health
	// differs from the previous cached value. Optional.
	OnChange func(name string, previous, current handler.Health)

	// Logger receives cycle and probe logs. Default: a no-op logger.
	Logger observe.Logger

	// Metrics receives per-cycle measurements. Default: no-op metrics.
	Metrics observe.Metrics
}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 60 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	if c.Metrics == nil {
		c.Metrics = observe.NopMetrics()
	}
}

// Probe is the outcome of probing one handler.
type Probe struct {
	// Name is the probed handler's registry name.
	Name string

	// Health is the status the probe produced.
	Health handler.Health

	// Previous is the cached status before this probe.
	Previous handler.Health

	// Err is the probe failure, if any. A failed or timed-out probe
	// always yields HealthUnhealthy.
	Err error

	// Duration is how long the probe took.
	Duration time.Duration
}

// Cycle is the outcome of one probe cycle across all enabled handlers.
type Cycle struct {
	// Probes holds one entry per enabled handler, in registry order.
	Probes []Probe

	// Unhealthy counts probes that ended unhealthy.
	Unhealthy int

	// Duration is the wall time of the whole cycle.
	Duration time.Duration
}

// Monitor periodically probes enabled handlers and writes their health back
// into the registry. Handlers that do not implement handler.Prober are
// reported healthy.
//
// The monitor never blocks routing: probes run on their own goroutines and
// only touch the registry through SetHealth, which takes the write lock
// briefly per handler.
type Monitor struct {
	registry *registry.Registry
	config   Config

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor for the given registry.
func NewMonitor(reg *registry.Registry, config Config) *Monitor {
	config.applyDefaults()
	return &Monitor{registry: reg, config: config}
}

// Start launches the background probe loop. The first cycle runs
// immediately, subsequent cycles every Interval. Returns ErrAlreadyStarted
// if the monitor is running.
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		return ErrAlreadyStarted
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.run(ctx, m.done)

	m.config.Logger.Info(ctx, "health monitor started",
		observe.F("interval", m.config.Interval.String()),
		observe.F("probe_timeout", m.config.ProbeTimeout.String()),
	)
	return nil
}

// Stop cancels the probe loop and waits for the in-flight cycle to finish,
// so no probe is still writing into the registry when Stop returns. Stopping
// a monitor that is not running is a no-op.
func (m *Monitor) Stop() {
	m.mu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Running reports whether the background loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		// The loop context governs only the recurrence. Probes are
		// bounded by ProbeTimeout alone, so Stop never cancels an
		// in-flight cycle out from under its handlers.
		m.CheckNow(context.Background())

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// CheckNow runs one probe cycle synchronously: every enabled handler is
// probed concurrently, each bounded by the per-probe timeout, and the
// results are written back into the registry. Safe to call while the
// background loop is running.
func (m *Monitor) CheckNow(ctx context.Context) Cycle {
	start := time.Now()

	regs := m.registry.List(registry.Filter{EnabledOnly: true})

	var g errgroup.Group
	if m.config.MaxConcurrent > 0 {
		g.SetLimit(m.config.MaxConcurrent)
	}

	probes := make([]Probe, len(regs))
	for i, reg := range regs {
		i, reg := i, reg
		g.Go(func() error {
			probes[i] = m.probe(ctx, reg)
			return nil
		})
	}
	_ = g.Wait()

	cycle := Cycle{Probes: probes, Duration: time.Since(start)}
	for _, p := range probes {
		// Swallows names unregistered mid-cycle.
		m.registry.SetHealth(p.Name, p.Health)

		if p.Health != p.Previous && m.config.OnChange != nil {
			m.config.OnChange(p.Name, p.Previous, p.Health)
		}
		if p.Health == handler.HealthUnhealthy {
			cycle.Unhealthy++
			m.config.Logger.Warn(ctx, "handler probe unhealthy",
				observe.F("handler.name", p.Name),
				observe.F("error", fmt.Sprint(p.Err)),
			)
		}
	}

	m.config.Metrics.RecordHealthCycle(ctx, cycle.Duration, len(probes), cycle.Unhealthy)
	m.config.Logger.Debug(ctx, "health cycle complete",
		observe.F("probed", len(probes)),
		observe.F("unhealthy", cycle.Unhealthy),
		observe.F("duration", cycle.Duration.String()),
	)
	return cycle
}

func (m *Monitor) probe(ctx context.Context, reg registry.Registration) Probe {
	p := Probe{Name: reg.Name, Previous: reg.Health}

	prober, ok := reg.Handler.(handler.Prober)
	if !ok {
		p.Health = handler.HealthHealthy
		return p
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.ProbeTimeout)
	defer cancel()

	start := time.Now()
	health, err := runProbe(ctx, prober)
	p.Duration = time.Since(start)

	if err != nil {
		p.Health = handler.HealthUnhealthy
		p.Err = err
		return p
	}
	p.Health = health
	return p
}

type probeResult struct {
	health handler.Health
	err    error
}

// runProbe invokes the probe on its own goroutine so a probe that ignores
// its context cannot stall the cycle past the timeout. Probe panics are
// contained and reported as unhealthy.
func runProbe(ctx context.Context, prober handler.Prober) (handler.Health, error) {
	ch := make(chan probeResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- probeResult{health: handler.HealthUnhealthy, err: fmt.Errorf("health: probe panic: %v", r)}
			}
		}()
		health, err := prober.HealthProbe(ctx)
		ch <- probeResult{health: health, err: err}
	}()

	select {
	case res := <-ch:
		return res.health, res.err
	case <-ctx.Done():
		return handler.HealthUnhealthy, ErrProbeTimeout
	}
}
