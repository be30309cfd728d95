package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/registry"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/resilience"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/routing"
)

func matchType(types ...string) func(context.Context, handler.Request, handler.ProcessingContext) bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return func(_ context.Context, req handler.Request, _ handler.ProcessingContext) bool {
		return set[req.Type]
	}
}

func newTestCore(t *testing.T, opts ...Option) *Core {
	t.Helper()

	core, err := New(opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := core.Close(context.Background()); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return core
}

func registerText(t *testing.T, core *Core, name string, priority int) {
	t.Helper()
	h := handler.NewFunc(name, matchType("text")).
		WithProbe(func(context.Context) (handler.Health, error) {
			return handler.HealthHealthy, nil
		})
	if err := core.Register(h, registry.Options{Priority: priority}); err != nil {
		t.Fatalf("Register(%q) error = %v", name, err)
	}
}

func TestCore_RouteAndOutcome(t *testing.T) {
	core := newTestCore(t, WithBreakerConfig(resilience.Config{Threshold: 2, Cooldown: time.Hour}))
	registerText(t, core, "text_analysis", 10)
	registerText(t, core, "general", 1)

	ctx := context.Background()
	req := handler.Request{ID: "r1", Type: "text"}

	d, err := core.Route(ctx, req, handler.ProcessingContext{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if d.Name != "text_analysis" {
		t.Fatalf("Route() selected %q, want %q", d.Name, "text_analysis")
	}

	// Two failures trip the breaker; routing falls over to the other handler.
	core.RecordOutcome(d.Name, false)
	core.RecordOutcome(d.Name, false)

	d, err = core.Route(ctx, req, handler.ProcessingContext{})
	if err != nil {
		t.Fatalf("Route() after breaker trip error = %v", err)
	}
	if d.Name != "general" {
		t.Errorf("Route() selected %q, want %q", d.Name, "general")
	}

	core.ResetBreaker("text_analysis")
	d, err = core.Route(ctx, req, handler.ProcessingContext{})
	if err != nil {
		t.Fatalf("Route() after reset error = %v", err)
	}
	if d.Name != "text_analysis" {
		t.Errorf("Route() selected %q, want %q", d.Name, "text_analysis")
	}
}

func TestCore_RouteNoHandler(t *testing.T) {
	core := newTestCore(t)
	registerText(t, core, "text_analysis", 10)

	_, err := core.Route(context.Background(), handler.Request{ID: "r1", Type: "audio"}, handler.ProcessingContext{})
	if !errors.Is(err, routing.ErrNoHandler) {
		t.Fatalf("Route() error = %v, want ErrNoHandler", err)
	}
}

func TestCore_UnregisterResetsBreaker(t *testing.T) {
	core := newTestCore(t, WithBreakerConfig(resilience.Config{Threshold: 1, Cooldown: time.Hour}))
	registerText(t, core, "text_analysis", 10)

	core.RecordOutcome("text_analysis", false)
	if open := core.Stats().Router.Open; len(open) != 1 {
		t.Fatalf("Stats().Router.Open = %v, want one open breaker", open)
	}

	if err := core.Unregister("text_analysis"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	// Re-registration starts with a clean breaker.
	registerText(t, core, "text_analysis", 10)
	d, err := core.Route(context.Background(), handler.Request{ID: "r1", Type: "text"}, handler.ProcessingContext{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if d.Name != "text_analysis" {
		t.Errorf("Route() selected %q, want %q", d.Name, "text_analysis")
	}
	if breakers := core.Stats().Router.Breakers; len(breakers) != 0 {
		t.Errorf("Stats().Router.Breakers = %v, want empty after unregister", breakers)
	}
}

func TestCore_EnableDisable(t *testing.T) {
	core := newTestCore(t)
	registerText(t, core, "text_analysis", 10)
	registerText(t, core, "general", 1)

	if err := core.Disable("text_analysis"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	d, err := core.Route(context.Background(), handler.Request{ID: "r1", Type: "text"}, handler.ProcessingContext{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if d.Name != "general" {
		t.Errorf("Route() selected %q, want %q", d.Name, "general")
	}

	if err := core.Enable("text_analysis"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if _, ok := core.Get("text_analysis"); !ok {
		t.Error("Get() after Enable = not found")
	}
}

func TestCore_FallbackChain(t *testing.T) {
	core := newTestCore(t, WithBreakerConfig(resilience.Config{Threshold: 1, Cooldown: time.Hour}))
	registerText(t, core, "text_analysis", 10)

	h := handler.NewFunc("code_analysis", matchType("code"))
	if err := core.Register(h, registry.Options{Priority: 5}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	core.SetChain("text_analysis", []string{"code_analysis"})
	if chain := core.Chain("text_analysis"); len(chain) != 1 || chain[0] != "code_analysis" {
		t.Fatalf("Chain() = %v, want [code_analysis]", chain)
	}

	core.RecordOutcome("text_analysis", false)

	d, err := core.Route(context.Background(), handler.Request{ID: "r1", Type: "text"}, handler.ProcessingContext{})
	if err != nil {
		t.Fatalf("Route() error = %v", err)
	}
	if d.Name != "code_analysis" {
		t.Errorf("Route() selected %q, want fallback %q", d.Name, "code_analysis")
	}
}

func TestCore_HealthMonitoring(t *testing.T) {
	core := newTestCore(t, WithHealthInterval(10*time.Millisecond), WithProbeTimeout(time.Second))
	registerText(t, core, "text_analysis", 10)

	cycle := core.CheckHealthNow(context.Background())
	if len(cycle.Probes) != 1 || cycle.Probes[0].Health != handler.HealthHealthy {
		t.Fatalf("CheckHealthNow() probes = %+v, want one healthy probe", cycle.Probes)
	}

	if err := core.StartHealthMonitoring(); err != nil {
		t.Fatalf("StartHealthMonitoring() error = %v", err)
	}
	core.StopHealthMonitoring()
}

func TestCore_Stats(t *testing.T) {
	core := newTestCore(t, WithBreakerConfig(resilience.Config{Threshold: 1, Cooldown: time.Hour}))
	registerText(t, core, "text_analysis", 10)
	registerText(t, core, "general", 1)
	core.SetChain("text_analysis", []string{"general"})
	core.RecordOutcome("general", false)

	stats := core.Stats()

	if stats.Registry.Total != 2 || stats.Registry.Enabled != 2 {
		t.Errorf("Registry stats = %+v, want 2 total, 2 enabled", stats.Registry)
	}
	if len(stats.Router.Chains) != 1 {
		t.Errorf("Router.Chains = %v, want one chain", stats.Router.Chains)
	}
	if len(stats.Router.Open) != 1 || stats.Router.Open[0] != "general" {
		t.Errorf("Router.Open = %v, want [general]", stats.Router.Open)
	}
}

func TestCore_Events(t *testing.T) {
	core := newTestCore(t)

	events := make(chan registry.Event, 1)
	core.Subscribe(registry.EventRegister, func(ev registry.Event) {
		events <- ev
	})

	registerText(t, core, "text_analysis", 10)

	select {
	case ev := <-events:
		if ev.Name != "text_analysis" {
			t.Errorf("event name = %q, want %q", ev.Name, "text_analysis")
		}
	default:
		t.Fatal("no register event published")
	}
}
