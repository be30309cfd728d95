package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
)

func acceptAll(ctx context.Context, req handler.Request, pc handler.ProcessingContext) bool {
	return true
}

func TestRegistry_Register(t *testing.T) {
	r := New()

	err := r.Register(handler.NewFunc("text", acceptAll), Options{Priority: 5})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	reg, ok := r.Info("text")
	if !ok {
		t.Fatal("Info() after Register = not found")
	}
	if !reg.Enabled {
		t.Error("Enabled = false, want true")
	}
	if reg.Health != handler.HealthUnknown {
		t.Errorf("Health = %v, want unknown", reg.Health)
	}
	if reg.Priority != 5 {
		t.Errorf("Priority = %d, want 5", reg.Priority)
	}
	if reg.Version != "1.0.0" {
		t.Errorf("Version = %q, want default 1.0.0", reg.Version)
	}
	if reg.Seq == 0 {
		t.Error("Seq = 0, want monotonic sequence")
	}
}

func TestRegistry_Register_Duplicate(t *testing.T) {
	r := New()

	if err := r.Register(handler.NewFunc("text", acceptAll), Options{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	err := r.Register(handler.NewFunc("text", acceptAll), Options{})
	if !errors.Is(err, ErrDuplicateName) {
		t.Errorf("Register() duplicate error = %v, want ErrDuplicateName", err)
	}
}

func TestRegistry_Register_MissingDependency(t *testing.T) {
	r := New()

	err := r.Register(handler.NewFunc("dependent", acceptAll), Options{
		Dependencies: []string{"base"},
	})
	if !errors.Is(err, ErrMissingDependency) {
		t.Errorf("Register() error = %v, want ErrMissingDependency", err)
	}

	// Satisfy the dependency and retry.
	if err := r.Register(handler.NewFunc("base", acceptAll), Options{}); err != nil {
		t.Fatalf("Register(base) error = %v", err)
	}
	err = r.Register(handler.NewFunc("dependent", acceptAll), Options{
		Dependencies: []string{"base"},
	})
	if err != nil {
		t.Errorf("Register() with satisfied dependency error = %v", err)
	}
}

func TestRegistry_Register_Invalid(t *testing.T) {
	r := New()

	if err := r.Register(nil, Options{}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Register(nil) error = %v, want ErrInvalidName", err)
	}
	if err := r.Register(handler.NewFunc("", acceptAll), Options{}); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Register(empty name) error = %v, want ErrInvalidName", err)
	}
	if err := r.Register(handler.NewFunc("neg", acceptAll), Options{Priority: -1}); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("Register(priority=-1) error = %v, want ErrInvalidPriority", err)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := New()

	if err := r.Register(handler.NewFunc("text", acceptAll), Options{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Unregister("text"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	if _, ok := r.Info("text"); ok {
		t.Error("Info() after Unregister = found, want absent")
	}
	if got := len(r.List(Filter{})); got != 0 {
		t.Errorf("List() after Unregister has %d entries, want 0", got)
	}
}

func TestRegistry_Unregister_Unknown(t *testing.T) {
	r := New()

	if err := r.Unregister("ghost"); !errors.Is(err, ErrUnknownHandler) {
		t.Errorf("Unregister() error = %v, want ErrUnknownHandler", err)
	}
}

func TestRegistry_EnableDisable(t *testing.T) {
	r := New()

	if err := r.Register(handler.NewFunc("text", acceptAll), Options{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	r.SetHealth("text", handler.HealthHealthy)

	if err := r.Disable("text"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if _, ok := r.Get("text"); ok {
		t.Error("Get() on disabled handler = found, want absent")
	}
	if got := len(r.List(Filter{EnabledOnly: true})); got != 0 {
		t.Errorf("List(enabled) has %d entries, want 0", got)
	}

	// Disabling must not touch health.
	reg, _ := r.Info("text")
	if reg.Health != handler.HealthHealthy {
		t.Errorf("Health after Disable = %v, want healthy", reg.Health)
	}

	if err := r.Enable("text"); err != nil {
		t.Fatalf("Enable() error = %v", err)
	}
	if _, ok := r.Get("text"); !ok {
		t.Error("Get() after Enable = absent, want found")
	}

	if err := r.Enable("ghost"); !errors.Is(err, ErrUnknownHandler) {
		t.Errorf("Enable(ghost) error = %v, want ErrUnknownHandler", err)
	}
}

func TestRegistry_SetHealth(t *testing.T) {
	r := New()

	if err := r.Register(handler.NewFunc("text", acceptAll), Options{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	r.SetHealth("text", handler.HealthDegraded)

	reg, _ := r.Info("text")
	if reg.Health != handler.HealthDegraded {
		t.Errorf("Health = %v, want degraded", reg.Health)
	}
	if reg.LastProbe.IsZero() {
		t.Error("LastProbe = zero, want set")
	}

	// Unknown names are swallowed: the registration may have been removed
	// while a probe was in flight.
	r.SetHealth("ghost", handler.HealthHealthy)
}

func TestRegistry_List_Ordering(t *testing.T) {
	r := New()

	names := []struct {
		name     string
		priority int
	}{
		{"low", 1},
		{"high", 10},
		{"mid_a", 5},
		{"mid_b", 5},
	}
	for _, n := range names {
		if err := r.Register(handler.NewFunc(n.name, acceptAll), Options{Priority: n.priority}); err != nil {
			t.Fatalf("Register(%s) error = %v", n.name, err)
		}
	}

	got := r.Names(false)
	want := []string{"high", "mid_a", "mid_b", "low"}
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q (priority desc, seq asc)", i, got[i], want[i])
		}
	}
}

func TestRegistry_List_HealthFilter(t *testing.T) {
	r := New()

	for _, name := range []string{"a", "b", "c"} {
		if err := r.Register(handler.NewFunc(name, acceptAll), Options{}); err != nil {
			t.Fatalf("Register(%s) error = %v", name, err)
		}
	}
	r.SetHealth("a", handler.HealthHealthy)
	r.SetHealth("b", handler.HealthUnhealthy)

	unhealthy := handler.HealthUnhealthy
	got := r.List(Filter{Health: &unhealthy})
	if len(got) != 1 || got[0].Name != "b" {
		t.Errorf("List(unhealthy) = %v, want [b]", got)
	}
}

func TestRegistry_Stats(t *testing.T) {
	r := New()

	if err := r.Register(handler.NewFunc("a", acceptAll), Options{Priority: 3, Version: "2.1.0"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(handler.NewFunc("b", acceptAll), Options{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	r.SetHealth("a", handler.HealthHealthy)
	if err := r.Disable("b"); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}

	stats := r.Stats()
	if stats.Total != 2 {
		t.Errorf("Total = %d, want 2", stats.Total)
	}
	if stats.Enabled != 1 {
		t.Errorf("Enabled = %d, want 1", stats.Enabled)
	}
	if stats.Health["healthy"] != 1 || stats.Health["unknown"] != 1 {
		t.Errorf("Health histogram = %v, want healthy:1 unknown:1", stats.Health)
	}
	if hs := stats.Handlers["a"]; hs.Version != "2.1.0" || hs.Priority != 3 {
		t.Errorf("Handlers[a] = %+v, want version 2.1.0, priority 3", hs)
	}
}

func TestRegistry_Events(t *testing.T) {
	r := New()

	var mu sync.Mutex
	var events []Event
	for _, kind := range []EventKind{EventRegister, EventUnregister, EventHealthChange} {
		r.Subscribe(kind, func(ev Event) {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		})
	}
	// A panicking subscriber must not affect the registry or other subscribers.
	r.Subscribe(EventRegister, func(ev Event) { panic("subscriber bug") })

	if err := r.Register(handler.NewFunc("text", acceptAll), Options{}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	r.SetHealth("text", handler.HealthHealthy)
	r.SetHealth("text", handler.HealthHealthy) // no change, no event
	if err := r.Unregister("text"); err != nil {
		t.Fatalf("Unregister() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()

	if len(events) != 3 {
		t.Fatalf("got %d events, want 3: %v", len(events), events)
	}
	if events[0].Kind != EventRegister || events[0].Name != "text" {
		t.Errorf("events[0] = %+v, want register/text", events[0])
	}
	if events[1].Kind != EventHealthChange || events[1].Previous != handler.HealthUnknown {
		t.Errorf("events[1] = %+v, want health_change from unknown", events[1])
	}
	if events[2].Kind != EventUnregister {
		t.Errorf("events[2] = %+v, want unregister", events[2])
	}
}

func TestRegistry_ConcurrentRegister(t *testing.T) {
	r := New()

	const n = 64
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("handler-%d", i)
			if err := r.Register(handler.NewFunc(name, acceptAll), Options{Priority: i % 7}); err != nil {
				t.Errorf("Register(%s) error = %v", name, err)
			}
		}(i)
	}
	wg.Wait()

	if got := r.Len(); got != n {
		t.Errorf("Len() = %d, want %d (no lost updates)", got, n)
	}

	// Sequence numbers must be unique.
	seen := make(map[uint64]string)
	for _, reg := range r.List(Filter{}) {
		if prev, dup := seen[reg.Seq]; dup {
			t.Errorf("Seq %d assigned to both %q and %q", reg.Seq, prev, reg.Name)
		}
		seen[reg.Seq] = reg.Name
	}
}

func TestRegistry_ConcurrentReadWrite(t *testing.T) {
	r := New()

	for i := 0; i < 8; i++ {
		if err := r.Register(handler.NewFunc(fmt.Sprintf("h%d", i), acceptAll), Options{}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
				r.SetHealth("h3", handler.HealthHealthy)
				r.SetHealth("h3", handler.HealthDegraded)
			}
		}
	}()

	for i := 0; i < 1000; i++ {
		regs := r.List(Filter{EnabledOnly: true})
		if len(regs) != 8 {
			t.Errorf("List() = %d entries, want 8", len(regs))
			break
		}
	}

	close(done)
	wg.Wait()
}
