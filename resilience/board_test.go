package resilience

import (
	"sync"
	"testing"
	"time"
)

func TestBoard_LazyCreation(t *testing.T) {
	bd := NewBoard(Config{Threshold: 2, Cooldown: time.Minute})

	// Names never reported are closed.
	if bd.State("ghost") != StateClosed {
		t.Errorf("State(ghost) = %v, want closed", bd.State("ghost"))
	}
	if !bd.Selectable("ghost") {
		t.Error("Selectable(ghost) = false, want true")
	}
	if got := len(bd.Snapshot()); got != 0 {
		t.Errorf("Snapshot() has %d entries, want 0 (State must not create breakers)", got)
	}

	bd.RecordOutcome("text", false)
	if got := len(bd.Snapshot()); got != 1 {
		t.Errorf("Snapshot() has %d entries, want 1", got)
	}
}

func TestBoard_IndependentBreakers(t *testing.T) {
	bd := NewBoard(Config{Threshold: 2, Cooldown: time.Minute})

	bd.RecordOutcome("a", false)
	bd.RecordOutcome("a", false)
	bd.RecordOutcome("b", false)

	if bd.State("a") != StateOpen {
		t.Errorf("State(a) = %v, want open", bd.State("a"))
	}
	if bd.State("b") != StateClosed {
		t.Errorf("State(b) = %v, want closed (breakers are per-name)", bd.State("b"))
	}
}

func TestBoard_Remove(t *testing.T) {
	bd := NewBoard(Config{Threshold: 1, Cooldown: time.Hour})

	bd.RecordOutcome("text", false)
	if bd.State("text") != StateOpen {
		t.Fatalf("State = %v, want open", bd.State("text"))
	}

	bd.Remove("text")

	// A re-registered handler starts with a clean breaker.
	if bd.State("text") != StateClosed {
		t.Errorf("State after Remove = %v, want closed", bd.State("text"))
	}
}

func TestBoard_Reset(t *testing.T) {
	bd := NewBoard(Config{Threshold: 1, Cooldown: time.Hour})

	bd.RecordOutcome("text", false)
	bd.Reset("text")

	if bd.State("text") != StateClosed {
		t.Errorf("State after Reset = %v, want closed", bd.State("text"))
	}

	// Reset of an untracked name is a no-op.
	bd.Reset("ghost")
}

func TestBoard_OnStateChange(t *testing.T) {
	bd := NewBoard(Config{Threshold: 1, Cooldown: time.Hour})

	var mu sync.Mutex
	changes := make(map[string][]State)
	bd.OnStateChange(func(name string, from, to State) {
		mu.Lock()
		changes[name] = append(changes[name], to)
		mu.Unlock()
	})

	bd.RecordOutcome("a", false)
	bd.RecordOutcome("b", true)

	mu.Lock()
	defer mu.Unlock()
	if got := changes["a"]; len(got) != 1 || got[0] != StateOpen {
		t.Errorf("changes[a] = %v, want [open]", got)
	}
	if got := changes["b"]; len(got) != 0 {
		t.Errorf("changes[b] = %v, want none", got)
	}
}

func TestBoard_ConcurrentNames(t *testing.T) {
	bd := NewBoard(Config{Threshold: 100000, Cooldown: time.Hour})

	names := []string{"a", "b", "c", "d"}
	var wg sync.WaitGroup
	for _, name := range names {
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func(name string) {
				defer wg.Done()
				for j := 0; j < 500; j++ {
					bd.RecordOutcome(name, false)
				}
			}(name)
		}
	}
	wg.Wait()

	snap := bd.Snapshot()
	for _, name := range names {
		if snap[name].Failures != 2000 {
			t.Errorf("Failures[%s] = %d, want 2000", name, snap[name].Failures)
		}
	}
}
