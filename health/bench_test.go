package health

import (
	"context"
	"fmt"
	"testing"

	"github.com/Blackmvmba88/blackmamba-cognitive-core/handler"
	"github.com/Blackmvmba88/blackmamba-cognitive-core/registry"
)

// BenchmarkMonitor_CheckNow measures a full probe cycle over 16 handlers.
func BenchmarkMonitor_CheckNow(b *testing.B) {
	reg := registry.New()
	for i := 0; i < 16; i++ {
		h := handler.NewFunc(fmt.Sprintf("handler_%d", i), matchAll).
			WithProbe(staticProbeB(handler.HealthHealthy))
		if err := reg.Register(h, registry.Options{}); err != nil {
			b.Fatalf("Register() error = %v", err)
		}
	}

	mon := NewMonitor(reg, Config{})
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		mon.CheckNow(ctx)
	}
}

func staticProbeB(health handler.Health) func(context.Context) (handler.Health, error) {
	return func(context.Context) (handler.Health, error) {
		return health, nil
	}
}
