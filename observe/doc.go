// Package observe provides the telemetry surface for the dispatch core:
// structured logging, OpenTelemetry metrics and tracing.
//
// An Observer bundles the three primitives behind one configuration:
//
//	obs, err := observe.NewObserver(ctx, observe.Config{
//	    ServiceName: "cognitive-core",
//	    Version:     "1.0.0",
//	    Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
//	    Logging:     observe.LoggingConfig{Enabled: true, Level: "info"},
//	})
//
// Components accept the Logger and Metrics interfaces individually, so tests
// and embedders that do not want telemetry can pass the Nop variants.
package observe
