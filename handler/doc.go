// Package handler defines the contract between the dispatch core and the
// pluggable request handlers registered with it.
//
// A handler is any value implementing the Handler interface. The core never
// invokes a handler's actual processing logic; it only asks CanHandle to
// decide which handler a request should be dispatched to. Handlers that
// additionally implement Prober participate in periodic health probing;
// handlers that do not are treated as always healthy.
//
// # Usage
//
//	h := handler.NewFunc("text_analysis", func(ctx context.Context, req handler.Request, pc handler.ProcessingContext) bool {
//	    return req.Type == "text"
//	}).WithProbe(func(ctx context.Context) (handler.Health, error) {
//	    return handler.HealthHealthy, nil
//	})
package handler
