// Package middleware provides observability middleware for domsync
// reconciliation passes.
//
// Both middlewares wrap a morph.PassFunc and are installed with
// morph.WithMiddleware. The first middleware given is outermost.
//
// # OpenTelemetry Middleware
//
// Every pass gets a "domsync.reconcile" span carrying the host range kind and,
// once the pass ends, its statistics. Failed passes record the error and its
// domsync code.
//
//	r := morph.New(morph.WithMiddleware(
//	    middleware.OpenTelemetry(middleware.WithTracerName("preview")),
//	))
//
// # Prometheus Metrics
//
// The Prometheus middleware counts passes, mutations by kind and errors by
// code, and observes pass duration:
//
//	reg := prometheus.NewRegistry()
//	r := morph.New(morph.WithMiddleware(
//	    middleware.Prometheus(middleware.WithRegistry(reg)),
//	))
//
// Then expose the registry:
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package middleware
