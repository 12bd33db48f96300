// Package httpserver runs an http.Handler with graceful shutdown on context
// cancellation or SIGINT/SIGTERM.
//
// # Usage
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// HealthCheckHandler builds liveness (no checks) and readiness (one or more
// checks, e.g. a Redis ping) probes.
//
// # Errors
//
// Run wraps listen and serve failures with ErrStart; Shutdown wraps
// http.Server.Shutdown failures with ErrShutdown.
package httpserver
