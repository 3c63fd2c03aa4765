// Package httpserver runs the API's http.Server with context-driven graceful
// shutdown and exposes liveness and readiness handlers.
//
// Signal handling belongs to the caller: cancel the context passed to Run
// (for example with signal.NotifyContext) and the server drains in-flight
// requests within Config.ShutdownTimeout.
//
//	srv := httpserver.New(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
