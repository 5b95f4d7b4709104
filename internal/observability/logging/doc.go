// Package logging provides structured logging utilities with context propagation.
//
// Loggers emit JSON through log/slog. Request handlers enrich them with the
// request id and the OpenTelemetry trace id carried on the context:
//
//	logger := logging.NewLogger(cfg.LogLevel)
//	slog.SetDefault(logger)
//
//	func handle(ctx context.Context) {
//	    log := logging.WithTraceID(ctx, logging.WithRequestID(ctx, slog.Default()))
//	    log.Info("processing request")
//	}
package logging
