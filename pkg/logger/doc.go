// Package logger builds the service's slog.Logger.
//
// Records logged with a context pick up request-scoped attributes through extractors,
// so tenant, principal and request ids appear on every line without being passed around:
//
//	log := logger.New(append(logger.FromConfig(cfg),
//		logger.WithContextExtractors(
//			tenant.LoggerExtractor(),
//			auth.LoggerExtractor(),
//			requestid.LoggerExtractor(),
//		))...)
package logger
