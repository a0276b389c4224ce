// Package logger builds *slog.Logger instances for the session service and
// provides attribute helpers so field names stay consistent across packages.
//
// New takes functional options (format, level, output, static attributes,
// context extractors); NewFromConfig reads the same settings from a Config
// populated from the environment (SERVICE_NAME, APP_ENV, LOG_LEVEL,
// LOG_FORMAT). Every logger is wrapped in LogHandlerDecorator, which runs the
// registered ContextExtractor callbacks on each record, e.g. to add the request
// id stored in the context by the requestid middleware.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment("production", "sessiond"),
//	    logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.WarnContext(ctx, "session store is unable to reach the backend",
//	    logger.Component("session"),
//	    logger.Operation("find"),
//	    logger.Error(err),
//	)
//
// Error, Errors, SessionID and RequestID return an empty attribute for nil
// input, so they can be passed without a nil check.
package logger
