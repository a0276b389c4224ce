// Package requestid tags every HTTP request with a correlation id.
//
// Middleware keeps a client-supplied X-Request-ID when it is at most 128
// characters of [a-zA-Z0-9_-], otherwise it generates a UUIDv7. The id is
// stored in the request context and echoed in the response header.
// LoggerExtractor plugs into logger.WithContextExtractors so log records
// written with the request context carry request_id.
//
//	log := logger.New(logger.WithContextExtractors(requestid.LoggerExtractor()))
//	r.Use(requestid.Middleware)
package requestid
