// Package logger builds the process logger on top of log/slog.
//
//   - logger.go: handler selection (text or JSON), shared dynamic level
//   - context.go: carrying a logger in a context, enriched with request IDs
//   - redact.go: masking of credentials in attributes and logged URIs
package logger
