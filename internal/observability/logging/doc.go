// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the fetch engine.
//
// Key features:
//   - JSON and text output formats
//   - Fetch correlation ID propagation
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "fetchcore/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("fetch engine started", slog.String("version", "1.0"))
//	}
//
//	func handleFetch(ctx context.Context) {
//	    logger := logging.WithFetchID(ctx, slog.Default())
//	    logger.Info("processing fetch")
//	}
package logging
