package sandbox

// Logger is an optional sink for per-run telemetry. The Executor emits one
// summary line per run: tool-call count, duration, and outcome. A nil Logger
// in the Config disables logging.
//
// Contract:
// - Concurrency: Logf may be called from any number of concurrent runs.
// - Errors: logging is best-effort and must not panic.
type Logger interface {
	// Logf logs a formatted message.
	Logf(format string, args ...any)
}
