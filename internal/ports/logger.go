package ports

import "context"

// Logger is the leveled logging interface the session service and adapters
// write to. The default implementation lives in internal/adapters/logger;
// tests inject their own.
type Logger interface {
	// Debug logs a message at Debug level.
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	// Info logs a message at Info level.
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	// Warn logs a message at Warning level.
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error logs an error together with a message at Error level.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
