package core

// Logger is implemented by the logging services (services/logger).
// Implementations may inspect args for well-known types (errors, the
// authenticated school) to enrich reports.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
