package config

// Logger provides structured logging for lgwheel operations.
// *log.Logger from github.com/charmbracelet/log satisfies it.
type Logger interface {
	// Debug logs debug-level messages with optional key-value pairs.
	Debug(msg interface{}, keyvals ...interface{})

	// Info logs info-level messages with optional key-value pairs.
	Info(msg interface{}, keyvals ...interface{})

	// Warn logs warning-level messages with optional key-value pairs.
	Warn(msg interface{}, keyvals ...interface{})

	// Error logs error-level messages with optional key-value pairs.
	Error(msg interface{}, keyvals ...interface{})
}

// noopLogger is a Logger implementation that does nothing.
type noopLogger struct{}

func (n *noopLogger) Debug(msg interface{}, keyvals ...interface{}) {}
func (n *noopLogger) Info(msg interface{}, keyvals ...interface{})  {}
func (n *noopLogger) Warn(msg interface{}, keyvals ...interface{})  {}
func (n *noopLogger) Error(msg interface{}, keyvals ...interface{}) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return &noopLogger{}
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return NopLogger()
	}
	return l
}
