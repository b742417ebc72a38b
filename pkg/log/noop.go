package log

// NoopLogger discards every entry.
type NoopLogger struct{}

// NewNoopLogger returns a logger that discards every entry.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}

func (n *NoopLogger) With(...Field) Logger { return n }

var _ Logger = (*NoopLogger)(nil)
