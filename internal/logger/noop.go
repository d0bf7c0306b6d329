package logger

// NewNoop returns a logger that discards everything. Used in tests.
func NewNoop() Interface { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) Debug(string, ...Field) {}
func (noopLogger) Info(string, ...Field)  {}
func (noopLogger) Warn(string, ...Field)  {}
func (noopLogger) Error(string, ...Field) {}
func (noopLogger) Fatal(string, ...Field) {}
func (noopLogger) With(...Field) Interface {
	return noopLogger{}
}
func (noopLogger) Sync() error { return nil }
