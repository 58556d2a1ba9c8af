package journal

// Logger receives journal events. Implementations must be safe for
// concurrent use: the window timer logs from its own goroutine.
type Logger interface {
	Log(event Event)
}

// NoopLogger discards all events. It is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
