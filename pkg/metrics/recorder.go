// Package metrics exposes reset detection counters in Prometheus format.
//
// The boot binary is short-lived, so metrics are not scraped over HTTP. They
// are written once per boot to a node_exporter textfile collector directory.
package metrics

// Storage operation labels.
const (
	OpInit   = "init"
	OpGet    = "get"
	OpSet    = "set"
	OpDelete = "delete"
)

// Recorder records reset detection metrics.
type Recorder interface {
	SetStreak(n uint32)
	SetState(state string)
	IncFactoryReset()
	IncWindowExpiry()
	IncStorageError(op string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) SetStreak(uint32)       {}
func (NoopRecorder) SetState(string)        {}
func (NoopRecorder) IncFactoryReset()       {}
func (NoopRecorder) IncWindowExpiry()       {}
func (NoopRecorder) IncStorageError(string) {}

var _ Recorder = NoopRecorder{}
