package metrics

import (
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
)

// States reported by the state gauge.
var States = []string{"IDLE", "COUNTING", "RESET_TRIGGERED", "DISABLED", "SKIPPED"}

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	mu       sync.Mutex
	reg      *prom.Registry
	streak   prom.Gauge
	resets   prom.Counter
	expiries prom.Counter
	storage  *prom.CounterVec
	state    *prom.GaugeVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg. A nil
// reg creates a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		streak: prom.NewGauge(prom.GaugeOpts{
			Namespace: "quickreset",
			Name:      "reboot_streak",
			Help:      "Quick reboot counter value computed for the current boot",
		}),
		resets: prom.NewCounter(prom.CounterOpts{
			Namespace: "quickreset",
			Name:      "factory_resets_total",
			Help:      "Factory resets triggered by quick reboots",
		}),
		expiries: prom.NewCounter(prom.CounterOpts{
			Namespace: "quickreset",
			Name:      "window_expiries_total",
			Help:      "Reset windows that elapsed and cleared the counter",
		}),
		storage: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "quickreset",
			Name:      "storage_errors_total",
			Help:      "Storage failures by operation",
		}, []string{"op"}),
		state: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: "quickreset",
			Name:      "state",
			Help:      "Current detector state (1 for the active state)",
		}, []string{"state"}),
	}
	reg.MustRegister(pr.streak, pr.resets, pr.expiries, pr.storage, pr.state)
	for _, s := range States {
		pr.state.WithLabelValues(s).Set(0)
	}
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.reg
}

func (p *PrometheusRecorder) SetStreak(n uint32) {
	if p == nil {
		return
	}
	p.streak.Set(float64(n))
}

// SetState makes state the only state with value 1.
func (p *PrometheusRecorder) SetState(state string) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state.Reset()
	for _, s := range States {
		p.state.WithLabelValues(s).Set(0)
	}
	p.state.WithLabelValues(state).Set(1)
}

func (p *PrometheusRecorder) IncFactoryReset() {
	if p == nil {
		return
	}
	p.resets.Inc()
}

func (p *PrometheusRecorder) IncWindowExpiry() {
	if p == nil {
		return
	}
	p.expiries.Inc()
}

func (p *PrometheusRecorder) IncStorageError(op string) {
	if p == nil {
		return
	}
	p.storage.WithLabelValues(op).Inc()
}

// WriteTextfile writes all metrics to path in the text exposition format.
// The file is written to a temporary name and renamed, so a collector never
// sees a partial file.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

var _ Recorder = (*PrometheusRecorder)(nil)
