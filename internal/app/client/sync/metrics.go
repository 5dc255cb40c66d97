package sync

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics - метрики проходов синхронизации; нулевое значение ничего не пишет
type Metrics struct {
	duration *prometheus.HistogramVec
	passes   *prometheus.CounterVec
	state    prometheus.Gauge
}

// NewMetrics регистрирует метрики; nil registerer отключает их
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postercart_sync_pass_duration_seconds",
		Help:    "Duration of cart reconciliation passes in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"trigger"})
	passes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postercart_sync_passes_total",
		Help: "Cart sync passes by trigger and outcome.",
	}, []string{"trigger", "outcome"})
	state := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "postercart_sync_state",
		Help: "Current sync engine state (0 guest, 1 offline, 2 syncing, 3 reconnecting).",
	})
	reg.MustRegister(duration, passes, state)
	return &Metrics{
		duration: duration,
		passes:   passes,
		state:    state,
	}
}

func (m *Metrics) observePass(trigger Trigger, outcome Outcome, d time.Duration) {
	if m == nil || m.passes == nil {
		return
	}
	m.passes.WithLabelValues(string(trigger), string(outcome)).Inc()
	if outcome == OutcomeSynced || outcome == OutcomeFailed {
		m.duration.WithLabelValues(string(trigger)).Observe(d.Seconds())
	}
}

func (m *Metrics) setState(s State) {
	if m == nil || m.state == nil {
		return
	}
	m.state.Set(float64(s))
}
