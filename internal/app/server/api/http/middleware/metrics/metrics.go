package metrics

import (
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records request counts and latencies per operation.
type Metrics struct {
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

// New registers the HTTP metrics on reg. A nil registerer disables them.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postercart_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "postercart_http_requests_total",
		Help: "HTTP requests by operation and status code.",
	}, []string{"operation", "status"})
	reg.MustRegister(duration, requests)
	return &Metrics{
		duration: duration,
		requests: requests,
	}
}

func (m *Metrics) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()
		next(ctx)
		m.observe(operationID(ctx), ctx.Status(), time.Since(start))
	}
}

func (m *Metrics) observe(operation string, status int, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(d.Seconds())
	m.requests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
}

func operationID(ctx huma.Context) string {
	if op := ctx.Operation(); op != nil && op.OperationID != "" {
		return op.OperationID
	}
	return "unknown"
}
