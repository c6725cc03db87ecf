// Package telemetry exposes the engine's Prometheus metrics.
package telemetry

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

type Metrics struct {
	validations    *prometheus.CounterVec
	tokensIssued   prometheus.Counter
	tokensDecided  *prometheus.CounterVec
	quotaExhausted prometheus.Counter
	httpDuration   *prometheus.HistogramVec
}

// NewMetrics registers and returns the engine metrics.
func NewMetrics() *Metrics {
	validations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokend_validations_total",
		Help: "Counts validation verdicts by result and reason code.",
	}, []string{"result", "reason"})

	tokensIssued := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tokend_tokens_issued_total",
		Help: "Counts tokens created in pending state.",
	})

	tokensDecided := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tokend_tokens_decided_total",
		Help: "Counts approve/reject decisions.",
	}, []string{"decision"})

	quotaExhausted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tokend_quota_exhausted_total",
		Help: "Counts issuances refused because the store budget was spent.",
	})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tokend_http_duration_seconds",
		Help:    "HTTP request latency by method, route and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	prometheus.MustRegister(validations, tokensIssued, tokensDecided, quotaExhausted, httpDuration)

	return &Metrics{
		validations:    validations,
		tokensIssued:   tokensIssued,
		tokensDecided:  tokensDecided,
		quotaExhausted: quotaExhausted,
		httpDuration:   httpDuration,
	}
}

func (m *Metrics) ObserveVerdict(accepted bool, reason string) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
		reason = ""
	}
	m.validations.WithLabelValues(result, reason).Inc()
}

func (m *Metrics) TokenIssued() {
	if m == nil {
		return
	}
	m.tokensIssued.Inc()
}

func (m *Metrics) TokenDecided(decision string) {
	if m == nil {
		return
	}
	m.tokensDecided.WithLabelValues(decision).Inc()
}

func (m *Metrics) QuotaExhausted() {
	if m == nil {
		return
	}
	m.quotaExhausted.Inc()
}

// GinMiddleware records request latency per route.
func GinMiddleware(m *Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

// Module wires the metrics registry.
var Module = fx.Module("telemetry",
	fx.Provide(NewMetrics),
)
