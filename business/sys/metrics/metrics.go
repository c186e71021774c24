// Package metrics constructs the prometheus collectors of the node and
// provides the observers the rest of the service records through.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "snax"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Count of handled requests.",
	}, []string{"method", "code"})
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Duration of handled requests.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
	httpPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "panics_total",
		Help:      "Count of recovered handler panics.",
	})

	actionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "protocol",
		Name:      "actions_total",
		Help:      "Count of executed signed actions.",
	}, []string{"action", "status"})
	actionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "protocol",
		Name:      "action_duration_seconds",
		Help:      "Duration of executed signed actions.",
		Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"action"})
	payoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "distribution",
		Name:      "payouts_total",
		Help:      "Count of accounts paid by the distribution.",
	}, []string{"platform"})
	payoutAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "distribution",
		Name:      "paid_amount_total",
		Help:      "Raw amount paid to accounts by the distribution.",
	}, []string{"platform"})
	sweptAmountTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "distribution",
		Name:      "swept_amount_total",
		Help:      "Raw amount swept to the treasury on finalization.",
	}, []string{"platform"})
	roundsFinalizedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "distribution",
		Name:      "rounds_finalized_total",
		Help:      "Count of finalized rounds.",
	}, []string{"platform"})
	roundStep = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "round",
		Name:      "step",
		Help:      "Current step number of the platform.",
	}, []string{"platform"})
)

// HTTP tracks metrics for the web layer.
type HTTP struct{}

// NewHTTP creates an HTTP metrics collector.
func NewHTTP() *HTTP {
	return &HTTP{}
}

// ObserveRequest records the status and duration of a request.
func (m HTTP) ObserveRequest(method string, statusCode int, started time.Time) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	httpRequestDuration.WithLabelValues(method).Observe(time.Since(started).Seconds())
}

// ObservePanic records a recovered panic.
func (m HTTP) ObservePanic() {
	httpPanicsTotal.Inc()
}

// =============================================================================

// Protocol tracks metrics for protocol operations.
type Protocol struct{}

// NewProtocol creates a Protocol metrics collector.
func NewProtocol() *Protocol {
	return &Protocol{}
}

// ObserveAction records the outcome and duration of a signed action.
func (m Protocol) ObserveAction(action string, err error, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	if action == "" {
		action = "unknown"
	}

	actionsTotal.WithLabelValues(action, status).Inc()
	actionDuration.WithLabelValues(action).Observe(time.Since(started).Seconds())
}

// ObservePayBatch records the payments of a distribution batch.
func (m Protocol) ObservePayBatch(platform string, paid uint32, sent int64, finalized bool, swept int64) {
	payoutsTotal.WithLabelValues(platform).Add(float64(paid))
	payoutAmountTotal.WithLabelValues(platform).Add(float64(sent))

	if finalized {
		roundsFinalizedTotal.WithLabelValues(platform).Inc()
		sweptAmountTotal.WithLabelValues(platform).Add(float64(swept))
	}
}

// SetStep records the current step number of the platform.
func (m Protocol) SetStep(platform string, step uint64) {
	roundStep.WithLabelValues(platform).Set(float64(step))
}
