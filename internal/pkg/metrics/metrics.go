// Package metrics exposes the Prometheus collectors of the order service.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "order_service"

type Metrics struct {
	sagas              *prometheus.CounterVec
	compensations      *prometheus.CounterVec
	downstreamRequests *prometheus.CounterVec
	downstreamLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sagas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sagas_total",
			Help:      "Finished sagas by outcome.",
		}, []string{"saga", "outcome"}),
		compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saga_compensations_total",
			Help:      "Compensating actions by step and result.",
		}, []string{"step", "result"}),
		downstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "downstream_requests_total",
			Help:      "Calls to downstream services by status code.",
		}, []string{"service", "method", "code"}),
		downstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "downstream_request_duration_seconds",
			Help:      "Latency of downstream calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"service", "method"}),
	}
	reg.MustRegister(m.sagas, m.compensations, m.downstreamRequests, m.downstreamLatency)
	return m
}

// ObserveDownstream records one downstream call. A zero code means no
// response was received.
func (m *Metrics) ObserveDownstream(service, method string, code int, d time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.downstreamRequests.WithLabelValues(service, method, label).Inc()
	m.downstreamLatency.WithLabelValues(service, method).Observe(d.Seconds())
}

func (m *Metrics) SagaFinished(saga, outcome string) {
	if m == nil {
		return
	}
	m.sagas.WithLabelValues(saga, outcome).Inc()
}

func (m *Metrics) CompensationDone(step string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.compensations.WithLabelValues(step, result).Inc()
}

// Handler serves the collectors gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
