package metricscollector

import (
	"context"
	"strconv"

	"github.com/izzddalfk/tgrelay/internal/relay/core"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusCollector exposes relay metrics through a prometheus registry
type PrometheusCollector struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the relay collectors with reg
func NewPrometheusCollector(reg prometheus.Registerer) (*PrometheusCollector, error) {
	pc := &PrometheusCollector{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_requests_total",
				Help: "Relay requests by outcome and response status.",
			},
			[]string{"outcome", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_request_duration_seconds",
				Help:    "Relay request latency, provider call included.",
				Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
	}

	for _, c := range []prometheus.Collector{pc.requests, pc.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return pc, nil
}

func (pc *PrometheusCollector) RecordRelay(_ context.Context, metrics core.RelayMetrics) error {
	outcome := string(metrics.Outcome)
	pc.requests.WithLabelValues(outcome, strconv.Itoa(metrics.StatusCode)).Inc()
	pc.duration.WithLabelValues(outcome).Observe(metrics.Duration.Seconds())
	return nil
}
