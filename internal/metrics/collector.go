package metrics

import (
	"context"
	"time"

	"github.com/AdguardTeam/golibs/container"
	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the Prometheus-based implementation of the [collector.Metrics]
// interface.
type Collector struct {
	// duration is a histogram with the durations of collection cycles.
	duration prometheus.Histogram

	// errorsTotal is a counter with the number of failed collection cycles
	// labeled by the stage that has failed.
	errorsTotal *prometheus.CounterVec
}

// NewCollector registers the collection metrics in reg and returns a properly
// initialized *Collector.
func NewCollector(namespace string, reg prometheus.Registerer) (m *Collector, err error) {
	const (
		duration    = "scrape_duration_seconds"
		errorsTotal = "scrape_errors_total"
	)

	m = &Collector{
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:      duration,
			Namespace: namespace,
			Help:      "The duration of a single collection cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      errorsTotal,
			Namespace: namespace,
			Help:      "The number of failed collection cycles by failed stage.",
		}, []string{"stage"}),
	}

	err = register(reg, container.KeyValues[string, prometheus.Collector]{{
		Key:   duration,
		Value: m.duration,
	}, {
		Key:   errorsTotal,
		Value: m.errorsTotal,
	}})
	if err != nil {
		return nil, err
	}

	return m, nil
}

// ObserveCollect implements the [collector.Metrics] interface for *Collector.
func (m *Collector) ObserveCollect(_ context.Context, dur time.Duration, failedStage string) {
	m.duration.Observe(dur.Seconds())

	if failedStage != "" {
		m.errorsTotal.WithLabelValues(failedStage).Inc()
	}
}
