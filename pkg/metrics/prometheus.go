package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type PrometheusRecorder struct {
	counters  *prometheus.CounterVec
	histogram *prometheus.HistogramVec
}

// NewPrometheusRecorder registers walletkit counters and latency histograms
// with the default registry. Call at most once per process.
func NewPrometheusRecorder() Recorder {
	counters := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "walletkit",
			Name:      "operations_total",
			Help:      "SDK operation counters",
		},
		[]string{"operation", "blockchain"},
	)

	histogram := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "walletkit",
			Name:      "operation_latency_seconds",
			Help:      "SDK operation latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation", "blockchain"},
	)

	prometheus.MustRegister(counters, histogram)

	return &PrometheusRecorder{
		counters:  counters,
		histogram: histogram,
	}
}

func (p *PrometheusRecorder) IncCounter(name string, labels map[string]string) {
	p.counters.With(prometheus.Labels{
		"operation":  name,
		"blockchain": labels["blockchain"],
	}).Inc()
}

func (p *PrometheusRecorder) ObserveLatency(name string, d time.Duration, labels map[string]string) {
	p.histogram.With(prometheus.Labels{
		"operation":  name,
		"blockchain": labels["blockchain"],
	}).Observe(d.Seconds())
}
