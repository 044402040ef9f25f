package monitoring

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for point cloud conversions.
// It satisfies pointcloud.Observer.
type Metrics struct {
	conversions *prometheus.CounterVec
	duration    prometheus.Histogram
	points      prometheus.Counter
	fallbacks   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil
// registerer leaves them unregistered, which is convenient in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pc2draco",
			Name:      "conversions_total",
			Help:      "Point cloud conversions by outcome.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "pc2draco",
			Name:      "conversion_duration_seconds",
			Help:      "Wall time of a single conversion.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		points: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pc2draco",
			Name:      "points_converted_total",
			Help:      "Points emitted by successful conversions.",
		}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pc2draco",
			Name:      "override_fallbacks_total",
			Help:      "Fields whose override lookup fell back to name classification.",
		}, []string{"reason"}),
	}
	if reg != nil {
		reg.MustRegister(m.conversions, m.duration, m.points, m.fallbacks)
	}
	return m
}

// ObserveConversion records the outcome of one conversion.
func (m *Metrics) ObserveConversion(points int, elapsed time.Duration, err error) {
	m.duration.Observe(elapsed.Seconds())
	if err != nil {
		m.conversions.WithLabelValues("error").Inc()
		return
	}
	m.conversions.WithLabelValues("ok").Inc()
	m.points.Add(float64(points))
}

// ObserveFallback records one override fallback. The reason label is the
// error text of the non-fatal lookup failure.
func (m *Metrics) ObserveFallback(field string, reason error) {
	label := "unknown"
	if reason != nil {
		label = reason.Error()
		for u := errors.Unwrap(reason); u != nil; u = errors.Unwrap(u) {
			label = u.Error()
		}
	}
	m.fallbacks.WithLabelValues(label).Inc()
}
