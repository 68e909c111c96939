package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const pushJobName = "aws_billing_metrics"

// runMetrics describes one billing run for a Prometheus Pushgateway.
type runMetrics struct {
	registry *prometheus.Registry

	recordsTotal   prometheus.Counter
	recordsSkipped *prometheus.CounterVec
	pointsTotal    prometheus.Counter
	duration       prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

func newRunMetrics() *runMetrics {
	reg := prometheus.NewRegistry()
	m := &runMetrics{
		registry: reg,
		recordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "awsbill_records_total",
			Help: "Billing report line items read.",
		}),
		recordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "awsbill_records_skipped_total",
			Help: "Billing report line items not counted, by reason.",
		}, []string{"reason"}),
		pointsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "awsbill_points_total",
			Help: "Metric points sent to the sink.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "awsbill_run_duration_seconds",
			Help: "Duration of the last billing run.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "awsbill_last_success_timestamp_seconds",
			Help: "Unix time the last billing run finished successfully.",
		}),
	}
	reg.MustRegister(m.recordsTotal, m.recordsSkipped, m.pointsTotal, m.duration, m.lastSuccess)
	return m
}

// observe records the outcome of a successful run.
func (m *runMetrics) observe(stats LedgerStats, points int, elapsed time.Duration) {
	m.recordsTotal.Add(float64(stats.Records))
	m.recordsSkipped.WithLabelValues("line_item_type").Add(float64(stats.SkippedType))
	m.recordsSkipped.WithLabelValues("interval").Add(float64(stats.SkippedInterval))
	m.pointsTotal.Add(float64(points))
	m.duration.Set(elapsed.Seconds())
	m.lastSuccess.SetToCurrentTime()
}

// push sends the metrics to the Pushgateway at url.
func (m *runMetrics) push(url string) error {
	if err := push.New(url, pushJobName).Gatherer(m.registry).Push(); err != nil {
		return errors.Wrap(err, "couldn't push run metrics")
	}
	return nil
}
