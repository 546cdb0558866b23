package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Telemetry exposes Prometheus metrics for monitoring passes and alert delivery.
// A nil *Telemetry records nothing.
type Telemetry struct {
	checks           *prometheus.CounterVec
	invalidSamples   prometheus.Counter
	alertsSent       prometheus.Counter
	deliveryFailures prometheus.Counter
	usedPercent      *prometheus.GaugeVec
}

// NewTelemetry registers the metrics with reg
func NewTelemetry(reg prometheus.Registerer) *Telemetry {
	return &Telemetry{
		checks: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "serverbot",
			Name:      "disk_checks_total",
			Help:      "Monitoring passes by result (ok, failed).",
		}, []string{"result"}),
		invalidSamples: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "serverbot",
			Name:      "disk_invalid_samples_total",
			Help:      "Samples dropped because the mount point reported a zero total size.",
		}),
		alertsSent: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "serverbot",
			Name:      "disk_alerts_sent_total",
			Help:      "Warning messages delivered to the alert channel.",
		}),
		deliveryFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Namespace: "serverbot",
			Name:      "disk_alert_delivery_failures_total",
			Help:      "Warning messages that could not be delivered.",
		}),
		usedPercent: promauto.With(reg).NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "serverbot",
			Name:      "mount_used_percent",
			Help:      "Used percentage of each monitored mount point at the last pass.",
		}, []string{"mount_point"}),
	}
}

func (t *Telemetry) checkFinished(failed bool) {
	if t == nil {
		return
	}
	result := "ok"
	if failed {
		result = "failed"
	}
	t.checks.WithLabelValues(result).Inc()
}

func (t *Telemetry) invalidSample() {
	if t == nil {
		return
	}
	t.invalidSamples.Inc()
}

func (t *Telemetry) alertDelivered() {
	if t == nil {
		return
	}
	t.alertsSent.Inc()
}

func (t *Telemetry) alertFailed() {
	if t == nil {
		return
	}
	t.deliveryFailures.Inc()
}

func (t *Telemetry) observeUsage(mountPoint string, percent float64) {
	if t == nil {
		return
	}
	t.usedPercent.WithLabelValues(mountPoint).Set(percent)
}
