package tasks

import "github.com/prometheus/client_golang/prometheus"

// DigestMetrics are the gauges the digest job keeps current.
type DigestMetrics struct {
	licenses  *prometheus.GaugeVec
	revenue   *prometheus.GaugeVec
	updatedAt prometheus.Gauge
}

// NewDigestMetrics registers the gauges on reg; nil leaves them unregistered.
func NewDigestMetrics(reg prometheus.Registerer) *DigestMetrics {
	m := &DigestMetrics{
		licenses: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sorvide_admin",
			Subsystem: "digest",
			Name:      "licenses",
			Help:      "Licenses on the backend by state at the last digest.",
		}, []string{"state"}),
		revenue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sorvide_admin",
			Subsystem: "digest",
			Name:      "revenue_usd",
			Help:      "Estimated revenue at the last digest.",
		}, []string{"period"}),
		updatedAt: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sorvide_admin",
			Subsystem: "digest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful digest.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.licenses, m.revenue, m.updatedAt)
	}
	return m
}
