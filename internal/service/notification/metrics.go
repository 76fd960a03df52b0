package notification

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts delivery attempts per channel, kind and outcome.
type Metrics struct {
	dispatchTotal *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medicenter",
			Subsystem: "notification",
			Name:      "dispatch_total",
			Help:      "Notification delivery attempts",
		}, []string{"channel", "kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.dispatchTotal)
	return m
}

func (m *Metrics) observe(channel string, kind Kind, err error) {
	if m == nil {
		return
	}
	status := "sent"
	if err != nil {
		status = "failed"
	}
	m.dispatchTotal.WithLabelValues(channel, string(kind), status).Inc()
}
