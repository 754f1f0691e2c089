package notify

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts engine activity. A nil *Metrics records nothing.
type Metrics struct {
	runs          prometheus.Counter
	emails        *prometheus.CounterVec
	notifications prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farmacase",
			Name:      "weekly_runs_total",
			Help:      "Weekly notification runs started.",
		}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "farmacase",
			Name:      "emails_total",
			Help:      "Alert emails attempted, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "farmacase",
			Name:      "notifications_recorded_total",
			Help:      "Notification rows written after a successful send.",
		}),
	}
	reg.MustRegister(m.runs, m.emails, m.notifications)
	return m
}

func (m *Metrics) runStarted() {
	if m != nil {
		m.runs.Inc()
	}
}

func (m *Metrics) email(kind string, ok bool) {
	if m == nil {
		return
	}
	outcome := "sent"
	if !ok {
		outcome = "failed"
	}
	m.emails.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) recorded(n int) {
	if m != nil {
		m.notifications.Add(float64(n))
	}
}
