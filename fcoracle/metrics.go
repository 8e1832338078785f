package fcoracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts façade operations. A nil *Metrics records nothing.
type Metrics struct {
	MutationsTotal *prometheus.CounterVec
	RejectedTotal  *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		MutationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_mutations_total",
				Help: "Total number of applied graph mutations",
			},
			[]string{"op"},
		),
		RejectedTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flowcanvas_rejected_connections_total",
				Help: "Total number of rejected connection attempts",
			},
			[]string{"reason"},
		),
	}
}

func (m *Metrics) applied(op string) {
	if m == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(op).Inc()
}

func (m *Metrics) rejected(reason string) {
	if m == nil {
		return
	}
	m.RejectedTotal.WithLabelValues(reason).Inc()
}
