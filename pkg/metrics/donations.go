package metrics

import "github.com/prometheus/client_golang/prometheus"

// DonationMetrics counts successful lifecycle transitions.
type DonationMetrics struct {
	transitions *prometheus.CounterVec
}

// NewDonationMetrics registers the donation counters on the provided registerer.
func NewDonationMetrics(reg prometheus.Registerer) *DonationMetrics {
	if reg == nil {
		return &DonationMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "donation_transitions_total",
		Help: "Successful donation lifecycle transitions.",
	}, []string{"transition"})
	reg.MustRegister(transitions)
	return &DonationMetrics{transitions: transitions}
}

// IncTransition increments the counter for create, accept, complete or reject.
func (m *DonationMetrics) IncTransition(transition string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
