package ice

import "github.com/prometheus/client_golang/prometheus"

const metricNamespace = "p2ptransport_ice"

// Metrics wraps an independent prometheus.Registry, mirroring dtls.Metrics:
// every method is nil-safe so an Agent built without a Metrics never has to
// branch on whether metrics were requested.
type Metrics struct {
	registry *prometheus.Registry

	pairStateTotal       *prometheus.CounterVec
	bindingRequestsTotal *prometheus.CounterVec
	selectedPairChanges  prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		pairStateTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "pair_state_total",
			Help:      "Candidate pair state transitions, by resulting state.",
		}, []string{"state"}),
		bindingRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "binding_requests_total",
			Help:      "STUN Binding requests, by direction and outcome.",
		}, []string{"direction", "result"}),
		selectedPairChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricNamespace,
			Name:      "selected_pair_changes_total",
			Help:      "Number of times the agent changed its selected candidate pair.",
		}),
	}
	registry.MustRegister(m.pairStateTotal, m.bindingRequestsTotal, m.selectedPairChanges)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) pairState(state PairState) {
	if m == nil {
		return
	}
	m.pairStateTotal.WithLabelValues(state.String()).Inc()
}

func (m *Metrics) bindingRequestSent() {
	if m == nil {
		return
	}
	m.bindingRequestsTotal.WithLabelValues("out", "sent").Inc()
}

func (m *Metrics) bindingRequestSucceeded() {
	if m == nil {
		return
	}
	m.bindingRequestsTotal.WithLabelValues("out", "success").Inc()
}

func (m *Metrics) bindingRequestFailed() {
	if m == nil {
		return
	}
	m.bindingRequestsTotal.WithLabelValues("out", "failure").Inc()
}

func (m *Metrics) bindingRequestReceived(result string) {
	if m == nil {
		return
	}
	m.bindingRequestsTotal.WithLabelValues("in", result).Inc()
}

func (m *Metrics) selectedPairChanged() {
	if m == nil {
		return
	}
	m.selectedPairChanges.Inc()
}
