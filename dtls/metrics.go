// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package dtls

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "dtls"

// Metrics counts record-layer and alert traffic for a single Conn. newConn
// gives every Conn its own; the methods below are also safe to call on a
// nil *Metrics, which skips every call.
type Metrics struct {
	registry *prometheus.Registry

	recordsTotal *prometheus.CounterVec
	alertsTotal  *prometheus.CounterVec
}

// NewMetrics builds a Metrics collector with its own registry, mirroring
// how other components in this module keep their Prometheus state isolated
// rather than registering against the global default registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.recordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_total",
			Help:      "Inbound records processed, by epoch and outcome",
		},
		[]string{"epoch", "result"},
	)

	m.alertsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "alerts_total",
			Help:      "Alerts sent or received, by direction and description",
		},
		[]string{"direction", "description"},
	)

	m.registry.MustRegister(m.recordsTotal, m.alertsTotal)

	return m
}

// Registry exposes the collector's private registry for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}

	return m.registry
}

func (m *Metrics) recordAccepted(epoch uint16) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(strconv.Itoa(int(epoch)), "accepted").Inc()
}

func (m *Metrics) recordDiscarded(epoch uint16) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(strconv.Itoa(int(epoch)), "discarded").Inc()
}

func (m *Metrics) recordReplayed(epoch uint16) {
	if m == nil {
		return
	}
	m.recordsTotal.WithLabelValues(strconv.Itoa(int(epoch)), "replayed").Inc()
}

func (m *Metrics) alertSent(description string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues("sent", description).Inc()
}

func (m *Metrics) alertReceived(description string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues("received", description).Inc()
}
