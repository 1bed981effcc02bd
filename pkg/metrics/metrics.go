// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "vmprov"

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics holds the collectors for the provisioning function. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	requests     *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	stepRetries  *prometheus.CounterVec
	rollbacks    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Provisioning requests by HTTP status code.",
		}, []string{"code"}),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent in each create-or-update step, including polling.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"kind", "outcome"}),
		stepRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_retries_total",
			Help:      "Retried provisioning step attempts.",
		}, []string{"kind"}),
		rollbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollback_deletes_total",
			Help:      "Resources deleted while rolling back a failed run.",
		}, []string{"kind", "outcome"}),
	}
	reg.MustRegister(m.requests, m.stepDuration, m.stepRetries, m.rollbacks)
	return m
}

func (m *Metrics) ObserveRequest(code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(strconv.Itoa(code)).Inc()
}

func (m *Metrics) ObserveStep(kind, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(kind, outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveRetry(kind string) {
	if m == nil {
		return
	}
	m.stepRetries.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveRollback(kind, outcome string) {
	if m == nil {
		return
	}
	m.rollbacks.WithLabelValues(kind, outcome).Inc()
}
