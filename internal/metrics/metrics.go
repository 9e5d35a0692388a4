/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors of the ledger and loan engines.
type Metrics struct {
	// Registry is private so repeated construction in tests never panics on
	// duplicate registration.
	Registry *prometheus.Registry

	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	conflicts         *prometheus.CounterVec
	sequenceRetries   *prometheus.CounterVec
	sideEffectErrors  *prometheus.CounterVec
	reportCache       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landledger_operations_total",
				Help: "Ledger and loan operations by name and outcome code.",
			},
			[]string{"operation", "outcome"},
		),
		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "landledger_operation_duration_seconds",
				Help:    "Duration of ledger and loan operations.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		conflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landledger_transaction_conflicts_total",
				Help: "Transactions aborted by contention, deadlock or timeout.",
			},
			[]string{"operation"},
		),
		sequenceRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landledger_sequence_retries_total",
				Help: "Claim-then-verify retries of the sequence generator.",
			},
			[]string{"type"},
		),
		sideEffectErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landledger_side_effect_errors_total",
				Help: "Failed notifications and cache invalidations.",
			},
			[]string{"kind"},
		),
		reportCache: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "landledger_report_cache_total",
				Help: "Report cache lookups by result.",
			},
			[]string{"result"},
		),
	}
}

// ObserveOperation records one finished operation. outcome is OutcomeSuccess or an error code.
func (m *Metrics) ObserveOperation(operation, outcome string, d time.Duration) {
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) IncrConflict(operation string) {
	m.conflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) IncrSequenceRetry(seqType string) {
	m.sequenceRetries.WithLabelValues(seqType).Inc()
}

func (m *Metrics) IncrSideEffectError(kind string) {
	m.sideEffectErrors.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncrReportCache(hit bool) {
	if hit {
		m.reportCache.WithLabelValues("hit").Inc()
		return
	}
	m.reportCache.WithLabelValues("miss").Inc()
}

// Handler serves the private registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
