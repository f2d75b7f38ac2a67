// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package metrics holds the process-wide Prometheus counters and
// histograms for pipeline execution (§5), lazily registered on first use
// the way the teacher's ingestion metrics singleton does.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type registry struct {
	once sync.Once

	attachmentsProcessed prometheus.Counter
	handlerInvocations   *prometheus.CounterVec
	handlerErrors        *prometheus.CounterVec
	fallbacksTried       prometheus.Counter
	cancelledRuns        prometheus.Counter
	adapterCalls         *prometheus.CounterVec

	pipelineDuration prometheus.Histogram
}

var m registry

func (r *registry) init() {
	r.once.Do(func() {
		buckets := []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

		r.attachmentsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attach_attachments_processed_total",
			Help: "Attachments run to completion through Attachments(...)",
		})
		r.handlerInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attach_handler_invocations_total",
			Help: "Handler invocations by verb kind",
		}, []string{"kind"})
		r.handlerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attach_handler_errors_total",
			Help: "Captured non-fatal and fatal errors by taxonomy kind",
		}, []string{"error_kind"})
		r.fallbacksTried = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attach_fallbacks_tried_total",
			Help: "Fallback pipelines attempted after a primary pipeline failure",
		})
		r.cancelledRuns = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attach_cancelled_runs_total",
			Help: "Pipeline runs stopped early by a host cancellation flag",
		})
		r.adapterCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attach_adapter_calls_total",
			Help: "ADAPT handler invocations by provider name",
		}, []string{"provider"})
		r.pipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "attach_pipeline_duration_seconds",
			Help:    "Wall-clock time to run one Attachment through its pipeline",
			Buckets: buckets,
		})

		prometheus.MustRegister(
			r.attachmentsProcessed,
			r.handlerInvocations,
			r.handlerErrors,
			r.fallbacksTried,
			r.cancelledRuns,
			r.adapterCalls,
			r.pipelineDuration,
		)
	})
}

// RecordAttachmentProcessed increments the completed-Attachment counter.
func RecordAttachmentProcessed() {
	m.init()
	m.attachmentsProcessed.Inc()
}

// RecordHandlerInvocation increments the per-verb invocation counter.
func RecordHandlerInvocation(kind string) {
	m.init()
	m.handlerInvocations.WithLabelValues(kind).Inc()
}

// RecordError increments the per-taxonomy-kind error counter (§7).
func RecordError(errorKind string) {
	m.init()
	m.handlerErrors.WithLabelValues(errorKind).Inc()
}

// RecordFallbackTried increments the fallback-chain counter (§4.3).
func RecordFallbackTried() {
	m.init()
	m.fallbacksTried.Inc()
}

// RecordCancelled increments the cooperative-cancellation counter (§5).
func RecordCancelled() {
	m.init()
	m.cancelledRuns.Inc()
}

// RecordAdapterCall increments the per-provider ADAPT invocation counter.
func RecordAdapterCall(provider string) {
	m.init()
	m.adapterCalls.WithLabelValues(provider).Inc()
}

// ObservePipelineDuration records one pipeline run's wall-clock seconds.
func ObservePipelineDuration(seconds float64) {
	m.init()
	m.pipelineDuration.Observe(seconds)
}
