/*
 * Copyright 2024 The jtx Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package metrics exposes the engine's Prometheus instrumentation:
// scheduler flush/binding counters and source fetch counters, as
// namespaced CounterVec/HistogramVec collectors registered behind an
// explicit opt-in.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FlushesTotal counts scheduler render-cycle flushes.
	FlushesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "jtx",
		Subsystem: "scheduler",
		Name:      "flushes_total",
		Help:      "Total scheduler flush cycles run.",
	})

	// BindingRerunsTotal counts binding re-executions, labeled by
	// outcome ("ok" or "panic").
	BindingRerunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jtx",
			Subsystem: "scheduler",
			Name:      "binding_reruns_total",
			Help:      "Total binding re-runs, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// BindingDuration times a single binding re-run, labeled by the
	// binding's name (e.g. "text@span", "insert@ul").
	BindingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jtx",
			Subsystem: "scheduler",
			Name:      "binding_duration_seconds",
			Help:      "Binding re-run latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"name"},
	)

	// SourceFetchesTotal counts source fetch attempts, labeled by
	// transport (http/sse/ws) and outcome (ok/error).
	SourceFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jtx",
			Subsystem: "source",
			Name:      "fetches_total",
			Help:      "Total source fetch attempts.",
		},
		[]string{"transport", "outcome"},
	)

	// SourceFetchDuration times a source fetch, labeled by transport.
	SourceFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jtx",
			Subsystem: "source",
			Name:      "fetch_duration_seconds",
			Help:      "Source fetch latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"transport"},
	)
)

// enabled gates every recording call below. Metrics default off: a
// host application that never calls Enable pays no Prometheus cost.
var enabled bool

// Enable registers every collector against reg and turns on
// recording. Safe to call more than once; only the first call
// registers.
func Enable(reg prometheus.Registerer) error {
	if enabled {
		return nil
	}
	if err := reg.Register(FlushesTotal); err != nil {
		return err
	}
	if err := reg.Register(BindingRerunsTotal); err != nil {
		return err
	}
	if err := reg.Register(BindingDuration); err != nil {
		return err
	}
	if err := reg.Register(SourceFetchesTotal); err != nil {
		return err
	}
	if err := reg.Register(SourceFetchDuration); err != nil {
		return err
	}
	enabled = true
	return nil
}

// Flush records one scheduler flush cycle.
func Flush() {
	if !enabled {
		return
	}
	FlushesTotal.Inc()
}

// BindingRun records one binding re-run's outcome and duration.
func BindingRun(name string, seconds float64, panicked bool) {
	if !enabled {
		return
	}
	outcome := "ok"
	if panicked {
		outcome = "panic"
	}
	BindingRerunsTotal.WithLabelValues(outcome).Inc()
	BindingDuration.WithLabelValues(name).Observe(seconds)
}

// SourceFetch records one source fetch's transport, outcome, and
// duration.
func SourceFetch(transport string, seconds float64, err error) {
	if !enabled {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	SourceFetchesTotal.WithLabelValues(transport, outcome).Inc()
	SourceFetchDuration.WithLabelValues(transport).Observe(seconds)
}
