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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestEnableIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Enable(reg))
	require.NoError(t, Enable(reg))
}

func TestFlushNoopsUntilEnabled(t *testing.T) {
	before := counterValue(t, FlushesTotal)
	enabled = false
	Flush()
	assert.Equal(t, before, counterValue(t, FlushesTotal))
}

func TestBindingRunRecordsOutcome(t *testing.T) {
	enabled = true
	t.Cleanup(func() { enabled = false })

	BindingRun("text@span", 0.01, false)
	count := testutilCounterVecValue(t, BindingRerunsTotal, "ok")
	assert.GreaterOrEqual(t, count, float64(1))

	BindingRun("text@span", 0.01, true)
	panicCount := testutilCounterVecValue(t, BindingRerunsTotal, "panic")
	assert.GreaterOrEqual(t, panicCount, float64(1))
}

func TestSourceFetchRecordsTransportAndOutcome(t *testing.T) {
	enabled = true
	t.Cleanup(func() { enabled = false })

	SourceFetch("http", 0.2, nil)
	ok := testutilCounterVecValue(t, SourceFetchesTotal, "http", "ok")
	assert.GreaterOrEqual(t, ok, float64(1))
}

// testutilCounterVecValue reads a single label-combination's current
// count out of a CounterVec without needing a live registry scrape.
func testutilCounterVecValue(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, vec.WithLabelValues(labels...).Write(&m))
	return m.GetCounter().GetValue()
}
