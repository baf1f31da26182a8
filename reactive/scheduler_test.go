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

package reactive

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/jtx/types"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestSchedulerRerunsOnlyDependentBindings(t *testing.T) {
	s := NewScheduler(types.NewDefaultLogger())
	defer s.Stop()

	runsA, runsB := 0, 0
	depX, depY := "x", "y"

	var a, b *Binding
	a = &Binding{Name: "a", Update: func() {
		runsA++
		s.Graph().Record(a, depX)
	}}
	b = &Binding{Name: "b", Update: func() {
		runsB++
		s.Graph().Record(b, depY)
	}}
	s.Graph().Record(a, depX)
	s.Graph().Record(b, depY)

	s.MarkChanged(depX)
	s.MarkChanged(depY)
	waitFor(t, func() bool { return runsA == 1 && runsB == 1 })

	s.MarkChanged(depX)
	waitFor(t, func() bool { return runsA == 2 })
	assert.Equal(t, 1, runsB)
}

func TestSchedulerFlushesStatesBeforeBindings(t *testing.T) {
	s := NewScheduler(types.NewDefaultLogger())
	defer s.Stop()

	order := []string{}
	s.TrackState(flushFunc(func() { order = append(order, "state") }))
	b := &Binding{Name: "b", Update: func() { order = append(order, "binding") }}
	s.Graph().Record(b, "dep")

	s.MarkChanged("dep")
	waitFor(t, func() bool { return len(order) == 2 })
	require.Equal(t, []string{"state", "binding"}, order)
}

// the coalescing assertion drives flush by hand (no scheduler
// goroutine) so the three writes deterministically land in one cycle.
func TestSchedulerCoalescesScheduleRenderCalls(t *testing.T) {
	s := &Scheduler{
		graph:   NewGraph(),
		changed: map[any]bool{},
		pending: make(chan struct{}, 1),
		quit:    make(chan struct{}),
		logger:  types.NewDefaultLogger(),
	}

	runs := 0
	b := &Binding{Name: "b", Update: func() { runs++ }}
	s.Graph().Record(b, "dep")

	s.MarkChanged("dep")
	s.MarkChanged("dep")
	s.MarkChanged("dep")
	s.flush()

	assert.Equal(t, 1, runs)
	assert.Empty(t, s.changed)
}

type flushFunc func()

func (f flushFunc) FlushPending() { f() }

func TestGraphBidirectionalConsistency(t *testing.T) {
	g := NewGraph()
	b := &Binding{Name: "b"}
	g.Record(b, "d1")
	g.Record(b, "d2")

	for dep := range g.bindingDeps[b] {
		assert.True(t, g.depBindings[dep][b], "dep %v missing reverse edge", dep)
	}

	g.Reset(b)
	assert.Empty(t, g.bindingDeps[b])
	assert.Empty(t, g.BindingsFor("d1"))
	assert.Empty(t, g.BindingsFor("d2"))
}
