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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bittoy/jtx/metrics"
	"github.com/bittoy/jtx/types"
)

// Scheduler is the engine's single microtask-like flush loop: one
// dedicated goroutine
// drains a depth-1 channel, so "scheduleRender" calls from any number
// of goroutines (HTTP completions, stream readers, DOM handlers)
// coalesce into at most one pending flush.
type Scheduler struct {
	mu        sync.Mutex
	graph     *Graph
	changed   map[any]bool
	scheduled bool
	states    []Flushable

	pending chan struct{}
	quit    chan struct{}

	aspects []Aspect
	logger  types.Logger
}

func NewScheduler(logger types.Logger) *Scheduler {
	s := &Scheduler{
		graph:   NewGraph(),
		changed: map[any]bool{},
		pending: make(chan struct{}, 1),
		quit:    make(chan struct{}),
		logger:  logger,
	}
	go s.loop()
	return s
}

// Graph exposes the dependency graph, used by Resolver and by tests.
func (s *Scheduler) Graph() *Graph { return s.graph }

// Use installs aspects, sorted by Order ascending for Before and
// applied in reverse for After by the caller loop below.
func (s *Scheduler) Use(aspects ...Aspect) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.aspects = append(s.aspects, aspects...)
	sort.SliceStable(s.aspects, func(i, j int) bool { return s.aspects[i].Order() < s.aspects[j].Order() })
}

// TrackState registers f to receive FlushPending on every flush cycle.
func (s *Scheduler) TrackState(f Flushable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, f)
}

// UntrackState removes f, called from a state's removal cleanup hook.
func (s *Scheduler) UntrackState(f Flushable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, st := range s.states {
		if st == f {
			s.states = append(s.states[:i], s.states[i+1:]...)
			return
		}
	}
}

// MarkChanged records dep as changed and schedules a render, called by
// statedef/sourcedef whenever a value mutates.
func (s *Scheduler) MarkChanged(dep any) {
	s.mu.Lock()
	s.changed[dep] = true
	s.mu.Unlock()
	s.ScheduleRender()
}

// ScheduleRender ensures at most one flush is pending.
func (s *Scheduler) ScheduleRender() {
	s.mu.Lock()
	already := s.scheduled
	s.scheduled = true
	s.mu.Unlock()
	if already {
		return
	}
	select {
	case s.pending <- struct{}{}:
	default:
	}
}

// Stop ends the scheduler goroutine. Used by tests and app teardown.
func (s *Scheduler) Stop() { close(s.quit) }

func (s *Scheduler) loop() {
	for {
		select {
		case <-s.pending:
			s.flush()
		case <-s.quit:
			return
		}
	}
}

// flush runs the two-step render cycle. Writes performed
// while bindings run land in the next changed set (s.changed is
// swapped out before bindings execute), which flushes on the next
// microtask rather than deepening this one.
func (s *Scheduler) flush() {
	metrics.Flush()

	s.mu.Lock()
	changed := s.changed
	s.changed = map[any]bool{}
	s.scheduled = false
	states := append([]Flushable(nil), s.states...)
	s.mu.Unlock()

	for _, st := range states {
		st.FlushPending()
	}

	toRun := map[*Binding]bool{}
	for dep := range changed {
		for _, b := range s.graph.BindingsFor(dep) {
			toRun[b] = true
		}
	}
	for b := range toRun {
		s.run(b)
	}
}

func (s *Scheduler) run(b *Binding) {
	s.graph.Reset(b)

	s.mu.Lock()
	aspects := append([]Aspect(nil), s.aspects...)
	s.mu.Unlock()

	rejected := false
	for _, a := range aspects {
		if a.PointCut(b) {
			a.Before(b)
			if va, ok := a.(*ValidatorAspect); ok && va.Rejected(b) {
				rejected = true
			}
		}
	}
	if rejected {
		return
	}

	start := time.Now()
	var runErr error
	func() {
		defer func() {
			if r := recover(); r != nil {
				runErr = fmt.Errorf("panic: %v", r)
				s.logger.Errorf("binding %s panicked: %v", b.Name, r)
			}
		}()
		b.Update()
	}()
	metrics.BindingRun(b.Name, time.Since(start).Seconds(), runErr != nil)

	for i := len(aspects) - 1; i >= 0; i-- {
		if aspects[i].PointCut(b) {
			aspects[i].After(b, runErr)
		}
	}
}
