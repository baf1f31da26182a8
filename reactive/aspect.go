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

import "github.com/bittoy/jtx/types"

// Aspect is an optional hook around binding reruns
// (PointCut/Before/After), off by default, letting a host observe or
// gate every binding run without modifying the scheduler.
type Aspect interface {
	// Order controls run order: lower runs first on Before, in reverse
	// on After.
	Order() int
	PointCut(b *Binding) bool
	Before(b *Binding)
	After(b *Binding, err error)
}

// DebugAspect logs every binding rerun's name and outcome.
type DebugAspect struct {
	Logger types.Logger
}

func (a *DebugAspect) Order() int                { return 900 }
func (a *DebugAspect) PointCut(*Binding) bool     { return true }
func (a *DebugAspect) Before(b *Binding)          { a.Logger.Debugf("binding %s: before", b.Name) }
func (a *DebugAspect) After(b *Binding, err error) {
	if err != nil {
		a.Logger.Debugf("binding %s: after, error=%v", b.Name, err)
		return
	}
	a.Logger.Debugf("binding %s: after", b.Name)
}

// ValidatorFunc inspects a binding before it runs and returns an error
// to veto the run (the run is skipped and logged, not retried).
type ValidatorFunc func(b *Binding) error

// ValidatorAspect lets a host install structural checks on bindings —
// e.g. rejecting a binding whose Name carries an unexpected prefix in
// a test harness — without modifying the scheduler itself.
type ValidatorAspect struct {
	Logger  types.Logger
	Checks  []ValidatorFunc
	rejectSet map[*Binding]bool
}

func (a *ValidatorAspect) Order() int            { return 100 }
func (a *ValidatorAspect) PointCut(*Binding) bool { return true }

func (a *ValidatorAspect) Before(b *Binding) {
	for _, check := range a.Checks {
		if err := check(b); err != nil {
			a.Logger.Warnf("binding %s rejected by validator: %v", b.Name, err)
			if a.rejectSet == nil {
				a.rejectSet = map[*Binding]bool{}
			}
			a.rejectSet[b] = true
			return
		}
	}
}

func (a *ValidatorAspect) After(b *Binding, _ error) {
	delete(a.rejectSet, b)
}

// Rejected reports whether b failed validation during its most recent
// Before call, letting the scheduler skip invoking Update entirely.
func (a *ValidatorAspect) Rejected(b *Binding) bool {
	return a.rejectSet[b]
}
