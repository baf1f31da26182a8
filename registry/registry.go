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

// Package registry holds the process-wide partitioned name tables for
// state and source definitions: a
// mutex-guarded map with Register/Unregister and warn-on-duplicate
// semantics, one table per definition kind.
package registry

import (
	"sync"

	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/types"
)

// Definition is the minimal surface both statedef.State and
// sourcedef.Source satisfy, letting registry stay ignorant of either
// package (avoiding an import cycle, since both depend on registry for
// discovery).
type Definition interface {
	Name() string
	Element() *domtree.Element
}

// Kind partitions the registry: `<state>` names and `<src>` names
// are independent namespaces.
type Kind string

const (
	KindState  Kind = "state"
	KindSource Kind = "source"
)

// Registry is the global definition table. Scoped definitions (inside
// a list item template) never pass through Register; they are resolved
// purely by the ancestor walk in reactive.Resolver.
type Registry struct {
	mu      sync.RWMutex
	entries map[Kind]map[string]Definition
	logger  types.Logger
}

func New(logger types.Logger) *Registry {
	return &Registry{
		entries: map[Kind]map[string]Definition{
			KindState:  {},
			KindSource: {},
		},
		logger: logger,
	}
}

// Register adds def under kind/name. A duplicate name logs a warning
// and keeps the first registration rather than silently overwriting.
func (r *Registry) Register(kind Kind, def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := def.Name()
	if _, exists := r.entries[kind][name]; exists {
		r.logger.Warnf("duplicate %s definition name %q ignored", kind, name)
		return
	}
	r.entries[kind][name] = def
}

// Unregister removes def's entry, called from the definition's removal
// hook. It deletes only if def is still the
// current holder of name: a later definition that won the
// duplicate-name race must not be evicted by an earlier one's
// belated cleanup.
func (r *Registry) Unregister(kind Kind, name string, def Definition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.entries[kind][name] == def {
		delete(r.entries[kind], name)
	}
}

// Lookup returns the global definition for kind/name, if any, without
// any containment check — callers apply containment gating themselves
// since only they know the requesting element.
func (r *Registry) Lookup(kind Kind, name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[kind][name]
	return d, ok
}

// All returns a snapshot of every registered definition of kind, in
// no particular order. Scoped definitions are never registered, so
// they are not included.
func (r *Registry) All(kind Kind) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.entries[kind]))
	for _, d := range r.entries[kind] {
		out = append(out, d)
	}
	return out
}
