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
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/types"
)

// markerKey is the domtree.Element data-bag key definitions attach
// themselves under — the marker the scope walk looks for on the way
// up.
const markerKey = "jtx:definitions"

// AttachMarker records def as discoverable-by-name for the ancestor
// walk in Resolver.Resolve, and returns the element the marker landed
// on so the definition's removal hook can detach it from the same
// place. The marker goes on el's parent — a definition element scopes
// the subtree it lexically sits in, so its siblings and their
// descendants can reference it — falling back to el itself when the
// definition is not (yet) attached to a tree.
func AttachMarker(el *domtree.Element, def RefFactory) *domtree.Element {
	host := el.Parent()
	if host == nil {
		host = el
	}
	raw, _ := host.GetData(markerKey)
	m, _ := raw.(map[string]RefFactory)
	if m == nil {
		m = map[string]RefFactory{}
	}
	m[def.Name()] = def
	host.SetData(markerKey, m)
	return host
}

// DetachMarker removes def's entry from el's marker map, called from
// the definition's removal hook.
func DetachMarker(el *domtree.Element, name string) {
	raw, ok := el.GetData(markerKey)
	if !ok {
		return
	}
	m, _ := raw.(map[string]RefFactory)
	delete(m, name)
}

// Resolver maps a name to a definition: ancestor walk first, global
// registry
// fallback with containment gating, recording a dependency on whatever
// it finds.
type Resolver struct {
	graph  *Graph
	reg    *registry.Registry
	logger types.Logger
}

func NewResolver(graph *Graph, reg *registry.Registry, logger types.Logger) *Resolver {
	return &Resolver{graph: graph, reg: reg, logger: logger}
}

// resolve returns the RefFactory bound to name as seen from el,
// recording the dependency against b.
func (r *Resolver) resolve(b *Binding, el *domtree.Element, name string) (RefFactory, bool) {
	for cur := el; cur != nil; cur = cur.AncestorScope() {
		if raw, ok := cur.GetData(markerKey); ok {
			if m, ok2 := raw.(map[string]RefFactory); ok2 {
				if def, ok3 := m[name]; ok3 {
					r.graph.Record(b, def)
					return def, true
				}
			}
		}
	}

	for _, kind := range []registry.Kind{registry.KindState, registry.KindSource} {
		if def, ok := r.reg.Lookup(kind, name); ok {
			if rf, ok2 := def.(RefFactory); ok2 && rf.Element().Contains(el) {
				r.graph.Record(b, rf)
				return rf, true
			}
		}
	}
	return nil, false
}

// ForElement returns a compiler.RefResolver (structurally, without
// importing compiler) bound to one binding and its host element, for
// one Update call.
func (r *Resolver) ForElement(b *Binding, el *domtree.Element) *ElementResolver {
	return &ElementResolver{resolver: r, binding: b, element: el}
}

// ElementResolver adapts Resolver to compiler.RefResolver's single
// Resolve(name string) any method. An unresolved name logs a warning
// and degrades to an empty object so the calling expression keeps
// running.
type ElementResolver struct {
	resolver *Resolver
	binding  *Binding
	element  *domtree.Element
}

func (e *ElementResolver) Resolve(name string) any {
	def, ok := e.resolver.resolve(e.binding, e.element, name)
	if !ok {
		e.resolver.logger.Warnf("%s", &types.ReferenceError{Name: name})
		return map[string]any{}
	}
	return def.Ref()
}
