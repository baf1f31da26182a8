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

package compiler

import "github.com/dop251/goja"

// pathGetter/pathSetter mirror refproxy.StateRef/SourceRef's Get/Set
// surface without compiler importing refproxy directly (same reasoning
// as rawValue in context.go).
type pathGetter interface {
	Get(path string) any
}

type pathSetter interface {
	Set(path string, value any)
}

// refDynamicValue wraps a resolved reference (a *refproxy.StateRef,
// *refproxy.SourceRef, or nil for an unknown name) as a goja object
// whose properties forward to Get/Set. This is what makes statement-
// mode handler code like `@ui.counter++` or `@ui.counter = 0` work:
// goja's member-assignment opcodes need an actual object with dynamic
// [[Get]]/[[Set]], which a Go struct's methods alone don't provide.
// Nested paths beyond the first property hop (`@state.user.email`)
// fall through to goja's native reflection over the returned
// map[string]any, which needs no special casing here.
//
// Only values that actually look like a reference proxy (or an
// unresolved nil name) get the dynamic-object treatment; anything else (the plain scalars and
// maps a test resolver or a list-item local hands back) passes
// straight to goja's own reflection so arithmetic on them keeps
// working without an unnecessary indirection.
func refDynamicValue(rt *goja.Runtime, resolved any) goja.Value {
	if resolved == nil {
		return rt.NewDynamicObject(&refDynamicObject{rt: rt, resolved: nil})
	}
	if _, ok := resolved.(pathGetter); ok {
		return rt.NewDynamicObject(&refDynamicObject{rt: rt, resolved: resolved})
	}
	return rt.ToValue(resolved)
}

// refDynamicObject implements goja.DynamicObject over one resolved
// `@name` reference for the duration of a single Statement.Run call.
type refDynamicObject struct {
	rt       *goja.Runtime
	resolved any
}

func (d *refDynamicObject) Get(key string) goja.Value {
	switch key {
	case "toString", "valueOf":
		return d.rt.ToValue(func(goja.FunctionCall) goja.Value {
			return d.rt.ToValue(canonicalString(d.resolved))
		})
	case "$status":
		if s, ok := d.resolved.(statusRef); ok {
			return d.rt.ToValue(s.Status())
		}
		return goja.Undefined()
	case "$error":
		if s, ok := d.resolved.(errorRef); ok {
			if err := s.Error(); err != nil {
				return d.rt.ToValue(err.Error())
			}
		}
		return goja.Undefined()
	case "refresh":
		return d.rt.ToValue(func(goja.FunctionCall) goja.Value {
			if s, ok := d.resolved.(refreshRef); ok {
				_ = s.Refresh()
			}
			return goja.Undefined()
		})
	}
	g, ok := d.resolved.(pathGetter)
	if !ok {
		return goja.Undefined()
	}
	return d.rt.ToValue(g.Get(key))
}

func (d *refDynamicObject) Set(key string, val goja.Value) bool {
	setter, ok := d.resolved.(pathSetter)
	if !ok {
		return false
	}
	setter.Set(key, val.Export())
	return true
}

func (d *refDynamicObject) Has(key string) bool {
	g, ok := d.resolved.(pathGetter)
	if !ok {
		return false
	}
	return g.Get(key) != nil
}

func (d *refDynamicObject) Delete(string) bool { return false }

func (d *refDynamicObject) Keys() []string {
	g, ok := d.resolved.(pathGetter)
	if !ok {
		return nil
	}
	m, _ := g.Get("").(map[string]any)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// statusRef/errorRef/refreshRef mirror refproxy.SourceRef's read-only
// surface").
type statusRef interface{ Status() string }
type errorRef interface{ Error() error }
type refreshRef interface{ Refresh() error }

// canonicalString delegates to the resolved reference's own String()
// method (refproxy.StateRef/SourceRef both implement the canonical
// coercion rule there); an unresolved name has no String() and
// degrades to "".
func canonicalString(v any) string {
	if cs, ok := v.(interface{ String() string }); ok {
		return cs.String()
	}
	return ""
}
