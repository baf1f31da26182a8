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

// Package refproxy implements the explicit-accessor reference
// proxies behind @name. Go has no operator
// overloading, so `@name` resolves to one of these structs rather than
// a language-level proxy; compiler exposes them to expression and
// statement programs through $ref, and they expose Get/Set/String so
// `@name.path`, `@name = x`, and `"text " + @name` all behave as
// authors expect.
package refproxy

import (
	"fmt"

	"github.com/fatih/structs"

	"github.com/bittoy/jtx/jtxutil"
)

// Tagged is implemented by both StateRef and SourceRef so the engine
// can recognize and unwrap a reference before cloning a value or
// deriving a list key from it.
type Tagged interface {
	refTag() string
}

// ValueHolder is the minimal surface refproxy needs from a definition:
// its current value and, for StateRef, a way to mutate it. statedef.State
// and sourcedef.Source implement this directly.
type ValueHolder interface {
	Value() any
}

// Mutator is implemented by statedef.State: writing through a
// StateRef calls back into it so pendingKeys/changed bookkeeping stays
// in one place.
type Mutator interface {
	ValueHolder
	SetPath(path string, value any)
}

// StateRef proxies a state definition: reads/writes go through
// value[prop]; a bare reference (no path) coerces to a canonical
// single value for string contexts.
type StateRef struct {
	state Mutator
}

func NewStateRef(s Mutator) *StateRef { return &StateRef{state: s} }

func (*StateRef) refTag() string { return "state" }

// Get reads value[path], or the whole value when path is empty.
func (r *StateRef) Get(path string) any {
	v := Unwrap(r.state.Value())
	if path == "" {
		return v
	}
	out, _ := jtxutil.DeepGet(v, path)
	return out
}

// Set writes value[path] = val, delegating to the state so it can mark
// the top-level key pending and schedule a render.
func (r *StateRef) Set(path string, val any) {
	r.state.SetPath(path, val)
}

// String implements the primitive-coercion rule: title/text/name/value
// if present, else the sole key when the value has exactly one, else a
// best-effort stringification.
func (r *StateRef) String() string {
	return CanonicalString(r.state.Value())
}

// Raw returns the unwrapped underlying value, used by the list engine
// when an `@state` reference appears as a `for` right-hand side.
func (r *StateRef) Raw() any { return Unwrap(r.state.Value()) }

// SourceRef proxies a source definition: read-only property access
// plus $status, $error, and refresh().
type SourceRef struct {
	source    ValueHolder
	status    func() string
	lastError func() error
	refresh   func() error
}

// NewSourceRef builds a SourceRef; status/lastError/refresh are thin
// accessors into sourcedef.Source, kept as funcs here to avoid an
// import cycle between refproxy and sourcedef.
func NewSourceRef(s ValueHolder, status func() string, lastError func() error, refresh func() error) *SourceRef {
	return &SourceRef{source: s, status: status, lastError: lastError, refresh: refresh}
}

func (*SourceRef) refTag() string { return "source" }

func (r *SourceRef) Get(path string) any {
	v := Unwrap(r.source.Value())
	if path == "" {
		return v
	}
	out, _ := jtxutil.DeepGet(v, path)
	return out
}

func (r *SourceRef) Status() string {
	if r.status == nil {
		return ""
	}
	return r.status()
}

func (r *SourceRef) Error() error {
	if r.lastError == nil {
		return nil
	}
	return r.lastError()
}

func (r *SourceRef) Refresh() error {
	if r.refresh == nil {
		return nil
	}
	return r.refresh()
}

func (r *SourceRef) String() string {
	return CanonicalString(r.source.Value())
}

func (r *SourceRef) Raw() any { return Unwrap(r.source.Value()) }

// canonicalKeys is the priority order for coercing a
// map-shaped value to a single display string.
var canonicalKeys = []string{"title", "text", "name", "value"}

// CanonicalString implements the shared coercion rule used by both
// StateRef.String and SourceRef.String.
func CanonicalString(v any) string {
	v = Unwrap(v)
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case map[string]any:
		for _, k := range canonicalKeys {
			if val, ok := lookupFold(t, k); ok {
				return stringify(val)
			}
		}
		if len(t) == 1 {
			for _, val := range t {
				return stringify(val)
			}
		}
		return stringify(t)
	default:
		if structs.IsStruct(v) {
			return CanonicalString(structs.Map(v))
		}
		return stringify(v)
	}
}

func lookupFold(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	return nil, false
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

// Unwrap removes one layer of reference tagging, so handler code
// that writes `@a = @b` or compares two references copies the
// underlying value, never the proxy struct.
func Unwrap(v any) any {
	switch t := v.(type) {
	case *StateRef:
		return t.Raw()
	case *SourceRef:
		return t.Raw()
	default:
		return v
	}
}

// FlattenStruct converts a Go struct value (returned from a `headers`
// expression, say) into a map[string]any suitable for JSON encoding or
// merging into state.
func FlattenStruct(v any) (map[string]any, bool) {
	if !structs.IsStruct(v) {
		return nil, false
	}
	return structs.Map(v), true
}
