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

// Package statedef implements <state>: a mutable, named mapping
// seeded from an element's attributes, optionally mirrored to a
// durable store and the URL query string, and reachable through the
// engine's reference/scope machinery via reactive.AttachMarker and
// registry.Registry.
package statedef

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/bittoy/jtx/compiler"
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/jtxutil"
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/refproxy"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/types"
)

// reserved names every <state> attribute is checked against before
// being treated as a seed key.
var reserved = map[string]bool{
	"name":        true,
	"persist":     true,
	"persist-url": true,
}

// Deps bundles the shared collaborators a State needs at Init time,
// mirroring the shape every other definition/binding package takes
// (config, registry, scheduler, resolver) so callers build one Deps
// per document/subtree scan and thread it through.
type Deps struct {
	Config    types.Config
	Registry  *registry.Registry
	Scheduler *reactive.Scheduler
	Resolver  *reactive.Resolver
}

// State is the live record behind one <state> element.
type State struct {
	mu            sync.Mutex
	name          string
	value         map[string]any
	persistedKeys map[string]bool
	urlKeys       map[string]bool
	pendingKeys   map[string]bool
	element       *domtree.Element
	deps          Deps
	ref           *refproxy.StateRef
	scoped        bool
}

// stateConfig is the reserved attribute surface of a <state> element,
// decoded off the attribute bag before the remaining attributes are
// treated as seed keys.
type stateConfig struct {
	Name       string `jtx:"name"`
	Persist    string `jtx:"persist"`
	PersistURL string `jtx:"persist-url"`
}

// Init initializes a State from el's attributes. snapshot, when non-nil, is a caller-supplied restore map used
// by listview to preserve a scoped state's values across a merge-
// strategy item re-render (step 5); scoped is true for states created
// inside a list item template instance, which are discoverable by
// descendants but never enter the global registry.
func Init(el *domtree.Element, deps Deps, scoped bool, snapshot map[string]any) (*State, error) {
	var conf stateConfig
	if err := jtxutil.Decode(el.AttrMap(), &conf); err != nil {
		return nil, fmt.Errorf("statedef: %w", err)
	}
	name := conf.Name
	if name == "" {
		return nil, fmt.Errorf("statedef: <state> element missing required \"name\" attribute")
	}

	s := &State{
		name:          name,
		value:         map[string]any{},
		persistedKeys: map[string]bool{},
		urlKeys:       map[string]bool{},
		pendingKeys:   map[string]bool{},
		element:       el,
		deps:          deps,
		scoped:        scoped,
	}
	s.ref = refproxy.NewStateRef(s)

	for _, attr := range el.Attrs() {
		if reserved[attr] || strings.HasPrefix(attr, "jtx-") {
			continue
		}
		raw, _ := el.Attr(attr)
		val, err := s.evalSeed(raw)
		if err != nil {
			s.fireError(attr, err)
			continue
		}
		s.value[attr] = val
	}

	if conf.Persist != "" {
		for _, key := range jtxutil.SplitCSV(conf.Persist) {
			s.persistedKeys[key] = true
			raw, ok := deps.Config.KV.Get(kvKey(name, key))
			if !ok {
				continue
			}
			var parsed any
			if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
				s.fireError(key, fmt.Errorf("malformed persisted value: %w", err))
				continue
			}
			s.value[key] = parsed
		}
	}

	if conf.PersistURL != "" {
		query, _ := url.ParseQuery(deps.Config.URL.Query())
		for _, key := range jtxutil.SplitCSV(conf.PersistURL) {
			s.urlKeys[key] = true
			raw := query.Get(key)
			if raw == "" {
				continue
			}
			s.value[key] = jtxutil.DecodeQueryValue(raw)
		}
	}

	for k, v := range snapshot {
		s.value[k] = v
	}

	markerHost := reactive.AttachMarker(el, s)
	if !scoped {
		deps.Registry.Register(registry.KindState, s)
	}
	deps.Scheduler.TrackState(s)
	el.OnRemoved(func() {
		deps.Scheduler.UntrackState(s)
		reactive.DetachMarker(markerHost, name)
		if !scoped {
			deps.Registry.Unregister(registry.KindState, name, s)
		}
	})

	el.Emit("init", map[string]any{"name": name, "value": jtxutil.Clone(s.value)})
	return s, nil
}

// evalSeed compiles and runs attr as a once-off expression. A nil
// resolver (outer definitions cannot yet be resolved during seeding,
// or the author simply wrote a literal) is fine: compiler.Context
// degrades unresolved @refs to an empty value.
func (s *State) evalSeed(src string) (any, error) {
	expr, err := compiler.CompileExpression(src)
	if err != nil {
		return nil, err
	}
	var resolver compiler.RefResolver
	if s.deps.Resolver != nil {
		resolver = s.deps.Resolver.ForElement(nil, s.element)
	}
	return expr.Run(compiler.NewContext(resolver))
}

func (s *State) fireError(key string, err error) {
	defErr := &types.DefinitionError{Name: s.name, Key: key, Err: err}
	s.deps.Config.Logger.Warnf("state %q: %s", s.name, defErr)
	s.element.Emit("error", map[string]any{"name": s.name, "error": defErr})
}

// --- registry.Definition / reactive.RefFactory ---

func (s *State) Name() string             { return s.name }
func (s *State) Element() *domtree.Element { return s.element }
func (s *State) Ref() any                 { return s.ref }

// --- refproxy.Mutator ---

// Value returns the live mapping. Callers that need a stable snapshot
// should jtxutil.Clone it; this is the canonical, presently-mutating
// map.
func (s *State) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// SetPath writes value[path] = val (creating intermediate maps as
// needed), marks the top-level key pending, and schedules a render.
func (s *State) SetPath(path string, val any) {
	s.mu.Lock()
	root, err := jtxutil.DeepSet(s.value, path, val)
	if err != nil {
		s.mu.Unlock()
		s.fireError(path, err)
		return
	}
	s.value, _ = root.(map[string]any)
	segs, _ := jtxutil.ParsePath(path)
	topKey := path
	if len(segs) > 0 {
		topKey = segs[0].Key
	}
	s.pendingKeys[topKey] = true
	s.mu.Unlock()

	s.deps.Scheduler.MarkChanged(s)
}

// --- reactive.Flushable ---

// FlushPending is the write-side half of a flush: persist each
// changed persisted key, rewrite the URL for changed url keys, fire
// one "update" event carrying every changed key and the whole value,
// then clear pendingKeys.
func (s *State) FlushPending() {
	s.mu.Lock()
	if len(s.pendingKeys) == 0 {
		s.mu.Unlock()
		return
	}
	keys := make([]string, 0, len(s.pendingKeys))
	for k := range s.pendingKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	snapshot := jtxutil.Clone(s.value).(map[string]any)
	s.pendingKeys = map[string]bool{}
	persisted := s.persistedKeys
	urlKeys := s.urlKeys
	s.mu.Unlock()

	for _, key := range keys {
		if !persisted[key] {
			continue
		}
		b, err := json.Marshal(snapshot[key])
		if err != nil {
			s.fireError(key, err)
			continue
		}
		s.deps.Config.KV.Set(kvKey(s.name, key), string(b))
	}

	urlUpdates := map[string]any{}
	for _, key := range keys {
		if urlKeys[key] {
			urlUpdates[key] = snapshot[key]
		}
	}
	if len(urlUpdates) > 0 {
		next, err := jtxutil.MergeQuery(s.deps.Config.URL.Query(), urlUpdates)
		if err != nil {
			s.fireError("persist-url", err)
		} else {
			s.deps.Config.URL.Replace(next)
		}
	}

	s.element.Emit("update", map[string]any{"name": s.name, "keys": keys, "value": snapshot})
}

func kvKey(name, key string) string { return fmt.Sprintf("jtx:%s:%s", name, key) }
