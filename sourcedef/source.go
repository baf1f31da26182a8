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

// Package sourcedef implements <src>: a named, read-only value fed
// by one of three transports (HTTP, SSE, WebSocket), uniformly modeled
// as an observable with a status machine and optional status-slot
// elements.
package sourcedef

import (
	"fmt"
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

// Kind is the transport a Source was inferred to use from its URL
// scheme.
type Kind string

const (
	KindHTTP Kind = "http"
	KindSSE  Kind = "sse"
	KindWS   Kind = "ws"
)

// Status is the single field the status machine mutates
// through.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

const (
	FetchOnload = "onload"
	FetchIdle   = "idle"
	FetchVisible = "visible"
	FetchManual = "manual"
)

// Deps mirrors statedef.Deps: the shared collaborators every
// definition needs at Init. The outbound HTTP client is Config.HTTP.
type Deps struct {
	Config    types.Config
	Registry  *registry.Registry
	Scheduler *reactive.Scheduler
	Resolver  *reactive.Resolver
}

// slots holds the optional <loading>/<error>/<empty> status-slot
// children, hidden by default and revealed exclusively by
// setStatus.
type slots struct {
	loading *domtree.Element
	errorEl *domtree.Element
	empty   *domtree.Element
}

// Source is the live record behind one <src> element.
type Source struct {
	mu sync.Mutex

	name string
	url  string
	kind Kind

	value  any
	status Status
	err    *types.SourceError

	selectPath string
	sseEvent   string
	fetchModes []string
	headers    *compiler.Expression

	element    *domtree.Element
	markerHost *domtree.Element
	deps       Deps
	ref        *refproxy.SourceRef
	scoped     bool

	slots      slots
	closers    []func()
	closed     bool
	cancelConn func()
}

// srcConfig is the attribute surface of a <src> element, decoded off
// the attribute bag in one step.
type srcConfig struct {
	Name     string `jtx:"name"`
	URL      string `jtx:"url"`
	Fetch    string `jtx:"fetch"`
	Select   string `jtx:"select"`
	SSEEvent string `jtx:"sse-event"`
	Headers  string `jtx:"headers"`
}

// Init parses el's attributes, wires up status slots, registers the
// source, and arms its fetch modes. Networking does not
// start synchronously inside Init except where "onload" (the default)
// requires posting a fetch "on the next tick" — done via a goroutine
// so Init itself never blocks on I/O.
func Init(el *domtree.Element, deps Deps, scoped bool) (*Source, error) {
	var conf srcConfig
	if err := jtxutil.Decode(el.AttrMap(), &conf); err != nil {
		return nil, fmt.Errorf("sourcedef: %w", err)
	}
	if conf.Name == "" {
		return nil, fmt.Errorf("sourcedef: <src> element missing required \"name\" attribute")
	}

	s := &Source{
		name:    conf.Name,
		url:     conf.URL,
		kind:    inferKind(conf.URL),
		status:  StatusIdle,
		element: el,
		deps:    deps,
		scoped:  scoped,
	}
	s.ref = refproxy.NewSourceRef(s, s.statusString, s.lastError, s.Refresh)

	s.selectPath = conf.Select
	s.sseEvent = conf.SSEEvent
	if conf.Fetch != "" {
		s.fetchModes = jtxutil.SplitCSV(conf.Fetch)
	}
	if conf.Headers != "" {
		expr, err := compiler.CompileExpression(conf.Headers)
		if err != nil {
			s.deps.Config.Logger.Warnf("source %q: bad headers expression: %s", conf.Name, err)
		} else {
			s.headers = expr
		}
	}

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "loading":
			s.slots.loading = child
		case "error":
			s.slots.errorEl = child
		case "empty":
			s.slots.empty = child
		}
	}
	s.updateSlots()

	s.markerHost = reactive.AttachMarker(el, s)
	if !scoped {
		deps.Registry.Register(registry.KindSource, s)
	}
	el.OnRemoved(s.cleanup)

	el.Emit("init", map[string]any{"name": s.name})
	s.armFetchModes()
	return s, nil
}

// inferKind infers the transport from the URL scheme.
func inferKind(rawURL string) Kind {
	switch {
	case strings.HasPrefix(rawURL, "sse:"):
		return KindSSE
	case strings.HasPrefix(rawURL, "ws:"), strings.HasPrefix(rawURL, "wss:"):
		return KindWS
	default:
		return KindHTTP
	}
}

func (s *Source) cleanup() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	closers := append([]func(){}, s.closers...)
	s.closers = nil
	s.mu.Unlock()

	for _, c := range closers {
		c()
	}
	reactive.DetachMarker(s.markerHost, s.name)
	if !s.scoped {
		s.deps.Registry.Unregister(registry.KindSource, s.name, s)
	}
}

func (s *Source) onClose(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closers = append(s.closers, fn)
}

// trackConn records cancel as the teardown for the currently open
// stream connection, cancelling any previous one first — a Refresh on
// a stream source means tear down and re-open.
func (s *Source) trackConn(cancel func()) {
	s.mu.Lock()
	prev := s.cancelConn
	s.cancelConn = cancel
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
}

// --- registry.Definition / reactive.RefFactory ---

func (s *Source) Name() string             { return s.name }
func (s *Source) Element() *domtree.Element { return s.element }
func (s *Source) Ref() any                 { return s.ref }

// --- refproxy.ValueHolder ---

func (s *Source) Value() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

func (s *Source) statusString() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.status)
}

func (s *Source) lastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		return nil
	}
	return s.err
}

// setStatus is the sole mutator of s.status: it keeps slot
// visibility consistent with the new status/value on every call, then
// schedules a render so bindings depending on $status rerun.
func (s *Source) setStatus(status Status, sourceErr *types.SourceError) {
	s.mu.Lock()
	s.status = status
	s.err = sourceErr
	s.mu.Unlock()

	s.updateSlots()
	s.deps.Scheduler.MarkChanged(s)
}

// updateSlots applies the slot-visibility table: at most
// one of loading/error/empty is ever visible, computed fresh from the
// current status and value.
func (s *Source) updateSlots() {
	s.mu.Lock()
	status, err, value := s.status, s.err, s.value
	s.mu.Unlock()

	toggle(s.slots.loading, status == StatusLoading)
	toggle(s.slots.errorEl, err != nil)
	toggle(s.slots.empty, status == StatusReady && isEmptyValue(value))
}

func toggle(el *domtree.Element, visible bool) {
	if el == nil {
		return
	}
	if visible {
		el.Show()
	} else {
		el.Hide()
	}
}

func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if arr, ok := v.([]any); ok {
		return len(arr) == 0
	}
	return false
}

// setValue applies the select projection, stores the result, and fires
// "update"; status becomes ready.
func (s *Source) setValue(parsed any) {
	value := parsed
	if s.selectPath != "" && parsed != nil {
		if sel, ok := jtxutil.DeepGet(parsed, s.selectPath); ok {
			value = sel
		} else {
			value = nil
		}
	}

	s.mu.Lock()
	s.value = value
	s.mu.Unlock()

	s.setStatus(StatusReady, nil)
	s.element.Emit("update", map[string]any{"name": s.name, "value": value})
}

func (s *Source) setError(err *types.SourceError) {
	s.setStatus(StatusError, err)
	s.element.Emit("error", map[string]any{
		"name": s.name, "type": string(err.Kind), "status": err.Status, "message": err.Message, "raw": err.Raw,
	})
}

// evalHeaders re-evaluates the headers expression on every fetch, so
// headers can read live state (auth tokens and the like).
func (s *Source) evalHeaders() map[string]any {
	if s.headers == nil {
		return nil
	}
	var resolver compiler.RefResolver
	if s.deps.Resolver != nil {
		resolver = s.deps.Resolver.ForElement(nil, s.element)
	}
	out, err := s.headers.Run(compiler.NewContext(resolver))
	if err != nil {
		s.deps.Config.Logger.Warnf("source %q: headers expression failed: %s", s.name, err)
		return nil
	}
	if m, ok := out.(map[string]any); ok {
		return m
	}
	if flat, ok := refproxy.FlattenStruct(out); ok {
		return flat
	}
	return nil
}

// Refresh tears down and re-opens a stream, or re-issues an HTTP
// fetch. In-flight HTTP fetches are never cancelled; the later
// response simply wins.
func (s *Source) Refresh() error {
	switch s.kind {
	case KindHTTP:
		go s.doFetch()
	case KindSSE:
		s.reopenSSE()
	case KindWS:
		s.reopenWS()
	}
	return nil
}
