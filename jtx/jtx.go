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

// Package jtx is the engine's programmatic entry point:
// Init compiles a document/subtree, Refresh forces a named source to
// re-fetch, and SetHTMLSanitizer installs the sanitizer every `html`
// binding and scalar insert runs its output through.
package jtx

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/bittoy/jtx/bindings"
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/listview"
	"github.com/bittoy/jtx/metrics"
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/sourcedef"
	"github.com/bittoy/jtx/statedef"
	"github.com/bittoy/jtx/types"
)

// Option configures one App before Init scans its document. WithConfig
// forwards to types.Config the same way every other definition/binding
// package takes its options; WithAspects installs the scheduler's
// optional before/after hooks (reactive.DebugAspect/ValidatorAspect).
type Option func(*settings)

type settings struct {
	cfgOpts []types.Option
	aspects []reactive.Aspect
}

// WithConfig forwards opts to types.NewConfig when building the App's
// shared Config.
func WithConfig(opts ...types.Option) Option {
	return func(s *settings) { s.cfgOpts = append(s.cfgOpts, opts...) }
}

// WithAspects installs aspects on the App's scheduler.
func WithAspects(aspects ...reactive.Aspect) Option {
	return func(s *settings) { s.aspects = append(s.aspects, aspects...) }
}

// processedKey marks an element already scanned by a walk, so calling
// Init (or walk) again over an overlapping subtree doesn't bind the
// same attributes twice.
// definedKey is its discovery-pass counterpart, guarding a <state>/
// <src> against double initialization.
const (
	processedKey = "jtx:processed"
	definedKey   = "jtx:defined"
)

// coreDeps is the one collaborator bundle every definition/binding
// package's own Deps struct mirrors field-for-field, so it converts
// directly to statedef.Deps/sourcedef.Deps/bindings.Deps/
// listview.Deps without a constructor at each call site.
type coreDeps struct {
	Config    types.Config
	Registry  *registry.Registry
	Scheduler *reactive.Scheduler
	Resolver  *reactive.Resolver
}

// App is one compiled document/subtree: the scheduler, registry, and
// resolver every definition and binding discovered during Init shares,
// plus an index of top-level named sources so Refresh can find them.
type App struct {
	deps    coreDeps
	sources map[string]*sourcedef.Source
}

// Init scans root and every descendant, wiring a `<state>`/`<src>` into
// its definition, an `<insert>` into the list engine, and every other
// element's if/show/text/html/attr-*/model/on attributes into a
// reactive binding. A definition or binding error is
// logged and does not abort the scan; the malformed piece is simply
// left uncompiled.
func Init(root domtree.Node, opts ...Option) (*App, error) {
	var s settings
	for _, opt := range opts {
		opt(&s)
	}

	cfg := types.NewConfig(s.cfgOpts...)
	reg := registry.New(cfg.Logger)
	sched := reactive.NewScheduler(cfg.Logger)
	if len(s.aspects) > 0 {
		sched.Use(s.aspects...)
	}

	a := &App{
		deps: coreDeps{
			Config:    cfg,
			Registry:  reg,
			Scheduler: sched,
			Resolver:  reactive.NewResolver(sched.Graph(), reg, cfg.Logger),
		},
		sources: map[string]*sourcedef.Source{},
	}

	if el, ok := root.(*domtree.Element); ok {
		a.walk(el)
	}
	return a, nil
}

// Refresh forces the named top-level source to re-fetch.
// Scoped sources living inside a list item template are not
// addressable this way — only named, top-level definitions are.
func (a *App) Refresh(name string) error {
	s, ok := a.sources[name]
	if !ok {
		return &types.ReferenceError{Name: name}
	}
	return s.Refresh()
}

// SetHTMLSanitizer installs fn as the sanitizer every `html` binding
// and scalar insert runs its output through from this point on. It does not retroactively resanitize content already rendered.
func (a *App) SetHTMLSanitizer(fn func(string) string) {
	a.deps.Config.Sanitizer = fn
}

// EnableMetrics turns on the engine's Prometheus instrumentation
// (scheduler flush/binding-rerun counters, source-fetch counters),
// registering every collector against reg. Metrics are off by default
// and opt-in per process, not per App.
func EnableMetrics(reg prometheus.Registerer) error {
	return metrics.Enable(reg)
}

// walk compiles el's subtree in two passes: every <state>/<src> is
// initialized first, then bindings compile — so a binding's first run
// can resolve a definition that appears later in document order.
func (a *App) walk(el *domtree.Element) {
	a.discover(el)
	a.bind(el)
}

// discover initializes definition elements. <insert>/<template>
// subtrees are skipped entirely: their content is blueprint material
// the list engine compiles per item (scoped definitions included).
func (a *App) discover(el *domtree.Element) {
	if el.Tag == "insert" || el.Tag == "template" {
		return
	}
	if _, done := el.GetData(definedKey); !done {
		el.SetData(definedKey, true)
		switch el.Tag {
		case "state":
			if _, err := statedef.Init(el, statedef.Deps(a.deps), false, nil); err != nil {
				a.deps.Config.Logger.Errorf("jtx: %s", err)
			}
		case "src":
			s, err := sourcedef.Init(el, sourcedef.Deps(a.deps), false)
			if err != nil {
				a.deps.Config.Logger.Errorf("jtx: %s", err)
			} else if name := s.Name(); name != "" {
				a.sources[name] = s
			}
		}
	}
	for _, child := range el.ChildElements() {
		a.discover(child)
	}
}

// bind dispatches an <insert> to the list engine and leaves every
// other element's attributes to bindAttrs; a bare <template> outside
// an <insert> is inert markup. An already-processed element is not
// re-bound, but the walk still descends through it — a subtree
// inserted under it later must be reachable by a follow-up scan.
func (a *App) bind(el *domtree.Element) {
	if el.Tag == "insert" || el.Tag == "template" {
		if _, done := el.GetData(processedKey); done {
			return
		}
		el.SetData(processedKey, true)
		if el.Tag == "template" {
			return
		}
		if _, err := listview.Init(el, listview.Deps(a.deps)); err != nil {
			a.deps.Config.Logger.Errorf("jtx: %s", err)
		}
		return
	}

	if _, done := el.GetData(processedKey); !done {
		el.SetData(processedKey, true)
		a.bindAttrs(el)
	}

	for _, child := range el.ChildElements() {
		a.bind(child)
	}
}

// bindAttrs wires every bindable attribute on el; unlike
// listview's per-item compilation, no locals exist at this scope, so
// every binding goes straight to the ordinary reactive form.
func (a *App) bindAttrs(el *domtree.Element) {
	deps := bindings.Deps(a.deps)
	for _, attr := range el.Attrs() {
		raw, _ := el.Attr(attr)
		var err error
		switch {
		case attr == "if":
			_, err = bindings.BindIf(el, raw, deps)
		case attr == "show":
			_, err = bindings.BindShow(el, raw, deps)
		case attr == "text":
			_, err = bindings.BindText(el, raw, deps)
		case attr == "html":
			_, err = bindings.BindHTML(el, raw, deps)
		case attr == "model":
			_, err = bindings.BindModel(el, raw, deps)
		case attr == "on":
			bindings.BindOn(el, raw, deps, nil)
		case strings.HasPrefix(attr, "attr-"):
			_, err = bindings.BindAttr(el, strings.TrimPrefix(attr, "attr-"), raw, deps)
		default:
			continue
		}
		if err != nil {
			a.deps.Config.Logger.Errorf("jtx: %s binding on <%s>: %s", attr, el.Tag, err)
		}
	}
}
