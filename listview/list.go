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

// Package listview implements the `<insert>` element, in
// both its scalar form (a `text`/`html` attribute in place of `for`)
// and its list form (a keyed, strategy-driven template renderer).
package listview

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bittoy/jtx/compiler"
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/statedef"
	"github.com/bittoy/jtx/types"
)

// Deps mirrors every other definition package's collaborator bundle.
type Deps struct {
	Config    types.Config
	Registry  *registry.Registry
	Scheduler *reactive.Scheduler
	Resolver  *reactive.Resolver
}

// listKeyData is the data-bag key a rendered item's root node carries
// its derived key under; for non-merge strategies the DOM
// itself is the state, keyed by this marker.
const listKeyData = "jtx:list-key"

type slots struct {
	loading *domtree.Element
	errorEl *domtree.Element
	empty   *domtree.Element
}

// List is the live record behind one `<insert>` element.
type List struct {
	element *domtree.Element
	deps    Deps

	isList bool

	// list-mode fields
	itemVar    string
	keyVar     string
	rhs        *compiler.Expression
	keyExpr    *compiler.Expression
	strategy   string
	merge      bool
	window     int
	template   *domtree.Element
	templateEl *domtree.Element
	slots      slots

	entries         []*itemEntry
	nonEmpty        bool
	everInitialized bool
	currentRaw      any

	// order, nodes, and itemStates mirror entries keyed by item key, for
	// convenient lookup; with duplicate keys (possible under a pure
	// append/prepend strategy without merge) the mirror holds the last
	// matching entry. entries, not the mirrors, is the structure every
	// strategy actually mutates.
	order      []string
	nodes      map[string]*domtree.Element
	itemStates map[string]map[string]*statedef.State
}

// itemEntry is one rendered list item: its derived key, root node, and
// any scoped states discovered inside it (captured so a later merge
// re-render of the same key can restore them).
type itemEntry struct {
	key    string
	value  any
	node   *domtree.Element
	states map[string]*statedef.State
}

// Init parses el's attributes and wires up either a scalar insert or a
// list insert.
func Init(el *domtree.Element, deps Deps) (*List, error) {
	l := &List{element: el, deps: deps, nodes: map[string]*domtree.Element{}, itemStates: map[string]map[string]*statedef.State{}}

	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "loading":
			l.slots.loading = child
		case "error":
			l.slots.errorEl = child
		case "empty":
			l.slots.empty = child
		case "template":
			if l.template == nil {
				roots := child.ChildElements()
				if len(roots) == 1 {
					l.template = roots[0]
					l.templateEl = child
				}
			}
		}
	}

	forAttr, hasFor := el.Attr("for")
	textAttr, hasText := el.Attr("text")
	htmlAttr, hasHTML := el.Attr("html")

	switch {
	case hasFor:
		if err := l.initList(forAttr); err != nil {
			return nil, err
		}
		l.updateSlots()
		b := l.bindList()
		b.Update()
	case hasText:
		if err := l.bindScalar(textAttr, false); err != nil {
			return nil, err
		}
	case hasHTML:
		if err := l.bindScalar(htmlAttr, true); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("listview: <insert> element needs a \"for\", \"text\", or \"html\" attribute")
	}

	el.OnRemoved(func() { el.Emit("clear", map[string]any{}) })
	return l, nil
}

// initList parses `for="<lhs> in <rhs>"` plus key/strategy/window.
func (l *List) initList(forAttr string) error {
	l.isList = true
	if l.template == nil {
		return fmt.Errorf("listview: <insert for=...> requires a <template> child with exactly one root element")
	}
	// the blueprint lives on detached; rendered items are the only
	// non-slot children the element keeps.
	l.element.RemoveChild(l.templateEl)

	lhs, rhs, ok := splitFor(forAttr)
	if !ok {
		return fmt.Errorf("listview: malformed for=%q, want \"<lhs> in <rhs>\"", forAttr)
	}
	parts := strings.Split(lhs, ",")
	l.itemVar = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		l.keyVar = strings.TrimSpace(parts[1])
	}

	rhsExpr, err := compiler.CompileExpression(rhs)
	if err != nil {
		return err
	}
	l.rhs = rhsExpr

	if keySrc, ok := l.element.Attr("key"); ok && keySrc != "" {
		keyExpr, err := compiler.CompileExpression(keySrc)
		if err != nil {
			return err
		}
		l.keyExpr = keyExpr
	}

	base, merge := parseStrategy(l.element.AttrOr("strategy", "replace"))
	l.strategy = base
	l.merge = merge

	if windowAttr, ok := l.element.Attr("window"); ok && windowAttr != "" {
		n, err := strconv.Atoi(strings.TrimSpace(windowAttr))
		if err == nil {
			l.window = n
		}
	}
	return nil
}

// splitFor splits "item in @feed" / "item,key in @feed" on the first
// top-level " in ".
func splitFor(s string) (lhs, rhs string, ok bool) {
	idx := strings.Index(s, " in ")
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:idx]), strings.TrimSpace(s[idx+4:]), true
}

// parseStrategy parses the strategy grammar: "replace"
// (default), "append", "prepend", or either of the latter composed
// with "merge" (e.g. "append merge", or bare "merge" meaning append
// merge).
func parseStrategy(raw string) (base string, merge bool) {
	fields := strings.Fields(raw)
	base = "replace"
	for _, f := range fields {
		switch f {
		case "merge":
			merge = true
		case "append", "prepend", "replace":
			base = f
		}
	}
	if merge && base == "replace" {
		base = "append"
	}
	return base, merge
}

// bindList wraps the list's render pipeline in a reactive.Binding so
// the `for` right-hand side's dependencies are tracked like any other
// binding.
func (l *List) bindList() *reactive.Binding {
	b := &reactive.Binding{Name: "insert@" + l.element.Tag}
	b.Update = func() {
		ctx := compiler.NewContext(l.deps.Resolver.ForElement(b, l.element))
		raw, err := l.rhs.Run(ctx)
		if err != nil {
			l.deps.Config.Logger.Errorf("insert binding: %s", err)
			return
		}
		l.currentRaw = raw
		items := normalizeItems(raw, l.keyVar != "")
		l.renderBatch(items)
	}
	return b
}
