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

package listview

import (
	"github.com/bittoy/jtx/compiler"
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/refproxy"
)

// bindScalar implements the scalar insert form: an <insert> with
// a text/html attribute instead of for. It behaves as the plain
// text/html binding with two differences — a nullish result shows the
// <empty> slot, and content replacement leaves status-slot children
// (and any inert template) in place instead of wiping the whole child
// list.
func (l *List) bindScalar(src string, isHTML bool) error {
	expr, err := compiler.CompileExpression(src)
	if err != nil {
		return err
	}
	initial := l.contentNodes()

	// slots start hidden; loading/error stay that way unless an
	// enclosing source drives them.
	toggle(l.slots.loading, false)
	toggle(l.slots.errorEl, false)

	b := &reactive.Binding{Name: "insert@" + l.element.Tag}
	b.Update = func() {
		ctx := compiler.NewContext(l.deps.Resolver.ForElement(b, l.element))
		out, err := expr.Run(ctx)
		if err != nil {
			l.deps.Config.Logger.Errorf("insert binding: %s", err)
			out = nil
		}
		if out == nil {
			l.setContentNodes(initial)
			toggle(l.slots.empty, true)
			return
		}
		toggle(l.slots.empty, false)
		rendered := refproxy.CanonicalString(out)
		if isHTML {
			l.setContentNodes(domtree.ParseFragment(l.deps.Config.Sanitize(rendered)))
		} else {
			l.setContentNodes([]domtree.Node{domtree.NewText(rendered)})
		}
	}
	b.Update()
	return nil
}

// isControlChild reports whether c is a status slot or the template
// element, the children scalar content replacement must never touch.
func (l *List) isControlChild(c domtree.Node) bool {
	el, ok := c.(*domtree.Element)
	if !ok {
		return false
	}
	return el == l.slots.loading || el == l.slots.errorEl || el == l.slots.empty || el == l.templateEl
}

// contentNodes snapshots the element's non-control children, the
// "original textual/HTML content" a nullish scalar result restores.
func (l *List) contentNodes() []domtree.Node {
	var out []domtree.Node
	for _, c := range l.element.Children() {
		if l.isControlChild(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// setContentNodes swaps the non-control children for nodes.
func (l *List) setContentNodes(nodes []domtree.Node) {
	for _, c := range l.element.Children() {
		if l.isControlChild(c) {
			continue
		}
		l.element.RemoveChild(c)
	}
	for _, n := range nodes {
		l.element.AppendChild(n)
	}
}
