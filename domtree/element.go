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

package domtree

import (
	"strconv"
	"strings"
	"sync"
)

// Element is a mutable DOM element: a tag name, an ordered attribute
// map, children, and two small extension points the rest of the
// engine relies on instead of reaching into concrete types:
//
//   - Data is the expando bag used to
//     stash a scope's definition pointer, a rendered list item's key,
//     or a binding's "already processed" flag, without domtree needing
//     to know about statedef/sourcedef/listview/bindings.
//   - removeHooks fire, deepest-first, when the element leaves the
//     tree, standing in for a tree-wide mutation observer.
type Element struct {
	Tag      string
	attrs    map[string]string
	attrKeys []string // insertion order, for deterministic DSL dumps
	children []Node
	parent   *Element
	// host lets a detached subtree (a "shadow root") point back at the
	// element that hosts it, so the scope resolver's ancestor walk can
	// cross the boundary.
	host *Element

	mu          sync.Mutex
	data        map[string]any
	listeners   map[string][]EventHandler
	removeHooks []func()
}

func NewElement(tag string) *Element {
	return &Element{Tag: tag, attrs: map[string]string{}}
}

func (e *Element) Type() NodeType       { return ElementNode }
func (e *Element) Parent() *Element     { return e.parent }
func (e *Element) setParent(p *Element) { e.parent = p }

func (e *Element) Text() string { return concatChildText(e.children) }

// Children returns a snapshot slice; mutating it does not affect the
// tree.
func (e *Element) Children() []Node {
	out := make([]Node, len(e.children))
	copy(out, e.children)
	return out
}

// ChildElements filters Children() down to Element nodes, in order.
func (e *Element) ChildElements() []*Element {
	var out []*Element
	for _, c := range e.children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// SetHost attaches this element's scope lookup to host, the element
// whose shadow root this subtree represents.
func (e *Element) SetHost(host *Element) { e.host = host }
func (e *Element) Host() *Element        { return e.host }

// --- attributes ---

func (e *Element) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

func (e *Element) AttrOr(name, def string) string {
	if v, ok := e.attrs[name]; ok {
		return v
	}
	return def
}

func (e *Element) SetAttr(name, value string) {
	if _, exists := e.attrs[name]; !exists {
		e.attrKeys = append(e.attrKeys, name)
	}
	e.attrs[name] = value
}

func (e *Element) RemoveAttr(name string) {
	if _, ok := e.attrs[name]; !ok {
		return
	}
	delete(e.attrs, name)
	for i, k := range e.attrKeys {
		if k == name {
			e.attrKeys = append(e.attrKeys[:i], e.attrKeys[i+1:]...)
			break
		}
	}
}

// SetBoolAttr sets name as a boolean attribute (empty value).
func (e *Element) SetBoolAttr(name string) { e.SetAttr(name, "") }

func (e *Element) HasAttr(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// Attrs returns attribute names in insertion order; Attr looks up
// each value.
func (e *Element) Attrs() []string {
	out := make([]string, len(e.attrKeys))
	copy(out, e.attrKeys)
	return out
}

// AttrMap snapshots the attributes as a plain map, the shape the
// definition packages decode their configuration from.
func (e *Element) AttrMap() map[string]string {
	out := make(map[string]string, len(e.attrKeys))
	for _, k := range e.attrKeys {
		out[k] = e.attrs[k]
	}
	return out
}

// --- data bag ---

func (e *Element) SetData(key string, v any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.data == nil {
		e.data = map[string]any{}
	}
	e.data[key] = v
}

func (e *Element) GetData(key string) (any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.data[key]
	return v, ok
}

func (e *Element) DeleteData(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.data, key)
}

// --- tree mutation ---

func (e *Element) AppendChild(n Node) {
	n.setParent(e)
	e.children = append(e.children, n)
}

func (e *Element) InsertBefore(n Node, ref Node) {
	n.setParent(e)
	if ref == nil {
		e.children = append(e.children, n)
		return
	}
	for i, c := range e.children {
		if c == ref {
			e.children = append(e.children[:i], append([]Node{n}, e.children[i:]...)...)
			return
		}
	}
	e.children = append(e.children, n)
}

// RemoveChild detaches n from e, firing every removal hook registered
// on n and its element descendants, deepest-first, standing in for
// the engine's tree-wide mutation observer.
func (e *Element) RemoveChild(n Node) {
	for i, c := range e.children {
		if c == n {
			e.children = append(e.children[:i], e.children[i+1:]...)
			fireRemoveHooks(n)
			n.setParent(nil)
			return
		}
	}
}

// ReplaceChild swaps old for n at the same position, preserving
// ordering, WITHOUT firing removal hooks on old: the `if` binding uses
// this to swap an element for a placeholder comment and "retains the
// node for reinsertion", so its scoped state/bindings must
// survive the swap.
func (e *Element) ReplaceChild(n Node, old Node) {
	for i, c := range e.children {
		if c == old {
			n.setParent(e)
			e.children[i] = n
			if old != n {
				old.setParent(nil)
			}
			return
		}
	}
}

// DestroySubtree fires removal cleanup hooks across n and its element
// descendants without requiring n to currently be spliced out via
// RemoveChild. The list engine uses this for nodes it discards outright
// (replace/append/prepend trimming), as opposed to ReplaceChild's
// no-cleanup swap.
func DestroySubtree(n Node) { fireRemoveHooks(n) }

func fireRemoveHooks(n Node) {
	if el, ok := n.(*Element); ok {
		for _, c := range el.children {
			fireRemoveHooks(c)
		}
		el.mu.Lock()
		hooks := el.removeHooks
		el.removeHooks = nil
		el.mu.Unlock()
		for _, h := range hooks {
			h()
		}
	}
}

// OnRemoved registers a cleanup callback invoked once when this
// element leaves the tree (closing streams, clearing intervals,
// deleting registry entries).
func (e *Element) OnRemoved(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeHooks = append(e.removeHooks, fn)
}

// --- ancestry & containment ---

// AncestorScope returns the parent to resolve lexical scope names
// from: the DOM parent, or when at a subtree root, the host element a
// shadow root was attached under.
func (e *Element) AncestorScope() *Element {
	if e.parent != nil {
		return e.parent
	}
	return e.host
}

// Contains reports whether other is e itself or a descendant of e,
// walking through shadow-root hosts the same way AncestorScope does.
// Used to gate global registry hits against cross-tree leakage.
func (e *Element) Contains(other *Element) bool {
	for cur := other; cur != nil; cur = cur.AncestorScope() {
		if cur == e {
			return true
		}
	}
	return false
}

// --- text/html content ---

func (e *Element) SetTextContent(s string) {
	e.children = []Node{NewText(s)}
}

// SetInnerHTML replaces children with the nodes ParseFragment builds
// from html. It does not sanitize; a caller that needs sanitizing
// applies it to html first.
func (e *Element) SetInnerHTML(html string) {
	nodes := ParseFragment(html)
	e.children = nil
	for _, n := range nodes {
		e.AppendChild(n)
	}
}

func (e *Element) InnerHTML() string {
	var b strings.Builder
	for _, c := range e.children {
		writeHTML(&b, c)
	}
	return b.String()
}

func writeHTML(b *strings.Builder, n Node) {
	switch t := n.(type) {
	case *Text:
		b.WriteString(t.Data)
	case *Comment:
		b.WriteString("<!--")
		b.WriteString(t.Data)
		b.WriteString("-->")
	case *Element:
		b.WriteByte('<')
		b.WriteString(t.Tag)
		for _, k := range t.attrKeys {
			b.WriteByte(' ')
			b.WriteString(k)
			if t.attrs[k] != "" {
				b.WriteString(`="`)
				b.WriteString(t.attrs[k])
				b.WriteByte('"')
			}
		}
		b.WriteByte('>')
		for _, c := range t.children {
			writeHTML(b, c)
		}
		b.WriteString("</")
		b.WriteString(t.Tag)
		b.WriteByte('>')
	}
}

// Clone deep-copies the element subtree (attributes, data, children),
// but never listeners or removal hooks — used by the list engine to
// stamp out a fresh instance from the <template> blueprint each
// render.
func (e *Element) Clone() *Element {
	c := NewElement(e.Tag)
	for _, k := range e.attrKeys {
		c.SetAttr(k, e.attrs[k])
	}
	for _, child := range e.children {
		switch t := child.(type) {
		case *Element:
			c.AppendChild(t.Clone())
		case *Text:
			c.AppendChild(NewText(t.Data))
		case *Comment:
			c.AppendChild(NewComment(t.Data))
		}
	}
	return c
}

// Index returns this element's position among its parent's children,
// or -1 when detached. Used for index-based list placeholder math.
func (e *Element) Index() int {
	if e.parent == nil {
		return -1
	}
	for i, c := range e.parent.children {
		if c == Node(e) {
			return i
		}
	}
	return -1
}

func (e *Element) String() string {
	return "<" + e.Tag + strconv.Itoa(len(e.children)) + ">"
}
