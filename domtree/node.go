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

// Package domtree is the headless DOM surrogate this engine compiles
// bindings against. The real host DOM is an external collaborator;
// this package gives the reactive core something concrete
// to scan, mutate, and observe removals from without requiring a
// browser, and lets every other package in this module be unit
// tested standalone.
package domtree

import "strings"

// NodeType mirrors the handful of DOM node kinds the engine cares
// about.
type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
	CommentNode
)

// Node is the common surface shared by elements, text, and comments:
// enough to walk and splice the tree. A Node whose Type() is
// ElementNode is an *Element and can be type-asserted to it.
type Node interface {
	Type() NodeType
	Parent() *Element
	setParent(*Element)
	// Text returns the character data for TextNode/CommentNode and the
	// concatenation of descendant text for ElementNode.
	Text() string
}

// Text is a DOM text node.
type Text struct {
	Data   string
	parent *Element
}

func NewText(data string) *Text             { return &Text{Data: data} }
func (t *Text) Type() NodeType              { return TextNode }
func (t *Text) Parent() *Element            { return t.parent }
func (t *Text) setParent(p *Element)        { t.parent = p }
func (t *Text) Text() string                { return t.Data }

// Comment is a DOM comment node; the list engine and `if` binding use
// one as the placeholder left behind when an element is removed from
// the tree so it can be reinserted at the same position later.
type Comment struct {
	Data   string
	parent *Element
}

func NewComment(data string) *Comment      { return &Comment{Data: data} }
func (c *Comment) Type() NodeType          { return CommentNode }
func (c *Comment) Parent() *Element        { return c.parent }
func (c *Comment) setParent(p *Element)    { c.parent = p }
func (c *Comment) Text() string            { return "" }

// concatChildText concatenates the Text() of every child, used by
// Element.Text().
func concatChildText(children []Node) string {
	var b strings.Builder
	for _, c := range children {
		b.WriteString(c.Text())
	}
	return b.String()
}
