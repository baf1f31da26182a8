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
	"strings"

	"golang.org/x/net/html"
)

// Parse parses a full server-rendered document into the headless tree
// jtx.Init scans, the Go-native analogue of the browser's own HTML
// parser: author markup in, bound tree out.
func Parse(source string) (*Element, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, err
	}
	root := NewElement("document")
	importChildren(doc, root)
	return root, nil
}

// ParseFragment parses an HTML fragment (no implied <html>/<body>)
// into a slice of nodes, used by Element.SetInnerHTML for the "html"
// binding and scalar-insert rendering.
func ParseFragment(fragment string) []Node {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: 0,
	})
	if err != nil {
		return []Node{NewText(fragment)}
	}
	var out []Node
	for _, n := range nodes {
		if conv := convert(n); conv != nil {
			out = append(out, conv)
		}
	}
	return out
}

func importChildren(n *html.Node, parent *Element) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if conv := convert(c); conv != nil {
			parent.AppendChild(conv)
		} else if c.Type == html.ElementNode || c.Type == html.DocumentNode {
			importChildren(c, parent)
		}
	}
}

func convert(n *html.Node) Node {
	switch n.Type {
	case html.ElementNode:
		el := NewElement(n.Data)
		for _, a := range n.Attr {
			el.SetAttr(a.Key, a.Val)
		}
		importChildren(n, el)
		return el
	case html.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return nil
		}
		return NewText(n.Data)
	case html.CommentNode:
		return NewComment(n.Data)
	default:
		return nil
	}
}
