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

import "testing"

func TestAttrInsertionOrderAndRemoval(t *testing.T) {
	e := NewElement("div")
	e.SetAttr("b", "2")
	e.SetAttr("a", "1")
	if got := e.Attrs(); got[0] != "b" || got[1] != "a" {
		t.Fatalf("expected insertion order, got %v", got)
	}
	e.RemoveAttr("b")
	if e.HasAttr("b") {
		t.Fatalf("expected b removed")
	}
}

func TestRemoveChildFiresHooksDeepestFirst(t *testing.T) {
	root := NewElement("div")
	child := NewElement("span")
	grandchild := NewElement("em")
	child.AppendChild(grandchild)
	root.AppendChild(child)

	var order []string
	grandchild.OnRemoved(func() { order = append(order, "grandchild") })
	child.OnRemoved(func() { order = append(order, "child") })

	root.RemoveChild(child)

	if len(order) != 2 || order[0] != "grandchild" || order[1] != "child" {
		t.Fatalf("expected deepest-first cleanup order, got %v", order)
	}
	if len(root.Children()) != 0 {
		t.Fatalf("expected child detached")
	}
}

func TestContainmentThroughHost(t *testing.T) {
	host := NewElement("div")
	shadowRoot := NewElement("section")
	shadowRoot.SetHost(host)
	inner := NewElement("p")
	shadowRoot.AppendChild(inner)

	if !host.Contains(inner) {
		t.Fatalf("expected containment to cross shadow-root host boundary")
	}
}

func TestDispatchBubbles(t *testing.T) {
	root := NewElement("div")
	child := NewElement("button")
	root.AppendChild(child)

	var seenOn []*Element
	root.AddEventListener("click", func(el *Element, ev *Event) {
		seenOn = append(seenOn, el)
	})
	child.Dispatch(&Event{Type: "click"})

	if len(seenOn) != 1 || seenOn[0] != root {
		t.Fatalf("expected click to bubble to root listener, got %v", seenOn)
	}
}

func TestReplaceChildPlaceholder(t *testing.T) {
	root := NewElement("div")
	el := NewElement("p")
	root.AppendChild(el)
	placeholder := NewComment("jtx-if")

	removed := false
	el.OnRemoved(func() { removed = true })
	root.ReplaceChild(placeholder, el)
	if removed {
		t.Fatalf("ReplaceChild should not fire removal hooks on the swapped-out node (it's retained for reinsertion)")
	}
	if root.Children()[0] != Node(placeholder) {
		t.Fatalf("expected placeholder in tree")
	}
}
