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

// Event is a minimal CustomEvent stand-in: a type name, a detail
// payload, and bubbling. All events in this engine bubble.
type Event struct {
	Type    string
	Detail  any
	Target  *Element
	stopped bool
}

func (e *Event) StopPropagation() { e.stopped = true }

// EventHandler is invoked with the event and the element it is
// currently bubbling through (== Target on the first call).
type EventHandler func(el *Element, ev *Event)

// AddEventListener registers h for ev on e and returns a function that
// removes it, so `on`-bound intervals/listeners can be torn down
// deterministically on element removal.
func (e *Element) AddEventListener(ev string, h EventHandler) (remove func()) {
	e.mu.Lock()
	if e.listeners == nil {
		e.listeners = map[string][]EventHandler{}
	}
	e.listeners[ev] = append(e.listeners[ev], h)
	idx := len(e.listeners[ev]) - 1
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		list := e.listeners[ev]
		if idx < len(list) {
			list[idx] = nil
		}
	}
}

// Dispatch fires ev on e, then bubbles it to ancestors (including
// through shadow-root hosts) until StopPropagation is called or the
// tree root is reached.
func (e *Element) Dispatch(ev *Event) {
	ev.Target = e
	for cur := e; cur != nil; cur = cur.AncestorScope() {
		cur.mu.Lock()
		handlers := append([]EventHandler(nil), cur.listeners[ev.Type]...)
		cur.mu.Unlock()
		for _, h := range handlers {
			if h == nil {
				continue
			}
			h(cur, ev)
		}
		if ev.stopped {
			return
		}
	}
}

// Emit is a convenience used by handler contexts' emit(name, detail).
func (e *Element) Emit(name string, detail any) {
	e.Dispatch(&Event{Type: name, Detail: detail})
}
