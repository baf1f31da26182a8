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
	"fmt"

	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/statedef"
)

// updateSlots toggles <empty>, the one status slot meaningful for a
// list insert on its own (loading/error are driven by an enclosing
// source, not by the list itself).
func (l *List) updateSlots() {
	toggle(l.slots.loading, false)
	toggle(l.slots.errorEl, false)
	toggle(l.slots.empty, l.isList && !l.nonEmpty)
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

// validateKeys enforces the key-validation rule: every
// derived key must be non-empty, and, outside merge, unique within the
// batch. merge instead de-duplicates by keeping the last occurrence.
func validateKeys(keys []string, allowDuplicates bool) error {
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k == "" {
			return fmt.Errorf("item key must not be empty")
		}
		if seen[k] && !allowDuplicates {
			return fmt.Errorf("duplicate item key %q", k)
		}
		seen[k] = true
	}
	return nil
}

// renderBatch runs one render cycle: derive and
// validate keys, dispatch to the configured strategy, apply the window
// cap, then fire events in the mandated order — remove, slot
// reconciliation, init/add/update/empty.
func (l *List) renderBatch(items []rawItem) {
	keys := make([]string, len(items))
	for i, item := range items {
		k, err := l.deriveKey(item, i)
		if err != nil {
			l.deps.Config.Logger.Errorf("insert key: %s", err)
			l.element.Emit("error", map[string]any{"error": err.Error()})
			return
		}
		keys[i] = k
	}

	if err := validateKeys(keys, l.merge); err != nil {
		l.deps.Config.Logger.Errorf("insert: %s", err)
		l.element.Emit("error", map[string]any{"error": err.Error()})
		return
	}

	var added, updated []any
	var removed []string

	switch {
	case l.strategy == "append" && l.merge:
		added, updated = l.mergeBatch(items, keys, true)
	case l.strategy == "prepend" && l.merge:
		added, updated = l.mergeBatch(items, keys, false)
	case l.strategy == "append":
		added = l.additiveBatch(items, keys, true)
	case l.strategy == "prepend":
		added = l.additiveBatch(items, keys, false)
	default:
		added, removed = l.replaceBatch(items, keys)
	}

	removed = append(removed, l.applyWindow()...)

	wasNonEmpty := l.nonEmpty
	l.syncMirrors()
	l.nonEmpty = len(l.entries) > 0

	if len(removed) > 0 {
		l.element.Emit("remove", map[string]any{"keys": removed})
	}
	l.updateSlots()

	if l.nonEmpty && !l.everInitialized {
		l.everInitialized = true
		l.element.Emit("init", map[string]any{"count": len(l.entries)})
	}
	if len(added) > 0 {
		l.element.Emit("add", map[string]any{"items": added})
	}
	if len(updated) > 0 {
		l.element.Emit("update", map[string]any{"items": updated})
	}
	if wasNonEmpty && !l.nonEmpty {
		l.element.Emit("empty", map[string]any{})
	}
}

// container is where item root nodes actually live: the <insert>
// element itself, once its template/loading/error/empty control
// children are accounted for.
func (l *List) container() *domtree.Element { return l.element }

// snapshotByKey captures every current entry's scoped-state values,
// keyed by item key, before entries are discarded — so a replacing
// render can restore by key when that key reappears.
func (l *List) snapshotByKey() map[string]map[string]map[string]any {
	out := make(map[string]map[string]map[string]any, len(l.entries))
	for _, e := range l.entries {
		if snap := captureSnapshot(e.states); snap != nil {
			out[e.key] = snap
		}
	}
	return out
}

// replaceBatch implements the "replace" strategy: every
// currently rendered item is removed; the full new set is built in
// order, restoring scoped state for any key that reappears; the whole
// new set counts as "added".
func (l *List) replaceBatch(items []rawItem, keys []string) (added []any, removed []string) {
	restoreByKey := l.snapshotByKey()

	removed = make([]string, 0, len(l.entries))
	for _, e := range l.entries {
		l.container().RemoveChild(e.node)
		removed = append(removed, e.key)
	}

	entries := make([]*itemEntry, len(items))
	added = make([]any, len(items))
	for i, item := range items {
		key := keys[i]
		entry := l.newEntry(item, key, i, restoreByKey[key])
		l.container().AppendChild(entry.node)
		entries[i] = entry
		added[i] = item.value
	}
	l.entries = entries
	return added, removed
}

// additiveBatch implements the plain "append"/"prepend" strategies
//: every incoming item becomes a new node, unconditionally
// — "no de-duplication against prior keys" — inserted at the
// configured end. Returns the added item values.
func (l *List) additiveBatch(items []rawItem, keys []string, appendEnd bool) []any {
	added := make([]any, len(items))
	newEntries := make([]*itemEntry, len(items))
	for i, item := range items {
		entry := l.newEntry(item, keys[i], i, nil)
		newEntries[i] = entry
		added[i] = item.value
	}

	if appendEnd {
		for _, e := range newEntries {
			l.container().AppendChild(e.node)
		}
		l.entries = append(l.entries, newEntries...)
	} else {
		anchor := l.firstChild()
		for _, e := range newEntries {
			l.insertBeforeAnchor(e.node, anchor)
		}
		l.entries = append(newEntries, l.entries...)
	}
	return added
}

// mergeBatch implements the "merge" composition: a key
// already rendered is replaced in place with its scoped state
// restored; a new key is inserted at the strategy's end. Keys absent
// from the incoming batch are left untouched — merge never removes on
// its own, only window trimming does.
func (l *List) mergeBatch(items []rawItem, keys []string, appendEnd bool) (added, updated []any) {
	byKey := make(map[string]*itemEntry, len(l.entries))
	for _, e := range l.entries {
		byKey[e.key] = e
	}

	// last-one-wins de-duplication within the incoming batch, keeping
	// the last occurrence's item/index.
	dedup := make(map[string]int, len(keys))
	for i, k := range keys {
		dedup[k] = i
	}

	var newTail []*itemEntry
	seen := make(map[string]bool, len(keys))
	for i, item := range items {
		key := keys[i]
		if dedup[key] != i || seen[key] {
			continue
		}
		seen[key] = true

		if existing, ok := byKey[key]; ok {
			restore := captureSnapshot(existing.states)
			idx := l.indexOf(key)
			entry := l.newEntry(item, key, i, restore)
			// swap in place: a merged update must keep the item at its
			// existing position, not move it to the tail, so
			// this replaces the node positionally instead of
			// RemoveChild+AppendChild. ReplaceChild itself doesn't fire
			// removal hooks (the `if` binding relies on that to retain a
			// swapped-out node for reuse), but the old entry here is
			// discarded outright, so its hooks are fired explicitly.
			domtree.DestroySubtree(existing.node)
			l.container().ReplaceChild(entry.node, existing.node)
			if idx >= 0 {
				l.entries[idx] = entry
			}
			updated = append(updated, item.value)
			continue
		}

		entry := l.newEntry(item, key, i, nil)
		newTail = append(newTail, entry)
		added = append(added, item.value)
	}

	if appendEnd {
		for _, e := range newTail {
			l.container().AppendChild(e.node)
		}
		l.entries = append(l.entries, newTail...)
	} else {
		anchor := l.firstChild()
		for _, e := range newTail {
			l.insertBeforeAnchor(e.node, anchor)
		}
		l.entries = append(newTail, l.entries...)
	}
	return added, updated
}

func (l *List) indexOf(key string) int {
	for i, e := range l.entries {
		if e.key == key {
			return i
		}
	}
	return -1
}

// firstChild returns the container's first rendered item node, or nil
// if none yet, so prepend can anchor its insertion before it.
func (l *List) firstChild() *domtree.Element {
	if len(l.entries) == 0 {
		return nil
	}
	return l.entries[0].node
}

func (l *List) insertBeforeAnchor(node, anchor *domtree.Element) {
	if anchor == nil {
		l.container().AppendChild(node)
		return
	}
	l.container().InsertBefore(node, anchor)
}

// applyWindow enforces the `window` cap: once the rendered
// count exceeds window, the oldest entries are dropped — from the head
// for append(-merge), from the tail for prepend(-merge). Returns the
// dropped keys.
func (l *List) applyWindow() []string {
	if l.window <= 0 || len(l.entries) <= l.window {
		return nil
	}
	drop := len(l.entries) - l.window

	var dropped []*itemEntry
	if l.strategy == "prepend" {
		dropped = l.entries[len(l.entries)-drop:]
		l.entries = l.entries[:len(l.entries)-drop]
	} else {
		dropped = l.entries[:drop]
		l.entries = l.entries[drop:]
	}

	keys := make([]string, len(dropped))
	for i, e := range dropped {
		l.container().RemoveChild(e.node)
		keys[i] = e.key
	}
	return keys
}

// syncMirrors rebuilds the order/nodes/itemStates convenience maps
// from entries, the canonical structure every strategy mutates. Under
// a duplicate-key-tolerant strategy (append/prepend without merge) the
// mirror holds whichever entry for a repeated key appears last.
func (l *List) syncMirrors() {
	l.order = make([]string, len(l.entries))
	l.nodes = make(map[string]*domtree.Element, len(l.entries))
	l.itemStates = make(map[string]map[string]*statedef.State, len(l.entries))
	for i, e := range l.entries {
		l.order[i] = e.key
		l.nodes[e.key] = e.node
		if len(e.states) > 0 {
			l.itemStates[e.key] = e.states
		}
	}
}
