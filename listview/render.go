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
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bittoy/jtx/bindings"
	"github.com/bittoy/jtx/compiler"
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/jtxutil"
	"github.com/bittoy/jtx/refproxy"
	"github.com/bittoy/jtx/sourcedef"
	"github.com/bittoy/jtx/statedef"
)

// rawItem is one un-keyed element of a normalized `for` right-hand
// side, before key derivation.
type rawItem struct {
	value     any
	objKey    string
	hasObjKey bool
}

// normalizeItems applies the right-hand-side coercion
// table: array, object (only meaningful with a declared key variable),
// null/undefined (a single-element iteration), or anything else
// (wrapped as one element).
func normalizeItems(raw any, hasKeyVar bool) []rawItem {
	raw = refproxy.Unwrap(raw)
	switch v := raw.(type) {
	case nil:
		return []rawItem{{value: nil}}
	case []any:
		out := make([]rawItem, len(v))
		for i, item := range v {
			out[i] = rawItem{value: item}
		}
		return out
	case map[string]any:
		if !hasKeyVar {
			return []rawItem{{value: v}}
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]rawItem, 0, len(keys))
		for _, k := range keys {
			out = append(out, rawItem{value: v[k], objKey: k, hasObjKey: true})
		}
		return out
	default:
		return []rawItem{{value: v}}
	}
}

// keyedItem pairs a rawItem with its derived string key.
type keyedItem struct {
	rawItem
	key   string
	index int
}

func coerceKeyString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return refproxy.CanonicalString(v)
}

// deriveKey derives an item's identity: `key="<expr>"` if
// present, else the object key, else the positional index.
func (l *List) deriveKey(item rawItem, index int) (string, error) {
	if l.keyExpr != nil {
		ctx := l.itemContext(item, index)
		out, err := l.keyExpr.Run(ctx)
		if err != nil {
			return "", err
		}
		return coerceKeyString(out), nil
	}
	if item.hasObjKey {
		return item.objKey, nil
	}
	return strconv.Itoa(index), nil
}

// localNames is the set of reserved/declared names treated as
// "local" for the immediate-eval-and-strip rule.
func (l *List) localNames() map[string]bool {
	names := map[string]bool{l.itemVar: true, "$": true, "$index": true, "$key": true, "$root": true}
	if l.keyVar != "" {
		names[l.keyVar] = true
	}
	return names
}

// itemContext builds the per-item compiler.Context: the item alias,
// `$`, `$index`, `$key`, the optional key-variable alias, and `$root`
// (the raw, un-normalized `for` right-hand side value for this render
// cycle).
func (l *List) itemContext(item rawItem, index int) *compiler.Context {
	ctx := compiler.NewContext(l.deps.Resolver.ForElement(nil, l.element))
	key := item.objKey
	if !item.hasObjKey {
		key = strconv.Itoa(index)
	}
	ctx.Locals[l.itemVar] = item.value
	ctx.Locals["$"] = item.value
	ctx.Locals["$index"] = index
	ctx.Locals["$key"] = key
	ctx.Locals["$root"] = l.currentRaw
	if l.keyVar != "" {
		ctx.Locals[l.keyVar] = key
	}
	return ctx
}

// compileItem clones the template blueprint and binds it against one
// item's locals. restore, if
// non-nil, is the prior scoped-state snapshot for this key (used by
// merge-strategy re-renders to preserve user-visible state). Scoped
// states discovered while walking the clone are recorded into states
// so a later re-render of the same key can snapshot them.
func (l *List) compileItem(item rawItem, key string, index int, restore map[string]map[string]any) (*domtree.Element, map[string]*statedef.State) {
	node := l.template.Clone()
	node.SetData(listKeyData, key)
	node.SetAttr(domtree.KeyAttr, key)

	locals := map[string]any{}
	ctx := l.itemContext(item, index)
	for k, v := range ctx.Locals {
		locals[k] = v
	}

	states := map[string]*statedef.State{}
	l.walk(node, locals, l.localNames(), restore, states)
	return node, states
}

// newEntry builds and inserts one rendered item, wiring its scoped
// states against restore (nil for a fresh node).
func (l *List) newEntry(item rawItem, key string, index int, restore map[string]map[string]any) *itemEntry {
	node, states := l.compileItem(item, key, index, restore)
	return &itemEntry{key: key, value: item.value, node: node, states: states}
}

func (l *List) walk(el *domtree.Element, locals map[string]any, localNames map[string]bool, restore map[string]map[string]any, states map[string]*statedef.State) {
	switch el.Tag {
	case "state":
		name, _ := el.Attr("name")
		var snapshot map[string]any
		if restore != nil {
			snapshot = restore[name]
		}
		s, err := statedef.Init(el, statedef.Deps(l.deps), true, snapshot)
		if err != nil {
			l.deps.Config.Logger.Warnf("insert item state: %s", err)
		} else {
			states[name] = s
		}
	case "src":
		if _, err := sourcedef.Init(el, sourcedef.Deps(l.deps), true); err != nil {
			l.deps.Config.Logger.Warnf("insert item source: %s", err)
		}
	}

	for _, attr := range el.Attrs() {
		raw, _ := el.Attr(attr)
		l.bindAttr(el, attr, raw, locals, localNames)
	}

	for _, child := range el.ChildElements() {
		if child.Tag == "template" {
			continue
		}
		l.walk(child, locals, localNames, restore, states)
	}
}

// bindAttr implements the immediate-eval-and-strip vs. normal-binding
// split: a jtx-bindable attribute referencing a local is
// evaluated once against this item's locals and removed; otherwise it
// becomes a regular reactive binding (locals are still threaded
// through for `on`, whose handler body may read them at call time).
func (l *List) bindAttr(el *domtree.Element, attr, raw string, locals map[string]any, localNames map[string]bool) {
	deps := bindings.Deps(l.deps)
	switch {
	case attr == "if":
		if referencesLocals(raw, localNames) {
			l.evalImmediate(el, raw, locals, func(out any) { applyIfImmediate(el, truthy(out)) })
			el.RemoveAttr(attr)
			return
		}
		_, _ = bindings.BindIf(el, raw, deps)
	case attr == "show":
		if referencesLocals(raw, localNames) {
			l.evalImmediate(el, raw, locals, func(out any) { applyShowImmediate(el, truthy(out)) })
			el.RemoveAttr(attr)
			return
		}
		_, _ = bindings.BindShow(el, raw, deps)
	case attr == "text":
		if referencesLocals(raw, localNames) {
			initial := el.Text()
			l.evalImmediate(el, raw, locals, func(out any) { applyTextImmediate(el, out, initial) })
			el.RemoveAttr(attr)
			return
		}
		_, _ = bindings.BindText(el, raw, deps)
	case attr == "html":
		if referencesLocals(raw, localNames) {
			initial := el.InnerHTML()
			l.evalImmediate(el, raw, locals, func(out any) { applyHTMLImmediate(el, out, initial, l.deps) })
			el.RemoveAttr(attr)
			return
		}
		_, _ = bindings.BindHTML(el, raw, deps)
	case strings.HasPrefix(attr, "attr-"):
		name := strings.TrimPrefix(attr, "attr-")
		if referencesLocals(raw, localNames) {
			l.evalImmediate(el, raw, locals, func(out any) { applyAttrImmediate(el, name, out) })
			el.RemoveAttr(attr)
			return
		}
		_, _ = bindings.BindAttr(el, name, raw, deps)
	case attr == "model":
		_, _ = bindings.BindModel(el, raw, deps)
	case attr == "on":
		bindings.BindOn(el, raw, deps, locals)
	}
}

// identPattern finds bare identifier tokens in an expression body. Item
// locals (item/$/$index/$key/$root and any key-variable alias) are
// plain expr-lang environment names, not `@`-refs, so detecting them
// means scanning for bare identifiers rather than compiler.
// ReferencedNames (which only finds `@name` refs). A match preceded by
// "." (a member access like "x.item") or "@" (an actual ref) is not a
// bare-identifier use and is excluded.
var identPattern = regexp.MustCompile(`[A-Za-z_$][\w$]*`)

func referencesLocals(src string, localNames map[string]bool) bool {
	for _, m := range identPattern.FindAllStringIndex(src, -1) {
		start, end := m[0], m[1]
		if start > 0 {
			prev := src[start-1]
			if prev == '.' || prev == '@' {
				continue
			}
		}
		if localNames[src[start:end]] {
			return true
		}
	}
	return false
}

func (l *List) evalImmediate(el *domtree.Element, src string, locals map[string]any, apply func(any)) {
	expr, err := compiler.CompileExpression(src)
	if err != nil {
		l.deps.Config.Logger.Errorf("insert item binding: %s", err)
		return
	}
	ctx := compiler.NewContext(l.deps.Resolver.ForElement(nil, el))
	for k, v := range locals {
		ctx.Locals[k] = v
	}
	out, err := expr.Run(ctx)
	if err != nil {
		l.deps.Config.Logger.Errorf("insert item binding: %s", err)
		return
	}
	apply(out)
}

func truthy(v any) bool { return compiler.Truthy(v) }

// applyIfImmediate drops el from its (still in-progress) clone tree
// outright when false, since a local-only `if` can never change
// without the whole item being re-rendered.
func applyIfImmediate(el *domtree.Element, ok bool) {
	if ok {
		return
	}
	if parent := el.Parent(); parent != nil {
		parent.RemoveChild(el)
	}
}

func applyShowImmediate(el *domtree.Element, ok bool) {
	if ok {
		el.Show()
	} else {
		el.Hide()
	}
}

func applyTextImmediate(el *domtree.Element, out any, initial string) {
	if out == nil {
		el.SetTextContent(initial)
		return
	}
	el.SetTextContent(refproxy.CanonicalString(out))
}

func applyHTMLImmediate(el *domtree.Element, out any, initial string, deps Deps) {
	if out == nil {
		el.SetInnerHTML(initial)
		return
	}
	el.SetInnerHTML(deps.Config.Sanitize(refproxy.CanonicalString(out)))
}

func applyAttrImmediate(el *domtree.Element, name string, out any) {
	switch v := out.(type) {
	case nil:
		el.RemoveAttr(name)
	case bool:
		if v {
			el.SetBoolAttr(name)
		} else {
			el.RemoveAttr(name)
		}
	default:
		el.SetAttr(name, refproxy.CanonicalString(out))
	}
}

// captureSnapshot reads every named scoped state's current value,
// cloned so later mutation of the live state can't alias the restore
// map passed into the replacement item. The result is keyed by state
// name exactly as walk's restore lookup expects.
func captureSnapshot(states map[string]*statedef.State) map[string]map[string]any {
	if len(states) == 0 {
		return nil
	}
	out := make(map[string]map[string]any, len(states))
	for name, s := range states {
		val, _ := jtxutil.Clone(s.Value()).(map[string]any)
		out[name] = val
	}
	return out
}
