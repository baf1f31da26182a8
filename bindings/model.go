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

package bindings

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/reactive"
)

// modelRefPattern matches the `@state.path` form `model` is
// restricted to — a single reference, optionally followed by a path, with
// no surrounding expression syntax.
var modelRefPattern = regexp.MustCompile(`^@([A-Za-z_][\w$]*)(?:\.(.+))?$`)

func parseModelRef(src string) (name, path string, ok bool) {
	m := modelRefPattern.FindStringSubmatch(strings.TrimSpace(src))
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// modelGetter/modelSetter are the narrow surface BindModel needs from a
// resolved reference; refproxy.StateRef satisfies both.
type modelGetter interface {
	Get(path string) any
}

type modelSetter interface {
	Get(path string) any
	Set(path string, value any)
}

// BindModel implements the `model` attribute: two-way
// binding between a form control and `@state.path`.
func BindModel(el *domtree.Element, src string, deps Deps) (*reactive.Binding, error) {
	name, path, ok := parseModelRef(src)
	if !ok {
		deps.Config.Logger.Warnf("model binding: %q is not a bare @state.path reference", src)
		return nil, nil
	}

	b := &reactive.Binding{Name: "model@" + el.Tag}
	b.Update = func() {
		resolved := deps.Resolver.ForElement(b, el).Resolve(name)
		g, ok := resolved.(modelGetter)
		if !ok {
			return
		}
		setControlValue(el, g.Get(path))
	}

	write := func(*domtree.Element, *domtree.Event) {
		resolved := deps.Resolver.ForElement(nil, el).Resolve(name)
		s, ok := resolved.(modelSetter)
		if !ok {
			return
		}
		s.Set(path, readControlValue(el))
	}
	removeInput := el.AddEventListener("input", write)
	removeChange := el.AddEventListener("change", write)
	el.OnRemoved(removeInput)
	el.OnRemoved(removeChange)

	b.Update()
	return b, nil
}

// readControlValue is the type-aware control read:
// checkbox to boolean, numeric input to number-or-nil, multi-select to
// an array of selected option values, everything else to its raw
// string value attribute.
func readControlValue(el *domtree.Element) any {
	typ := el.AttrOr("type", "text")
	switch {
	case el.Tag == "select" && el.HasAttr("multiple"):
		var out []any
		for _, opt := range el.ChildElements() {
			if opt.Tag == "option" && opt.HasAttr("selected") {
				v, _ := opt.Attr("value")
				out = append(out, v)
			}
		}
		return out
	case typ == "checkbox":
		return el.HasAttr("checked")
	case typ == "number", typ == "range":
		raw, ok := el.Attr("value")
		if !ok || raw == "" {
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil
		}
		return f
	default:
		v, _ := el.Attr("value")
		return v
	}
}

// setControlValue is readControlValue's inverse, applied when the
// model's underlying state changes out from under the control.
func setControlValue(el *domtree.Element, val any) {
	typ := el.AttrOr("type", "text")
	switch {
	case el.Tag == "select" && el.HasAttr("multiple"):
		arr, _ := val.([]any)
		selected := map[string]bool{}
		for _, v := range arr {
			selected[coerceString(v)] = true
		}
		for _, opt := range el.ChildElements() {
			if opt.Tag != "option" {
				continue
			}
			v, _ := opt.Attr("value")
			if selected[v] {
				opt.SetBoolAttr("selected")
			} else {
				opt.RemoveAttr("selected")
			}
		}
	case typ == "checkbox":
		if b, _ := val.(bool); b {
			el.SetBoolAttr("checked")
		} else {
			el.RemoveAttr("checked")
		}
	case val == nil:
		el.RemoveAttr("value")
	default:
		el.SetAttr("value", coerceString(val))
	}
}
