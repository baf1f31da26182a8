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
	"github.com/bittoy/jtx/compiler"
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/reactive"
)

// BindIf implements the `if` attribute: a falsy result
// swaps el for a placeholder comment, retaining el itself (and every
// binding/state it holds) for reinsertion at the same position once
// the expression turns truthy again.
func BindIf(el *domtree.Element, src string, deps Deps) (*reactive.Binding, error) {
	expr, err := compiler.CompileBoolExpression(src)
	if err != nil {
		return nil, err
	}

	placeholder := domtree.NewComment("jtx-if")
	inTree := true

	b := &reactive.Binding{Name: "if@" + el.Tag}
	b.Update = func() {
		ctx := compiler.NewContext(deps.Resolver.ForElement(b, el))
		ok, err := expr.RunBool(ctx)
		if err != nil {
			deps.Config.Logger.Errorf("if binding: %s", err)
			ok = false
		}

		switch {
		case ok && !inTree:
			parent := placeholder.Parent()
			if parent != nil {
				parent.ReplaceChild(el, placeholder)
				el.SetHost(nil)
			}
			inTree = true
		case !ok && inTree:
			parent := el.Parent()
			if parent != nil {
				parent.ReplaceChild(placeholder, el)
				// the detached node keeps its lexical scope through the
				// host pointer, so this binding (and any binding inside
				// the retained subtree) still resolves @names and reruns
				// when they change.
				el.SetHost(parent)
			}
			inTree = false
		}
	}
	b.Update()
	return b, nil
}
