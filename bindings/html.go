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

// BindHTML implements the `html` attribute: the result
// passes through deps.Config.Sanitize (identity when no sanitizer was
// configured) before replacing the element's markup.
func BindHTML(el *domtree.Element, src string, deps Deps) (*reactive.Binding, error) {
	expr, err := compiler.CompileExpression(src)
	if err != nil {
		return nil, err
	}
	initial := el.InnerHTML()

	b := &reactive.Binding{Name: "html@" + el.Tag}
	b.Update = func() {
		ctx := compiler.NewContext(deps.Resolver.ForElement(b, el))
		out, err := expr.Run(ctx)
		if err != nil {
			deps.Config.Logger.Errorf("html binding: %s", err)
			el.SetInnerHTML(initial)
			return
		}
		if isNullish(out) {
			el.SetInnerHTML(initial)
			return
		}
		el.SetInnerHTML(deps.Config.Sanitize(coerceString(out)))
	}
	b.Update()
	return b, nil
}
