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

// BindText implements the `text` attribute: null/undefined
// restores the text captured at bind time, before any binding ran.
func BindText(el *domtree.Element, src string, deps Deps) (*reactive.Binding, error) {
	expr, err := compiler.CompileExpression(src)
	if err != nil {
		return nil, err
	}
	initial := el.Text()

	b := &reactive.Binding{Name: "text@" + el.Tag}
	b.Update = func() {
		ctx := compiler.NewContext(deps.Resolver.ForElement(b, el))
		out, err := expr.Run(ctx)
		if err != nil {
			deps.Config.Logger.Errorf("text binding: %s", err)
			el.SetTextContent(initial)
			return
		}
		if isNullish(out) {
			el.SetTextContent(initial)
			return
		}
		el.SetTextContent(coerceString(out))
	}
	b.Update()
	return b, nil
}
