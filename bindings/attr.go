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

// BindAttr implements the `attr-<X>` attribute family: name is the
// bare attribute name (the "attr-" prefix already stripped by the
// caller scanning the element).
func BindAttr(el *domtree.Element, name, src string, deps Deps) (*reactive.Binding, error) {
	expr, err := compiler.CompileExpression(src)
	if err != nil {
		return nil, err
	}

	b := &reactive.Binding{Name: "attr-" + name + "@" + el.Tag}
	b.Update = func() {
		ctx := compiler.NewContext(deps.Resolver.ForElement(b, el))
		out, err := expr.Run(ctx)
		if err != nil {
			deps.Config.Logger.Errorf("attr-%s binding: %s", name, err)
			el.RemoveAttr(name)
			return
		}
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
			el.SetAttr(name, coerceString(out))
		}
	}
	b.Update()
	return b, nil
}
