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

// BindShow implements the `show` attribute: the element
// stays connected, toggling domtree.HiddenAttr instead of detaching.
func BindShow(el *domtree.Element, src string, deps Deps) (*reactive.Binding, error) {
	expr, err := compiler.CompileBoolExpression(src)
	if err != nil {
		return nil, err
	}

	b := &reactive.Binding{Name: "show@" + el.Tag}
	b.Update = func() {
		ctx := compiler.NewContext(deps.Resolver.ForElement(b, el))
		ok, err := expr.RunBool(ctx)
		if err != nil {
			deps.Config.Logger.Errorf("show binding: %s", err)
			ok = false
		}
		if ok {
			el.Show()
		} else {
			el.Hide()
		}
	}
	b.Update()
	return b, nil
}
