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

package reactive

import "github.com/bittoy/jtx/registry"

// Binding is one attribute binding's update function, scheduled on
// every flush whenever one of its recorded dependencies changes. The
// bindings package constructs these; reactive only needs
// identity and an Update callback.
type Binding struct {
	// Name is a diagnostic label ("if@div", "model@input"), not
	// used for identity — Binding pointers are the identity.
	Name   string
	Update func()
}

// Flushable is implemented by state definitions: the scheduler drives
// each tracked one through FlushPending on every flush, before
// re-running affected bindings: persist, URL-sync,
// fire `update`, clear pendingKeys.
type Flushable interface {
	FlushPending()
}

// RefFactory is implemented by statedef.State and sourcedef.Source so
// the resolver can turn a resolved definition into the right kind of
// reference proxy without reactive importing either package.
type RefFactory interface {
	registry.Definition
	Ref() any
}
