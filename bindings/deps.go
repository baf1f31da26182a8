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

// Package bindings implements the attribute-driven bindings
// (if/show/text/html/attr-<X>/model/on) that read an expression or run
// a handler against a host element on every reactive pass.
package bindings

import (
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/types"
)

// Deps bundles the collaborators every binding constructor needs,
// mirroring statedef.Deps/sourcedef.Deps.
type Deps struct {
	Config    types.Config
	Registry  *registry.Registry
	Scheduler *reactive.Scheduler
	Resolver  *reactive.Resolver
}
