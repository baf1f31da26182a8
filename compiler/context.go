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

package compiler

// RefResolver resolves an `@name` reference — already rewritten to a
// `$ref("name")` call by RewriteRefs — to its current value.
// reactive.ElementResolver is the engine's implementation; Context
// checks its own locals before asking the resolver.
type RefResolver interface {
	Resolve(name string) any
}

// Helpers bundles the side-effecting operations a statement-mode
// handler body may call: emit, refresh, and the mutating
// HTTP verbs handler code uses to push changes back to a server. Expression-mode bodies never receive these: they are
// read-only by construction.
type Helpers struct {
	Emit    func(name string, detail any)
	Refresh func(name string) error
	Get     func(url string) (any, error)
	Post    func(url string, body any) (any, error)
	Put     func(url string, body any) (any, error)
	Patch   func(url string, body any) (any, error)
	Delete  func(url string) (any, error)
}

// Context carries everything a single compiled Expression or Statement
// run needs beyond its own source: the resolver behind every `@name`,
// and the reserved locals in scope: the list item, its optional
// index/key aliases, $root, and for handlers $event/$el.
type Context struct {
	Resolver RefResolver
	Locals   map[string]any
}

// NewContext builds a Context with an empty locals map, ready for
// With* chaining.
func NewContext(resolver RefResolver) *Context {
	return &Context{Resolver: resolver, Locals: map[string]any{}}
}

// WithLocal returns a shallow copy of ctx with name bound to value,
// used to introduce the item/index/key variables for one list item
// without mutating the shared Context other items see.
func (c *Context) WithLocal(name string, value any) *Context {
	next := &Context{Resolver: c.Resolver, Locals: make(map[string]any, len(c.Locals)+1)}
	for k, v := range c.Locals {
		next.Locals[k] = v
	}
	next.Locals[name] = value
	return next
}

// resolve prioritizes locals over definitions with the same name (an
// in-scope item or key variable shadows the registry), then falls
// through to the scope resolver.
func (c *Context) resolve(name string) any {
	if c == nil {
		return nil
	}
	if v, ok := c.Locals[name]; ok {
		return v
	}
	if c.Resolver == nil {
		return nil
	}
	return c.Resolver.Resolve(name)
}

// buildEnv flattens locals plus the $ref function into a single map
// suitable as an expr-lang global environment. Expression mode is
// read-only, so $ref unwraps a resolved reference proxy to its raw
// JSON-shaped value rather than the proxy struct: expr-lang has no
// hook for dynamic property interception on a Go struct, but it does
// support "." and "[]" member access on map[string]any/[]any natively,
// so returning the raw value is what makes `@state.user.name` resolve
// inside an expr-lang program. Statement mode (goja) needs the proxy
// itself to support assignment and is built separately in
// statement.go's refEnv.
func (c *Context) buildEnv() map[string]any {
	env := make(map[string]any, len(c.Locals)+2)
	for k, v := range c.Locals {
		env[k] = v
	}
	env["$ref"] = func(name string) any { return unwrapRef(c.resolve(name)) }
	env["$locals"] = c.Locals
	return env
}

// rawValue is implemented by refproxy.StateRef/SourceRef (Raw()
// returns the unwrapped live value). Declared locally to avoid
// compiler importing refproxy just for a two-method interface.
type rawValue interface {
	Raw() any
}

func unwrapRef(v any) any {
	if rv, ok := v.(rawValue); ok {
		return rv.Raw()
	}
	return v
}
