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

import (
	"sync"

	"github.com/dop251/goja"

	"github.com/bittoy/jtx/types"
)

// Statement is a statement-mode binding body: an `on="event:code"`
// handler or an interval tick, which unlike Expression needs real
// assignment, increment, and ternary semantics. Compiled once with
// goja.Compile and run with a scratch goja.Runtime per call.
type Statement struct {
	src  string
	prog *goja.Program

	mu sync.Mutex
}

// CompileStatement rewrites `@name` references then parses src as a
// goja program. Unlike CompileExpression, no vm.Run-style undefined-
// variable allowance exists — a reference to an unbound name in
// statement mode is a ReferenceError at run time, caught by Run and
// reported through types.ExpressionError.
func CompileStatement(src string) (*Statement, error) {
	rewritten := RewriteRefs(src)
	prog, err := goja.Compile("", rewritten, false)
	if err != nil {
		return nil, &types.ExpressionError{Expr: src, Err: err}
	}
	return &Statement{src: src, prog: prog}, nil
}

// Run executes the compiled handler body against ctx's locals and the
// given side-effecting helpers. Run is called from event dispatch and
// from interval goroutines, so the mutex serializes concurrent calls.
func (s *Statement) Run(ctx *Context, h Helpers) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt := goja.New()
	rt.SetFieldNameMapper(goja.UncapFieldNameMapper())
	for k, v := range ctx.Locals {
		if err := rt.Set(k, v); err != nil {
			return &types.ExpressionError{Expr: s.src, Err: err}
		}
	}
	_ = rt.Set("$ref", func(name string) goja.Value { return refDynamicValue(rt, ctx.resolve(name)) })
	_ = rt.Set("$locals", ctx.Locals)
	_ = rt.Set("emit", func(name string, detail any) {
		if h.Emit != nil {
			h.Emit(name, detail)
		}
	})
	_ = rt.Set("refresh", func(name string) {
		if h.Refresh != nil {
			_ = h.Refresh(name)
		}
	})
	_ = rt.Set("get", wrapFetch(h.Get))
	_ = rt.Set("post", wrapMutate(h.Post))
	_ = rt.Set("put", wrapMutate(h.Put))
	_ = rt.Set("patch", wrapMutate(h.Patch))
	_ = rt.Set("del", wrapFetch(h.Delete))

	if _, err := rt.RunProgram(s.prog); err != nil {
		return &types.ExpressionError{Expr: s.src, Err: err}
	}
	return nil
}

func wrapFetch(fn func(url string) (any, error)) func(string) any {
	return func(url string) any {
		if fn == nil {
			return nil
		}
		v, err := fn(url)
		if err != nil {
			return nil
		}
		return v
	}
}

func wrapMutate(fn func(url string, body any) (any, error)) func(string, any) any {
	return func(url string, body any) any {
		if fn == nil {
			return nil
		}
		v, err := fn(url, body)
		if err != nil {
			return nil
		}
		return v
	}
}

// Source returns the original, pre-rewrite statement text.
func (s *Statement) Source() string { return s.src }
