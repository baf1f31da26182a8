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
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/bittoy/jtx/types"
)

// Expression is an expression-mode binding body, compiled once and run
// with a fresh Context/env on every reactive pass.
type Expression struct {
	src     string
	program *vm.Program
}

// CompileExpression rewrites `@name` references then compiles src as
// an expr-lang program. Undefined identifiers are allowed: an
// unresolved reference degrades to an empty value rather than
// failing compilation.
func CompileExpression(src string) (*Expression, error) {
	rewritten := RewriteRefs(src)
	program, err := expr.Compile(rewritten, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, &types.ExpressionError{Expr: src, Err: err}
	}
	return &Expression{src: src, program: program}, nil
}

// CompileBoolExpression is CompileExpression for binding kinds whose
// result is read as a truth value (if, show). The coercion happens in
// RunBool rather than via expr.AsBool(): these bindings take "truthy"
// in the scripting sense — a non-empty string or any object passes —
// where AsBool would reject everything that isn't already a bool.
func CompileBoolExpression(src string) (*Expression, error) {
	return CompileExpression(src)
}

// Run evaluates the compiled program against ctx's locals and
// reference resolver.
func (e *Expression) Run(ctx *Context) (any, error) {
	env := ctx.buildEnv()
	out, err := expr.Run(e.program, env)
	if err != nil {
		return nil, &types.ExpressionError{Expr: e.src, Err: err}
	}
	return out, nil
}

// RunBool is Run plus truthiness coercion: nil, false, zero numbers,
// and the empty string are falsy; everything else passes.
func (e *Expression) RunBool(ctx *Context) (bool, error) {
	out, err := e.Run(ctx)
	if err != nil {
		return false, err
	}
	return Truthy(out), nil
}

// Truthy applies scripting-style truthiness to an expression result.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	default:
		return true
	}
}

// Source returns the original, pre-rewrite expression text, for
// diagnostics and the debug aspect.
func (e *Expression) Source() string { return e.src }
