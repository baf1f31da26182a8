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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapResolver map[string]any

func (m mapResolver) Resolve(name string) any { return m[name] }

func TestRewriteRefsReplacesAtNames(t *testing.T) {
	got := RewriteRefs(`@count + 1`)
	assert.Equal(t, `$ref("count") + 1`, got)
}

func TestReferencedNamesDedupes(t *testing.T) {
	names := ReferencedNames(`@a + @b + @a`)
	assert.Equal(t, []string{"a", "b"}, names)
}

func TestCompileExpressionResolvesRef(t *testing.T) {
	expr, err := CompileExpression(`@count * 2`)
	require.NoError(t, err)

	ctx := NewContext(mapResolver{"count": 5})
	out, err := expr.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, out)
}

func TestCompileBoolExpressionUndefinedFallsBackFalse(t *testing.T) {
	expr, err := CompileBoolExpression(`@missing`)
	require.NoError(t, err)

	ctx := NewContext(mapResolver{})
	ok, err := expr.RunBool(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompileExpressionUsesLocals(t *testing.T) {
	expr, err := CompileExpression(`item.name + " #" + string($index)`)
	require.NoError(t, err)

	ctx := NewContext(nil).WithLocal("item", map[string]any{"name": "row"}).WithLocal("$index", 3)
	out, err := expr.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "row #3", out)
}

func TestCompileStatementAssignsAndEmits(t *testing.T) {
	stmt, err := CompileStatement(`count = @count + 1; emit("bumped", count)`)
	require.NoError(t, err)

	var emitted any
	ctx := NewContext(mapResolver{"count": 1}).WithLocal("count", 1)
	err = stmt.Run(ctx, Helpers{Emit: func(name string, detail any) {
		if name == "bumped" {
			emitted = detail
		}
	}})
	require.NoError(t, err)
	assert.EqualValues(t, 2, emitted)
}

func TestCompileStatementCallsRefresh(t *testing.T) {
	stmt, err := CompileStatement(`refresh("feed")`)
	require.NoError(t, err)

	var refreshed string
	ctx := NewContext(mapResolver{})
	err = stmt.Run(ctx, Helpers{Refresh: func(name string) error {
		refreshed = name
		return nil
	}})
	require.NoError(t, err)
	assert.Equal(t, "feed", refreshed)
}
