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

package onattr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseSingleClause(t *testing.T) {
	entries := Parse("click: @ui.count++")
	assert.Equal(t, []Entry{{Event: "click", Code: "@ui.count++"}}, entries)
}

func TestParseMultipleClauses(t *testing.T) {
	entries := Parse("click: a(); load: b()")
	assert.Equal(t, []Entry{
		{Event: "click", Code: "a()"},
		{Event: "load", Code: "b()"},
	}, entries)
}

func TestParseContinuationWithoutColon(t *testing.T) {
	entries := Parse("click: foo(); bar()")
	assert.Equal(t, []Entry{
		{Event: "click", Code: "foo(); bar()"},
	}, entries)
}

func TestParseIgnoresColonAndSemicolonInsideQuotes(t *testing.T) {
	entries := Parse(`click: x ? 'a:b' : 'c;d'`)
	assert.Equal(t, []Entry{
		{Event: "click", Code: `x ? 'a:b' : 'c;d'`},
	}, entries)
}

func TestParseIgnoresColonAndSemicolonInsideBrackets(t *testing.T) {
	entries := Parse(`click: foo({a: 1, b: 2})`)
	assert.Equal(t, []Entry{
		{Event: "click", Code: `foo({a: 1, b: 2})`},
	}, entries)
}

func TestParseTemplateLiteralWithInterpolation(t *testing.T) {
	entries := Parse("click: emit('x', `id:${item.id};${item.name}`)")
	assert.Equal(t, []Entry{
		{Event: "click", Code: "emit('x', `id:${item.id};${item.name}`)"},
	}, entries)
}

func TestParseEveryClauseSetsDuration(t *testing.T) {
	entries := Parse("every 5s: refresh('feed')")
	assert.Len(t, entries, 1)
	assert.True(t, entries[0].IsEvery)
	assert.Equal(t, 5*time.Second, entries[0].Every)
	assert.Equal(t, "refresh('feed')", entries[0].Code)
}

func TestParseDropsEmptyCode(t *testing.T) {
	entries := Parse("click: ; load: go()")
	assert.Equal(t, []Entry{{Event: "load", Code: "go()"}}, entries)
}

func TestParseEmptyInputYieldsNoEntries(t *testing.T) {
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("   "))
}
