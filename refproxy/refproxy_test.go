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

package refproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeState struct {
	val any
	set map[string]any
}

func (f *fakeState) Value() any { return f.val }
func (f *fakeState) SetPath(path string, value any) {
	if f.set == nil {
		f.set = map[string]any{}
	}
	f.set[path] = value
}

func TestStateRefGetPath(t *testing.T) {
	s := &fakeState{val: map[string]any{"user": map[string]any{"name": "ada"}}}
	ref := NewStateRef(s)
	assert.Equal(t, "ada", ref.Get("user.name"))
}

func TestStateRefSetDelegates(t *testing.T) {
	s := &fakeState{val: map[string]any{}}
	ref := NewStateRef(s)
	ref.Set("count", 5)
	require.Contains(t, s.set, "count")
	assert.Equal(t, 5, s.set["count"])
}

func TestCanonicalStringPrefersTitle(t *testing.T) {
	v := map[string]any{"id": 1, "title": "Hello"}
	assert.Equal(t, "Hello", CanonicalString(v))
}

func TestCanonicalStringSingleKeyFallback(t *testing.T) {
	v := map[string]any{"count": 3}
	assert.Equal(t, "3", CanonicalString(v))
}

func TestSourceRefExposesStatusAndRefresh(t *testing.T) {
	s := &fakeState{val: map[string]any{"a": 1}}
	refreshed := false
	ref := NewSourceRef(s, func() string { return "ready" }, func() error { return nil }, func() error {
		refreshed = true
		return nil
	})
	assert.Equal(t, "ready", ref.Status())
	require.NoError(t, ref.Refresh())
	assert.True(t, refreshed)
}
