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

package statedef

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/storage"
	"github.com/bittoy/jtx/types"
)

func newDeps() Deps {
	logger := types.NewDefaultLogger()
	cfg := types.NewConfig(types.WithKVStore(storage.NewMemory()), types.WithURLStore(storage.NewMemoryURL("")))
	sched := reactive.NewScheduler(logger)
	reg := registry.New(logger)
	return Deps{Config: cfg, Registry: reg, Scheduler: sched, Resolver: reactive.NewResolver(sched.Graph(), reg, logger)}
}

func TestInitSeedsKeysFromAttributes(t *testing.T) {
	el := domtree.NewElement("state")
	el.SetAttr("name", "ui")
	el.SetAttr("counter", "0")
	el.SetAttr("label", `"hello"`)

	s, err := Init(el, newDeps(), false, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Value().(map[string]any)["counter"])
	assert.Equal(t, "hello", s.Value().(map[string]any)["label"])
}

func TestInitSkipsReservedAndJtxAttributes(t *testing.T) {
	el := domtree.NewElement("state")
	el.SetAttr("name", "ui")
	el.SetAttr("persist", "counter")
	el.SetAttr("jtx-foo", "1")
	el.SetAttr("counter", "1")

	s, err := Init(el, newDeps(), false, nil)
	require.NoError(t, err)
	v := s.Value().(map[string]any)
	_, hasJtx := v["jtx-foo"]
	assert.False(t, hasJtx)
	assert.Equal(t, 1, v["counter"])
}

func TestSetPathMarksPendingAndFlushFiresUpdate(t *testing.T) {
	el := domtree.NewElement("state")
	el.SetAttr("name", "ui")
	el.SetAttr("counter", "0")

	deps := newDeps()
	s, err := Init(el, deps, false, nil)
	require.NoError(t, err)

	var gotKeys []string
	el.AddEventListener("update", func(_ *domtree.Element, ev *domtree.Event) {
		detail := ev.Detail.(map[string]any)
		for _, k := range detail["keys"].([]string) {
			gotKeys = append(gotKeys, k)
		}
	})

	s.SetPath("counter", 1)
	s.FlushPending()

	assert.Equal(t, []string{"counter"}, gotKeys)
	assert.Empty(t, s.pendingKeys)
}

func TestPersistedKeyRoundTripsThroughKVStore(t *testing.T) {
	deps := newDeps()
	el := domtree.NewElement("state")
	el.SetAttr("name", "ui")
	el.SetAttr("persist", "counter")
	el.SetAttr("counter", "0")

	s, err := Init(el, deps, false, nil)
	require.NoError(t, err)
	s.SetPath("counter", 7)
	s.FlushPending()

	raw, ok := deps.Config.KV.Get("jtx:ui:counter")
	require.True(t, ok)
	assert.Equal(t, "7", raw)
}

func TestPersistedValueRestoredOnInit(t *testing.T) {
	deps := newDeps()
	deps.Config.KV.Set("jtx:ui:counter", "42")

	el := domtree.NewElement("state")
	el.SetAttr("name", "ui")
	el.SetAttr("persist", "counter")
	el.SetAttr("counter", "0")

	s, err := Init(el, deps, false, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(42), s.Value().(map[string]any)["counter"])
}

func TestScopedStateIsNotGloballyRegistered(t *testing.T) {
	deps := newDeps()
	el := domtree.NewElement("state")
	el.SetAttr("name", "item")
	el.SetAttr("x", "1")

	_, err := Init(el, deps, true, nil)
	require.NoError(t, err)

	_, ok := deps.Registry.Lookup(registry.KindState, "item")
	assert.False(t, ok)
}

func TestRemovalUnregistersAndDetachesMarker(t *testing.T) {
	deps := newDeps()
	el := domtree.NewElement("state")
	el.SetAttr("name", "ui")

	_, err := Init(el, deps, false, nil)
	require.NoError(t, err)
	_, ok := deps.Registry.Lookup(registry.KindState, "ui")
	require.True(t, ok)

	parent := domtree.NewElement("div")
	parent.AppendChild(el)
	parent.RemoveChild(el)

	_, ok = deps.Registry.Lookup(registry.KindState, "ui")
	assert.False(t, ok)
}
