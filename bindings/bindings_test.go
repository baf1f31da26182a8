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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/statedef"
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

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func newState(t *testing.T, deps Deps, name string, attrs map[string]string) (*domtree.Element, *statedef.State) {
	t.Helper()
	el := domtree.NewElement("state")
	el.SetAttr("name", name)
	for k, v := range attrs {
		el.SetAttr(k, v)
	}
	s, err := statedef.Init(el, statedef.Deps(deps), false, nil)
	require.NoError(t, err)
	return el, s
}

func TestBindIfTogglesElementOutOfTree(t *testing.T) {
	deps := newDeps()
	_, s := newState(t, deps, "ui", map[string]string{"open": "true"})

	// attach target under the state's element so the ancestor walk
	// resolves @ui without a global registry hit.
	stateElement := s.Element()
	target := domtree.NewElement("span")
	stateElement.AppendChild(target)

	b, err := BindIf(target, "@ui.open", deps)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, target, stateElement.ChildElements()[0])

	s.SetPath("open", false)
	waitUntil(t, func() bool { return len(stateElement.ChildElements()) == 0 })

	s.SetPath("open", true)
	waitUntil(t, func() bool { return len(stateElement.ChildElements()) == 1 })
}

func TestBindShowTogglesHiddenAttr(t *testing.T) {
	deps := newDeps()
	_, s := newState(t, deps, "ui", map[string]string{"open": "true"})
	target := domtree.NewElement("span")
	s.Element().AppendChild(target)

	_, err := BindShow(target, "@ui.open", deps)
	require.NoError(t, err)
	assert.False(t, target.HasAttr(domtree.HiddenAttr))

	s.SetPath("open", false)
	waitUntil(t, func() bool { return target.HasAttr(domtree.HiddenAttr) })
}

func TestBindTextRestoresInitialOnNull(t *testing.T) {
	deps := newDeps()
	_, s := newState(t, deps, "ui", map[string]string{})
	target := domtree.NewElement("span")
	target.AppendChild(domtree.NewText("placeholder"))
	s.Element().AppendChild(target)

	_, err := BindText(target, "@ui.label", deps)
	require.NoError(t, err)
	assert.Equal(t, "placeholder", target.Text())

	s.SetPath("label", "hi")
	waitUntil(t, func() bool { return target.Text() == "hi" })

	s.SetPath("label", nil)
	waitUntil(t, func() bool { return target.Text() == "placeholder" })
}

func TestBindAttrBooleanAndRemoval(t *testing.T) {
	deps := newDeps()
	_, s := newState(t, deps, "ui", map[string]string{"disabled": "true"})
	target := domtree.NewElement("button")
	s.Element().AppendChild(target)

	_, err := BindAttr(target, "disabled", "@ui.disabled", deps)
	require.NoError(t, err)
	assert.True(t, target.HasAttr("disabled"))

	s.SetPath("disabled", false)
	waitUntil(t, func() bool { return !target.HasAttr("disabled") })
}

func TestBindModelReadsAndWritesState(t *testing.T) {
	deps := newDeps()
	_, s := newState(t, deps, "form", map[string]string{"nick": `"bob"`})
	input := domtree.NewElement("input")
	input.SetAttr("value", "")
	s.Element().AppendChild(input)

	_, err := BindModel(input, "@form.nick", deps)
	require.NoError(t, err)
	v, _ := input.Attr("value")
	assert.Equal(t, "bob", v)

	input.SetAttr("value", "alice")
	input.Dispatch(&domtree.Event{Type: "input"})
	waitUntil(t, func() bool {
		return s.Value().(map[string]any)["nick"] == "alice"
	})
}

func TestBindOnRunsHandlerAndSchedulesRender(t *testing.T) {
	deps := newDeps()
	_, s := newState(t, deps, "ui", map[string]string{"count": "0"})
	btn := domtree.NewElement("button")
	s.Element().AppendChild(btn)

	BindOn(btn, "click: @ui.count = @ui.count + 1", deps, nil)
	btn.Dispatch(&domtree.Event{Type: "click"})

	waitUntil(t, func() bool {
		return s.Value().(map[string]any)["count"] == int64(1)
	})
}

func TestBindOnEveryArmsInterval(t *testing.T) {
	deps := newDeps()
	_, s := newState(t, deps, "ui", map[string]string{"ticks": "0"})
	el := domtree.NewElement("div")
	s.Element().AppendChild(el)

	BindOn(el, "every 10ms: @ui.ticks = @ui.ticks + 1", deps, nil)
	waitUntil(t, func() bool {
		v, _ := s.Value().(map[string]any)["ticks"].(int64)
		return v >= 1
	})

	parent := domtree.NewElement("root")
	parent.AppendChild(el)
	parent.RemoveChild(el)
}
