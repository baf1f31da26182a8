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
	"time"

	"github.com/bittoy/jtx/compiler"
	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/onattr"
	"github.com/bittoy/jtx/registry"
)

// refresher is implemented by sourcedef.Source; declared locally so
// bindings need not import sourcedef (which would cycle back through
// registry.Definition).
type refresher interface {
	Refresh() error
}

func refreshByName(deps Deps, name string) error {
	if def, ok := deps.Registry.Lookup(registry.KindSource, name); ok {
		if r, ok := def.(refresher); ok {
			return r.Refresh()
		}
	}
	return nil
}

// BindOn implements the `on` attribute: raw is the unparsed
// attribute value, split by onattr.Parse into event/code
// pairs. locals carries any list-item variables (item/$/$index/$key)
// in scope for the handler; nil for a plain document element.
//
// Unlike the other bindings, `on` installs event listeners and timers
// rather than returning a reactive.Binding — handler bodies run
// imperatively in response to an event or tick, not a dependency
// change.
func BindOn(el *domtree.Element, raw string, deps Deps, locals map[string]any) {
	for _, entry := range onattr.Parse(raw) {
		entry := entry
		stmt, err := compiler.CompileStatement(entry.Code)
		if err != nil {
			deps.Config.Logger.Errorf("on binding: %s: %s", entry.Event, err)
			continue
		}

		if entry.IsEvery {
			armEvery(el, stmt, entry.Every, deps, locals)
			continue
		}

		event := entry.Event
		remove := el.AddEventListener(event, func(target *domtree.Element, ev *domtree.Event) {
			runHandler(el, stmt, deps, locals, ev)
		})
		el.OnRemoved(remove)
	}
}

func armEvery(el *domtree.Element, stmt *compiler.Statement, every time.Duration, deps Deps, locals map[string]any) {
	ticker := time.NewTicker(every)
	done := make(chan struct{})
	el.OnRemoved(func() {
		ticker.Stop()
		close(done)
	})
	go func() {
		for {
			select {
			case <-ticker.C:
				runHandler(el, stmt, deps, locals, nil)
			case <-done:
				return
			}
		}
	}()
}

// runHandler executes stmt against el's scope plus $event/$el, then
// schedules a render.
func runHandler(el *domtree.Element, stmt *compiler.Statement, deps Deps, locals map[string]any, ev *domtree.Event) {
	ctx := compiler.NewContext(deps.Resolver.ForElement(nil, el))
	for k, v := range locals {
		ctx.Locals[k] = v
	}
	ctx.Locals["$event"] = ev
	ctx.Locals["$el"] = el

	get, del, post, put, patch := httpHelpers(deps.Config)
	helpers := compiler.Helpers{
		Emit:    el.Emit,
		Refresh: func(name string) error { return refreshByName(deps, name) },
		Get:     get,
		Post:    post,
		Put:     put,
		Patch:   patch,
		Delete:  del,
	}

	if err := stmt.Run(ctx, helpers); err != nil {
		deps.Config.Logger.Errorf("on handler: %s", err)
	}
	deps.Scheduler.ScheduleRender()
}
