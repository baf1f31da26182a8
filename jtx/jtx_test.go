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

package jtx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/statedef"
	"github.com/bittoy/jtx/storage"
	"github.com/bittoy/jtx/types"
)

func testOpts() []Option {
	return []Option{
		WithConfig(
			types.WithKVStore(storage.NewMemory()),
			types.WithURLStore(storage.NewMemoryURL("")),
		),
	}
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

func TestInitWiresStateAndTextBinding(t *testing.T) {
	root := domtree.NewElement("body")
	stateEl := domtree.NewElement("state")
	stateEl.SetAttr("name", "ui")
	stateEl.SetAttr("count", "1")
	root.AppendChild(stateEl)

	span := domtree.NewElement("span")
	span.SetAttr("text", "@ui.count")
	root.AppendChild(span)

	app, err := Init(root, testOpts()...)
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.Equal(t, "1", span.Text())
}

func TestInitWiresInsertList(t *testing.T) {
	root := domtree.NewElement("body")
	stateEl := domtree.NewElement("state")
	stateEl.SetAttr("name", "feed")
	stateEl.SetAttr("items", `[{"id":"a"},{"id":"b"}]`)
	root.AppendChild(stateEl)

	insertEl := domtree.NewElement("ul")
	insertEl.Tag = "insert"
	insertEl.SetAttr("for", "item in @feed.items")
	insertEl.SetAttr("key", "item.id")
	tpl := domtree.NewElement("template")
	li := domtree.NewElement("li")
	li.SetAttr("attr-data-id", "item.id")
	tpl.AppendChild(li)
	insertEl.AppendChild(tpl)
	root.AppendChild(insertEl)

	_, err := Init(root, testOpts()...)
	require.NoError(t, err)

	assert.Len(t, insertEl.ChildElements(), 2)
}

func TestBindingResolvesDefinitionLaterInDocumentOrder(t *testing.T) {
	root := domtree.NewElement("body")
	span := domtree.NewElement("span")
	span.SetAttr("text", "@ui.count")
	root.AppendChild(span)

	stateEl := domtree.NewElement("state")
	stateEl.SetAttr("name", "ui")
	stateEl.SetAttr("count", "1")
	root.AppendChild(stateEl)

	_, err := Init(root, testOpts()...)
	require.NoError(t, err)
	assert.Equal(t, "1", span.Text())
}

func TestNestedStateShadowsOuterForDescendants(t *testing.T) {
	root := domtree.NewElement("body")

	outer := domtree.NewElement("state")
	outer.SetAttr("name", "ui")
	outer.SetAttr("count", "1")
	root.AppendChild(outer)

	spanOuter := domtree.NewElement("span")
	spanOuter.SetAttr("text", "@ui.count")
	root.AppendChild(spanOuter)

	section := domtree.NewElement("section")
	root.AppendChild(section)
	inner := domtree.NewElement("state")
	inner.SetAttr("name", "ui")
	inner.SetAttr("count", "2")
	section.AppendChild(inner)
	spanInner := domtree.NewElement("span")
	spanInner.SetAttr("text", "@ui.count")
	section.AppendChild(spanInner)

	_, err := Init(root, testOpts()...)
	require.NoError(t, err)

	assert.Equal(t, "2", spanInner.Text())
	assert.Equal(t, "1", spanOuter.Text())
}

func TestUnscopedReferenceFromSiblingTreeResolvesEmpty(t *testing.T) {
	root := domtree.NewElement("body")
	stateEl := domtree.NewElement("state")
	stateEl.SetAttr("name", "ui")
	stateEl.SetAttr("count", "1")
	root.AppendChild(stateEl)

	app, err := Init(root, testOpts()...)
	require.NoError(t, err)

	// a disconnected tree has no containing definition; the reference
	// degrades to empty and the binding restores its initial text.
	other := domtree.NewElement("aside")
	span := domtree.NewElement("span")
	span.AppendChild(domtree.NewText("fallback"))
	span.SetAttr("text", "@ui.count")
	other.AppendChild(span)
	app.walk(other)

	assert.Equal(t, "fallback", span.Text())
}

func TestRefreshUnknownSourceReturnsReferenceError(t *testing.T) {
	root := domtree.NewElement("body")
	app, err := Init(root, testOpts()...)
	require.NoError(t, err)

	err = app.Refresh("missing")
	var refErr *types.ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "missing", refErr.Name)
}

func TestRefreshRunsNamedSource(t *testing.T) {
	root := domtree.NewElement("body")
	srcEl := domtree.NewElement("src")
	srcEl.SetAttr("name", "o")
	srcEl.SetAttr("url", "http://example.invalid/x")
	srcEl.SetAttr("fetch", "manual")
	root.AppendChild(srcEl)

	app, err := Init(root, testOpts()...)
	require.NoError(t, err)

	require.NoError(t, app.Refresh("o"))
}

// SetHTMLSanitizer installs the sanitizer for html bindings wired by
// this App from that point forward; an element already bound keeps the
// sanitizer active at its own bind time, since the engine threads
// Config through each scan as an immutable value rather than sharing
// one mutable cell across every binding closure (see DESIGN.md).
func TestSetHTMLSanitizerAppliesToSubsequentlyScannedMarkup(t *testing.T) {
	root := domtree.NewElement("body")
	stateEl := domtree.NewElement("state")
	stateEl.SetAttr("name", "ui")
	stateEl.SetAttr("body", `"<b>x</b>"`)
	root.AppendChild(stateEl)

	div := domtree.NewElement("div")
	div.SetAttr("html", "@ui.body")
	root.AppendChild(div)

	app, err := Init(root, testOpts()...)
	require.NoError(t, err)
	require.Equal(t, "<b>x</b>", div.InnerHTML())

	app.SetHTMLSanitizer(func(s string) string { return "sanitized:" + s })

	def, ok := app.deps.Registry.Lookup(registry.KindState, "ui")
	require.True(t, ok)
	s := def.(*statedef.State)
	s.SetPath("body", "<i>y</i>")

	// the div's binding closure captured Config (and its Sanitizer) at
	// scan time, so a later re-run of that same binding still uses the
	// sanitizer active then — unsanitized, since none was set yet.
	waitUntil(t, func() bool { return div.InnerHTML() == "<i>y</i>" })

	later := domtree.NewElement("div")
	later.SetAttr("html", `"<u>z</u>"`)
	root.AppendChild(later)
	app.walk(later)
	assert.Equal(t, "sanitized:<u>z</u>", later.InnerHTML())
}
