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

package sourcedef

import (
	"bytes"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bittoy/jtx/domtree"
	"github.com/bittoy/jtx/reactive"
	"github.com/bittoy/jtx/registry"
	"github.com/bittoy/jtx/storage"
	"github.com/bittoy/jtx/types"
)

type fakeDoer struct {
	responses []*http.Response
	errs      []error
	calls     int
}

func (f *fakeDoer) Do(*http.Request) (*http.Response, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return f.responses[i], nil
	}
	return f.responses[len(f.responses)-1], nil
}

func jsonResp(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Status: http.StatusText(status), Body: io.NopCloser(bytes.NewBufferString(body))}
}

func newSourceDeps(doer types.HTTPDoer) Deps {
	logger := types.NewDefaultLogger()
	cfg := types.NewConfig(types.WithHTTPClient(doer), types.WithKVStore(storage.NewMemory()), types.WithURLStore(storage.NewMemoryURL("")))
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

func TestHTTPSourceLifecycle(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{jsonResp(500, ""), jsonResp(200, "[]")}}
	deps := newSourceDeps(doer)

	el := domtree.NewElement("src")
	el.SetAttr("name", "o")
	el.SetAttr("url", "/x")
	el.SetAttr("fetch", "manual")
	loading := domtree.NewElement("loading")
	errorEl := domtree.NewElement("error")
	empty := domtree.NewElement("empty")
	el.AppendChild(loading)
	el.AppendChild(errorEl)
	el.AppendChild(empty)

	src, err := Init(el, deps, false)
	require.NoError(t, err)
	assert.Equal(t, string(StatusIdle), src.statusString())

	require.NoError(t, src.Refresh())
	waitUntil(t, func() bool { return src.statusString() == string(StatusError) })
	assert.True(t, errorEl.HasAttr(domtree.HiddenAttr) == false)
	assert.True(t, loading.HasAttr(domtree.HiddenAttr))

	require.NoError(t, src.Refresh())
	waitUntil(t, func() bool { return src.statusString() == string(StatusReady) })
	assert.False(t, empty.HasAttr(domtree.HiddenAttr))
	assert.True(t, errorEl.HasAttr(domtree.HiddenAttr))
}

func TestHTTPSourceAppliesSelectPath(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{jsonResp(200, `{"items":[1,2,3]}`)}}
	deps := newSourceDeps(doer)

	el := domtree.NewElement("src")
	el.SetAttr("name", "o")
	el.SetAttr("url", "/x")
	el.SetAttr("fetch", "manual")
	el.SetAttr("select", "items")

	src, err := Init(el, deps, false)
	require.NoError(t, err)
	require.NoError(t, src.Refresh())
	waitUntil(t, func() bool { return src.statusString() == string(StatusReady) })
	assert.Equal(t, []any{1.0, 2.0, 3.0}, src.Value())
}

func TestHTTPSourceNoContentYieldsNilValue(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{jsonResp(204, "")}}
	deps := newSourceDeps(doer)

	el := domtree.NewElement("src")
	el.SetAttr("name", "o")
	el.SetAttr("url", "/x")
	el.SetAttr("fetch", "manual")

	src, err := Init(el, deps, false)
	require.NoError(t, err)
	require.NoError(t, src.Refresh())
	waitUntil(t, func() bool { return src.statusString() == string(StatusReady) })
	assert.Nil(t, src.Value())
}

func TestOnloadFetchModeFetchesAutomatically(t *testing.T) {
	doer := &fakeDoer{responses: []*http.Response{jsonResp(200, `{"a":1}`)}}
	deps := newSourceDeps(doer)

	el := domtree.NewElement("src")
	el.SetAttr("name", "o")
	el.SetAttr("url", "/x")

	src, err := Init(el, deps, false)
	require.NoError(t, err)
	waitUntil(t, func() bool { return src.statusString() == string(StatusReady) })
}

func TestKindInferredFromURLScheme(t *testing.T) {
	assert.Equal(t, KindHTTP, inferKind("/api/things"))
	assert.Equal(t, KindSSE, inferKind("sse:/stream"))
	assert.Equal(t, KindWS, inferKind("ws://host/socket"))
	assert.Equal(t, KindWS, inferKind("wss://host/socket"))
}
