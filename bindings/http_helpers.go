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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/bittoy/jtx/types"
)

// doJSON runs one request/response cycle for the `get/post/put/patch/
// del` handler helpers, sharing doFetch's
// request-build/decode shape but without the status-slot side effects
// a <src> fetch has — a handler's HTTP helper is a one-off call.
func doJSON(cfg types.Config, method, url string, body any) (any, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := cfg.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %s %s: %s", method, url, resp.Status)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// httpHelpers builds the compiler.Helpers HTTP verb funcs bound to one
// handler invocation's config.
func httpHelpers(cfg types.Config) (get, del func(string) (any, error), post, put, patch func(string, any) (any, error)) {
	get = func(url string) (any, error) { return doJSON(cfg, http.MethodGet, url, nil) }
	del = func(url string) (any, error) { return doJSON(cfg, http.MethodDelete, url, nil) }
	post = func(url string, body any) (any, error) { return doJSON(cfg, http.MethodPost, url, body) }
	put = func(url string, body any) (any, error) { return doJSON(cfg, http.MethodPut, url, body) }
	patch = func(url string, body any) (any, error) { return doJSON(cfg, http.MethodPatch, url, body) }
	return
}
