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

package jtxutil

import (
	"net/url"
	"testing"
)

func TestMergeQuerySetAndDelete(t *testing.T) {
	q, err := MergeQuery("a=1", map[string]any{"b": "x", "a": nil})
	if err != nil {
		t.Fatalf("MergeQuery: %v", err)
	}
	values, _ := url.ParseQuery(q)
	if values.Get("a") != "" {
		t.Fatalf("expected a to be deleted, got %q", values.Get("a"))
	}
	if got := values.Get("b"); got != `"x"` {
		t.Fatalf("expected JSON-encoded b, got %q", got)
	}
}

func TestDecodeQueryValueFallsBackToRaw(t *testing.T) {
	if v := DecodeQueryValue("not-json"); v != "not-json" {
		t.Fatalf("expected raw fallback, got %v", v)
	}
	if v := DecodeQueryValue(`{"a":1}`); v.(map[string]any)["a"].(float64) != 1 {
		t.Fatalf("expected parsed JSON object, got %v", v)
	}
}
