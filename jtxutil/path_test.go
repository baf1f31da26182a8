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

import "testing"

func TestDeepGetSet(t *testing.T) {
	root, err := DeepSet(nil, "user.emails[0]", "a@example.com")
	if err != nil {
		t.Fatalf("DeepSet: %v", err)
	}
	v, ok := DeepGet(root, "user.emails[0]")
	if !ok || v != "a@example.com" {
		t.Fatalf("DeepGet after set = %v, %v", v, ok)
	}
}

func TestDeepGetMissing(t *testing.T) {
	if _, ok := DeepGet(map[string]any{"a": 1}, "b.c"); ok {
		t.Fatalf("expected missing path to report not-found")
	}
}

func TestCaseInsensitiveAlias(t *testing.T) {
	root := map[string]any{"Title": "hi"}
	v, ok := DeepGet(root, "title")
	if !ok || v != "hi" {
		t.Fatalf("case-insensitive read failed: %v %v", v, ok)
	}
	out, err := DeepSet(root, "TITLE", "bye")
	if err != nil {
		t.Fatalf("DeepSet: %v", err)
	}
	m := out.(map[string]any)
	if len(m) != 1 || m["Title"] != "bye" {
		t.Fatalf("case-insensitive write should map back to original key, got %v", m)
	}
}

func TestParsePathBracketKey(t *testing.T) {
	segs, err := ParsePath(`items["primary"].name`)
	if err != nil {
		t.Fatalf("ParsePath: %v", err)
	}
	if len(segs) != 3 || segs[0].Key != "items" || segs[1].Key != "primary" || segs[2].Key != "name" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}
