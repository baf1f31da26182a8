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
	"encoding/json"
	"net/url"
	"sort"
)

// DecodeQueryValue attempts a JSON parse of a query value, falling
// back to the raw string.
func DecodeQueryValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// EncodeQueryValue JSON-serializes a value for the "key=<JSON>" query
// format.
func EncodeQueryValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MergeQuery rewrites the query string so that each key in updates
// carries its JSON-encoded value, deleting the key when the value is
// nil, and leaving every other existing parameter untouched.
func MergeQuery(current string, updates map[string]any) (string, error) {
	values, err := url.ParseQuery(current)
	if err != nil {
		values = url.Values{}
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := updates[k]
		if v == nil {
			values.Del(k)
			continue
		}
		enc, err := EncodeQueryValue(v)
		if err != nil {
			return current, err
		}
		values.Set(k, enc)
	}
	return values.Encode(), nil
}
