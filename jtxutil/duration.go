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
	"fmt"
	"strings"
	"time"
)

// ParseEvery recognizes the "every <duration>" fetch-mode / on-clause
// entries. It returns ok=false for anything that
// isn't that exact shape, so callers can fall through to their other
// parsing branches.
func ParseEvery(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	const prefix = "every "
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	d, err := time.ParseDuration(strings.TrimSpace(s[len(prefix):]))
	if err != nil {
		return 0, false
	}
	return d, true
}

func FormatEvery(d time.Duration) string {
	return fmt.Sprintf("every %s", d)
}
